package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccountType is the kind of a financial account
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
)

// Valid reports whether the account type is one of the known kinds
func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCredit, AccountInvestment:
		return true
	}
	return false
}

// AccountStatus marks an account as in use or not
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// Valid reports whether the status is known
func (s AccountStatus) Valid() bool {
	return s == AccountActive || s == AccountInactive
}

// EntryType indicates the direction of money on an account
type EntryType string

const (
	Credit EntryType = "credit" // money in, reported as income
	Debit  EntryType = "debit"  // money out, reported as expense
)

// Valid reports whether the entry type is known
func (e EntryType) Valid() bool {
	return e == Credit || e == Debit
}

// BudgetPeriod is the recurrence of a budget category
type BudgetPeriod string

const (
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodYearly  BudgetPeriod = "yearly"
)

// Valid reports whether the period is known
func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodMonthly, PeriodWeekly, PeriodYearly:
		return true
	}
	return false
}

// BudgetStatus classifies spending against a budget
type BudgetStatus string

const (
	OnTrack    BudgetStatus = "on-track"
	Warning    BudgetStatus = "warning"
	OverBudget BudgetStatus = "over-budget"
)

// WarningThreshold is the share of a budget above which spending is flagged
const WarningThreshold = 0.8

// ClassifyBudget returns the status for spent against budget.
// Comparisons only, so a zero budget is over-budget iff anything was spent.
func ClassifyBudget(spent, budget float64) BudgetStatus {
	if spent > budget {
		return OverBudget
	}
	if spent > budget*WarningThreshold {
		return Warning
	}
	return OnTrack
}

// FinancialDocument is the aggregate root holding all of a user's data.
// It is read and rewritten in full on every mutation.
type FinancialDocument struct {
	TotalBalance    float64 `json:"totalBalance"`
	MonthlyIncome   float64 `json:"monthlyIncome"`
	MonthlyExpenses float64 `json:"monthlyExpenses"`
	Savings         float64 `json:"savings"`
	Investments     float64 `json:"investments"`
	Debt            float64 `json:"debt"`

	SavingsGoals      []SavingsGoal     `json:"savingsGoals"`
	ExpenseCategories []ExpenseCategory `json:"expenseCategories"`
	MonthlyData       []MonthlyData     `json:"monthlyData"`
	SpendingData      []SpendingData    `json:"spendingData"`
	Accounts          []Account         `json:"accounts"`
	Transactions      []Transaction     `json:"transactions"`
	BudgetCategories  []BudgetCategory  `json:"budgetCategories"`
	BudgetGoals       []BudgetGoal      `json:"budgetGoals"`
}

// DefaultFinancialDocument returns the zero-valued document with empty collections
func DefaultFinancialDocument() *FinancialDocument {
	return &FinancialDocument{
		SavingsGoals:      []SavingsGoal{},
		ExpenseCategories: []ExpenseCategory{},
		MonthlyData:       []MonthlyData{},
		SpendingData:      []SpendingData{},
		Accounts:          []Account{},
		Transactions:      []Transaction{},
		BudgetCategories:  []BudgetCategory{},
		BudgetGoals:       []BudgetGoal{},
	}
}

// Normalize replaces nil collections with empty ones and assigns ids to
// entries persisted before they carried one. Returns true if anything changed.
func (d *FinancialDocument) Normalize() bool {
	changed := false

	if d.SavingsGoals == nil {
		d.SavingsGoals = []SavingsGoal{}
	}
	if d.ExpenseCategories == nil {
		d.ExpenseCategories = []ExpenseCategory{}
	}
	if d.MonthlyData == nil {
		d.MonthlyData = []MonthlyData{}
	}
	if d.SpendingData == nil {
		d.SpendingData = []SpendingData{}
	}
	if d.Accounts == nil {
		d.Accounts = []Account{}
	}
	if d.Transactions == nil {
		d.Transactions = []Transaction{}
	}
	if d.BudgetCategories == nil {
		d.BudgetCategories = []BudgetCategory{}
	}
	if d.BudgetGoals == nil {
		d.BudgetGoals = []BudgetGoal{}
	}

	for i := range d.ExpenseCategories {
		if d.ExpenseCategories[i].ID == "" {
			d.ExpenseCategories[i].ID = NewID()
			changed = true
		}
	}
	for i := range d.MonthlyData {
		if d.MonthlyData[i].ID == "" {
			d.MonthlyData[i].ID = NewID()
			changed = true
		}
	}
	for i := range d.SpendingData {
		if d.SpendingData[i].ID == "" {
			d.SpendingData[i].ID = NewID()
			changed = true
		}
	}

	return changed
}

// Clone returns a copy that shares no slices with the receiver
func (d *FinancialDocument) Clone() *FinancialDocument {
	c := *d
	c.SavingsGoals = append([]SavingsGoal{}, d.SavingsGoals...)
	c.ExpenseCategories = append([]ExpenseCategory{}, d.ExpenseCategories...)
	c.MonthlyData = append([]MonthlyData{}, d.MonthlyData...)
	c.SpendingData = append([]SpendingData{}, d.SpendingData...)
	c.Transactions = append([]Transaction{}, d.Transactions...)
	c.BudgetCategories = append([]BudgetCategory{}, d.BudgetCategories...)
	c.BudgetGoals = append([]BudgetGoal{}, d.BudgetGoals...)

	c.Accounts = make([]Account, len(d.Accounts))
	for i, a := range d.Accounts {
		if a.LastTransaction != nil {
			lt := *a.LastTransaction
			a.LastTransaction = &lt
		}
		c.Accounts[i] = a
	}
	return &c
}

// FindAccount returns the index of the account with the given id, or -1
func (d *FinancialDocument) FindAccount(id string) int {
	for i := range d.Accounts {
		if d.Accounts[i].ID == id {
			return i
		}
	}
	return -1
}

// NewID generates a stable identifier for a list entity
func NewID() string {
	return uuid.New().String()
}

// Account is a bank, card or investment account
type Account struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Type            AccountType      `json:"type"`
	Balance         float64          `json:"balance"`
	AccountNumber   string           `json:"accountNumber"`
	Bank            string           `json:"bank"`
	Status          AccountStatus    `json:"status"`
	LastTransaction *LastTransaction `json:"lastTransaction,omitempty"`
}

// LastTransaction is a snapshot of the most recent entry on an account
type LastTransaction struct {
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Type        EntryType `json:"type"`
}

// Transaction is a single entry on an account
type Transaction struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"accountId"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Type        EntryType `json:"type"`
	Category    string    `json:"category"`
}

// dateLayouts are the ISO forms a transaction date may be stored in
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses an ISO date string. ok is false for anything unparsable.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Time returns the parsed transaction date
func (t Transaction) Time() (time.Time, bool) {
	return ParseDate(t.Date)
}

// IsIncome reports whether the transaction counts as income in reports
func (t Transaction) IsIncome() bool {
	return t.Type == Credit
}

// IsExpense reports whether the transaction counts as an expense in reports
func (t Transaction) IsExpense() bool {
	return t.Type == Debit
}

// Snapshot returns the lastTransaction view of this entry
func (t Transaction) Snapshot() *LastTransaction {
	return &LastTransaction{
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.Date,
		Type:        t.Type,
	}
}

// BudgetCategory is a spending envelope. Status is derived, never stored.
type BudgetCategory struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Icon         string       `json:"icon"`
	BudgetAmount float64      `json:"budgetAmount"`
	SpentAmount  float64      `json:"spentAmount"`
	Color        string       `json:"color"`
	Period       BudgetPeriod `json:"period"`
}

// Status classifies the category's spending
func (c BudgetCategory) Status() BudgetStatus {
	return ClassifyBudget(c.SpentAmount, c.BudgetAmount)
}

// Percentage is spent as a share of budget, 0 for a zero budget
func (c BudgetCategory) Percentage() float64 {
	return percentOf(c.SpentAmount, c.BudgetAmount)
}

// MarshalJSON emits the derived status alongside the stored fields
func (c BudgetCategory) MarshalJSON() ([]byte, error) {
	type alias BudgetCategory
	return json.Marshal(struct {
		alias
		Status BudgetStatus `json:"status"`
	}{alias(c), c.Status()})
}

// BudgetGoal is a target amount with an optional deadline
type BudgetGoal struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	TargetAmount  float64 `json:"targetAmount"`
	CurrentAmount float64 `json:"currentAmount"`
	Deadline      string  `json:"deadline,omitempty"`
	Category      string  `json:"category"`
}

// Progress is current over target in percent
func (g BudgetGoal) Progress() float64 {
	return percentOf(g.CurrentAmount, g.TargetAmount)
}

func (g BudgetGoal) MarshalJSON() ([]byte, error) {
	type alias BudgetGoal
	return json.Marshal(struct {
		alias
		Progress float64 `json:"progress"`
	}{alias(g), g.Progress()})
}

// SavingsGoal is a dashboard savings target
type SavingsGoal struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	CurrentAmount float64 `json:"currentAmount"`
	TargetAmount  float64 `json:"targetAmount"`
	Icon          string  `json:"icon"`
	Color         string  `json:"color"`
	Deadline      string  `json:"deadline,omitempty"`
}

// Progress is current over target in percent
func (g SavingsGoal) Progress() float64 {
	return percentOf(g.CurrentAmount, g.TargetAmount)
}

func (g SavingsGoal) MarshalJSON() ([]byte, error) {
	type alias SavingsGoal
	return json.Marshal(struct {
		alias
		Progress float64 `json:"progress"`
	}{alias(g), g.Progress()})
}

// ExpenseCategory is a manually maintained slice of the expense pie
type ExpenseCategory struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// MonthlyData is a budget-versus-actual data point
type MonthlyData struct {
	ID     string  `json:"id"`
	Month  string  `json:"month"`
	Budget float64 `json:"budget"`
	Actual float64 `json:"actual"`
}

// Difference is budget minus actual
func (m MonthlyData) Difference() float64 {
	return m.Budget - m.Actual
}

func (m MonthlyData) MarshalJSON() ([]byte, error) {
	type alias MonthlyData
	return json.Marshal(struct {
		alias
		Difference float64 `json:"difference"`
	}{alias(m), m.Difference()})
}

// SpendingData is an income/expenses/savings data point for the trends chart
type SpendingData struct {
	ID       string  `json:"id"`
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Savings  float64 `json:"savings"`
}

// Metric names the editable scalar fields of the document
type Metric string

const (
	MetricTotalBalance    Metric = "totalBalance"
	MetricMonthlyIncome   Metric = "monthlyIncome"
	MetricMonthlyExpenses Metric = "monthlyExpenses"
	MetricSavings         Metric = "savings"
	MetricInvestments     Metric = "investments"
	MetricDebt            Metric = "debt"
)

// SetMetric assigns a scalar field by name. Returns false for unknown names.
func (d *FinancialDocument) SetMetric(m Metric, value float64) bool {
	switch m {
	case MetricTotalBalance:
		d.TotalBalance = value
	case MetricMonthlyIncome:
		d.MonthlyIncome = value
	case MetricMonthlyExpenses:
		d.MonthlyExpenses = value
	case MetricSavings:
		d.Savings = value
	case MetricInvestments:
		d.Investments = value
	case MetricDebt:
		d.Debt = value
	default:
		return false
	}
	return true
}

// ParseAmount parses user-entered amounts. Currency symbols, grouping commas
// and accounting parentheses are accepted; anything unparsable is zero.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	for _, sym := range []string{"$", "₹", "€", "£", ",", " "} {
		s = strings.ReplaceAll(s, sym, "")
	}

	// (100.00) -> -100.00
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}

	amount, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return amount
}

func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
