package models

import "time"

// DashboardMetrics contains the KPI metrics computed from transactions
type DashboardMetrics struct {
	TotalIncome      float64   `json:"totalIncome"`
	TotalExpenses    float64   `json:"totalExpenses"`
	NetSavings       float64   `json:"netSavings"`
	SavingsRate      float64   `json:"savingsRate"`
	TransactionCount int       `json:"transactionCount"`
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`

	// Trends (for sparklines) - monthly values
	IncomeTrend   []float64 `json:"incomeTrend"`
	ExpensesTrend []float64 `json:"expensesTrend"`
	SavingsTrend  []float64 `json:"savingsTrend"`
	TrendLabels   []string  `json:"trendLabels"` // "2024-01"
}

// PeriodComparison holds metrics for two periods for comparison
type PeriodComparison struct {
	Current  *DashboardMetrics `json:"current"`
	Previous *DashboardMetrics `json:"previous"`
	HasData  bool              `json:"hasData"`

	// Percentage changes
	IncomeChange      float64 `json:"incomeChangePct"`
	ExpensesChange    float64 `json:"expensesChangePct"`
	SavingsChange     float64 `json:"savingsChangePct"`
	SavingsRateChange float64 `json:"savingsRateChangePp"` // percentage points
}

// AccountSummary totals the accounts list
type AccountSummary struct {
	TotalBalance  float64                 `json:"totalBalance"`
	ActiveCount   int                     `json:"activeCount"`
	InactiveCount int                     `json:"inactiveCount"`
	ByType        map[AccountType]float64 `json:"byType"`
}

// BudgetLine is one category's standing in the budget overview
type BudgetLine struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Period     BudgetPeriod `json:"period"`
	Budget     float64      `json:"budget"`
	Spent      float64      `json:"spent"`
	Remaining  float64      `json:"remaining"`
	Percentage float64      `json:"percentage"`
	Status     BudgetStatus `json:"status"`
}

// BudgetOverview aggregates the budget categories
type BudgetOverview struct {
	TotalBudget     float64              `json:"totalBudget"`
	TotalSpent      float64              `json:"totalSpent"`
	Remaining       float64              `json:"remaining"`
	Utilization     float64              `json:"utilization"`
	StatusCounts    map[BudgetStatus]int `json:"statusCounts"`
	Lines           []BudgetLine         `json:"lines"`
	Goals           []BudgetGoal         `json:"goals"`
	MonthlyVariance float64              `json:"monthlyVariance"` // sum of budget-actual over monthlyData
}

// Dashboard is the payload of the dashboard screen
type Dashboard struct {
	TotalBalance      float64           `json:"totalBalance"`
	MonthlyIncome     float64           `json:"monthlyIncome"`
	MonthlyExpenses   float64           `json:"monthlyExpenses"`
	Savings           float64           `json:"savings"`
	Investments       float64           `json:"investments"`
	Debt              float64           `json:"debt"`
	SavingsGoals      []SavingsGoal     `json:"savingsGoals"`
	ExpenseCategories []ExpenseCategory `json:"expenseCategories"`
	MonthlyData       []MonthlyData     `json:"monthlyData"`
	SpendingData      []SpendingData    `json:"spendingData"`
	Accounts          *AccountSummary   `json:"accounts"`
	Budget            *BudgetOverview   `json:"budget"`
	Metrics           *DashboardMetrics `json:"metrics"`
	Currency          Currency          `json:"currency"`
}
