package models

import "time"

// MonthlyPoint is one month of the reports income/expense series
type MonthlyPoint struct {
	Month       string  `json:"month"` // "Jan".."Dec"
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Savings     float64 `json:"savings"`
	Investments float64 `json:"investments"`
}

// CategoryTotal is expense spending in one category
type CategoryTotal struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// WeeklyPoint is expense spending in one fixed week of the current month
type WeeklyPoint struct {
	Week   string  `json:"week"`
	Amount float64 `json:"amount"`
}

// MerchantTotal is expense spending grouped by description
type MerchantTotal struct {
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`
	Transactions int     `json:"transactions"`
	Category     string  `json:"category"`
}

// ReportSummary holds the headline figures of the reports screen
type ReportSummary struct {
	AvgIncome      float64 `json:"avgIncome"`
	AvgExpenses    float64 `json:"avgExpenses"`
	SavingsRate    float64 `json:"savingsRate"`
	NetWorthGrowth float64 `json:"netWorthGrowth"`
}

// ReportFilter narrows the transactions a report is built from
type ReportFilter struct {
	Period    string `json:"period,omitempty"` // 7d, 30d, 3m, 12m
	Category  string `json:"category,omitempty"`
	AccountID string `json:"account,omitempty"`
}

// Report is the payload of the reports screen and its export
type Report struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Filters     ReportFilter    `json:"filters"`
	Summary     ReportSummary   `json:"summary"`
	Monthly     []MonthlyPoint  `json:"monthlyData"`
	Categories  []CategoryTotal `json:"categoryData"`
	Weekly      []WeeklyPoint   `json:"weeklySpendingData"`
	Merchants   []MerchantTotal `json:"topMerchantsData"`
}

// RecurringPayment is an expense that repeats on a regular schedule
type RecurringPayment struct {
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Amount       float64 `json:"amount"`
	Frequency    string  `json:"frequency"` // weekly, biweekly, monthly, quarterly, yearly
	LastDate     string  `json:"lastDate"`
	NextExpected string  `json:"nextExpected"`
	AnnualCost   float64 `json:"annualCost"`
	Occurrences  int     `json:"occurrences"`
	Confidence   float64 `json:"confidence"` // 0.0-1.0
}

// RecurringSummary lists detected recurring payments with their combined cost
type RecurringSummary struct {
	Payments    []RecurringPayment `json:"payments"`
	AnnualTotal float64            `json:"annualTotal"`
	MonthlyCost float64            `json:"monthlyCost"`
}
