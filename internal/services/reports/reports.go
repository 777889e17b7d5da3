// Package reports derives the read-only views of a financial document:
// report series, budget and account summaries. All functions are pure;
// the current time is always passed in.
package reports

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"blinq/internal/models"
)

// InvestmentShare is the fraction of monthly income shown as investments.
// It is a display heuristic, not a measurement.
const InvestmentShare = 0.15

// TopMerchantsLimit is the number of merchants in a report
const TopMerchantsLimit = 5

const (
	uncategorized   = "Uncategorized"
	unknownMerchant = "Unknown Merchant"
)

// Palette colors category totals in first-seen order
var Palette = []string{
	"hsl(var(--chart-1))",
	"hsl(var(--chart-2))",
	"hsl(var(--chart-3))",
	"hsl(var(--chart-4))",
	"hsl(var(--chart-5))",
	"hsl(var(--secondary))",
	"hsl(var(--muted-foreground))",
}

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthlySeries returns Jan..Dec of now's year with income, expenses,
// savings and the investment estimate per month
func MonthlySeries(txns []models.Transaction, now time.Time) []models.MonthlyPoint {
	series := make([]models.MonthlyPoint, 12)
	for i := range series {
		series[i].Month = monthNames[i]
	}

	for _, t := range txns {
		d, ok := t.Time()
		if !ok || d.Year() != now.Year() {
			continue
		}
		p := &series[d.Month()-1]
		switch {
		case t.IsIncome():
			p.Income += t.Amount
		case t.IsExpense():
			p.Expenses += t.Amount
		}
	}

	for i := range series {
		series[i].Savings = series[i].Income - series[i].Expenses
		series[i].Investments = series[i].Income * InvestmentShare
	}
	return series
}

// CategoryTotals sums expenses per category in first-seen order
func CategoryTotals(txns []models.Transaction) []models.CategoryTotal {
	totals := []models.CategoryTotal{}
	index := map[string]int{}

	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		name := strings.TrimSpace(t.Category)
		if name == "" {
			name = uncategorized
		}
		i, ok := index[name]
		if !ok {
			i = len(totals)
			index[name] = i
			totals = append(totals, models.CategoryTotal{Name: name, Color: Palette[i%len(Palette)]})
		}
		totals[i].Value += t.Amount
	}
	return totals
}

// WeeklySeries sums expenses in the fixed windows 1-7, 8-14, 15-21 and
// 22-28 of now's month. Days 29-31 fall outside every window.
func WeeklySeries(txns []models.Transaction, now time.Time) []models.WeeklyPoint {
	weeks := []models.WeeklyPoint{
		{Week: "Week 1"}, {Week: "Week 2"}, {Week: "Week 3"}, {Week: "Week 4"},
	}

	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		d, ok := t.Time()
		if !ok || d.Year() != now.Year() || d.Month() != now.Month() {
			continue
		}
		if w := (d.Day() - 1) / 7; w < len(weeks) {
			weeks[w].Amount += t.Amount
		}
	}
	return weeks
}

// TopMerchants groups expenses by description and returns the n largest.
// Ties keep first-seen order.
func TopMerchants(txns []models.Transaction, n int) []models.MerchantTotal {
	merchants := []models.MerchantTotal{}
	index := map[string]int{}

	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		name := strings.TrimSpace(t.Description)
		if name == "" {
			name = unknownMerchant
		}
		i, ok := index[name]
		if !ok {
			i = len(merchants)
			index[name] = i
			merchants = append(merchants, models.MerchantTotal{Name: name, Category: t.Category})
		}
		merchants[i].Amount += t.Amount
		merchants[i].Transactions++
	}

	slices.SortStableFunc(merchants, func(a, b models.MerchantTotal) int {
		return cmp.Compare(b.Amount, a.Amount)
	})
	if n >= 0 && len(merchants) > n {
		merchants = merchants[:n]
	}
	return merchants
}

// Summary computes the headline figures from a monthly series
func Summary(series []models.MonthlyPoint) models.ReportSummary {
	var income, expenses, savings float64
	for _, p := range series {
		income += p.Income
		expenses += p.Expenses
		savings += p.Savings
	}

	n := float64(max(len(series), 1))
	s := models.ReportSummary{
		AvgIncome:      income / n,
		AvgExpenses:    expenses / n,
		NetWorthGrowth: savings,
	}
	if s.AvgIncome > 0 {
		s.SavingsRate = (s.AvgIncome - s.AvgExpenses) / s.AvgIncome * 100
	}
	return s
}

// PeriodStart returns the start of a report period ending at now.
// ok is false for an empty or unknown period.
func PeriodStart(period string, now time.Time) (start time.Time, ok bool) {
	switch period {
	case "7d":
		return now.AddDate(0, 0, -7), true
	case "30d":
		return now.AddDate(0, 0, -30), true
	case "3m":
		return now.AddDate(0, -3, 0), true
	case "12m":
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// ApplyFilter narrows txns by period, category and account. Empty filter
// fields and the category/account value "all" match everything.
func ApplyFilter(txns []models.Transaction, f models.ReportFilter, now time.Time) []models.Transaction {
	set := models.NewTransactionSet(txns)
	if start, ok := PeriodStart(f.Period, now); ok {
		set = set.FilterByDateRange(start, now)
	}
	if f.Category != "" && f.Category != "all" {
		set = set.FilterByCategory(f.Category)
	}
	if f.AccountID != "" && f.AccountID != "all" {
		set = set.FilterByAccount(f.AccountID)
	}
	if set.Transactions == nil {
		return []models.Transaction{}
	}
	return set.Transactions
}

// Build assembles the reports payload for doc
func Build(doc *models.FinancialDocument, f models.ReportFilter, now time.Time) *models.Report {
	txns := ApplyFilter(doc.Transactions, f, now)
	monthly := MonthlySeries(txns, now)

	return &models.Report{
		GeneratedAt: now,
		Filters:     f,
		Summary:     Summary(monthly),
		Monthly:     monthly,
		Categories:  CategoryTotals(txns),
		Weekly:      WeeklySeries(txns, now),
		Merchants:   TopMerchants(txns, TopMerchantsLimit),
	}
}

// ExportFilename names a downloaded report
func ExportFilename(now time.Time) string {
	return "financial-report-" + now.Format("2006-01-02") + ".json"
}
