package reports

import (
	"math"
	"slices"
	"time"

	"blinq/internal/models"
)

// trendMonths is the number of trailing months in the sparkline trends
const trendMonths = 6

// Comparison kinds accepted by CalculateComparison
const (
	ComparePrevious = "previous"
	CompareYear     = "year"
)

// Metrics computes dashboard KPIs from transactions
type Metrics struct{}

// NewMetrics creates a metrics calculator
func NewMetrics() *Metrics {
	return &Metrics{}
}

// CalculateMetrics computes totals, savings rate and monthly trends
func (m *Metrics) CalculateMetrics(ts *models.TransactionSet) *models.DashboardMetrics {
	income := ts.Income()
	expenses := ts.Expenses()

	totalIncome := income.SumAmount()
	totalExpenses := expenses.SumAmount()
	netSavings := totalIncome - totalExpenses

	var savingsRate float64
	if totalIncome > 0 {
		savingsRate = netSavings / totalIncome * 100
	}

	monthlyIncome := income.GroupByMonth()
	monthlyExpenses := expenses.GroupByMonth()

	months := make([]string, 0, len(monthlyIncome)+len(monthlyExpenses))
	for k := range monthlyIncome {
		months = append(months, k)
	}
	for k := range monthlyExpenses {
		if _, ok := monthlyIncome[k]; !ok {
			months = append(months, k)
		}
	}
	slices.Sort(months)
	if len(months) > trendMonths {
		months = months[len(months)-trendMonths:]
	}

	result := &models.DashboardMetrics{
		TotalIncome:      totalIncome,
		TotalExpenses:    totalExpenses,
		NetSavings:       netSavings,
		SavingsRate:      savingsRate,
		TransactionCount: ts.Len(),
		StartDate:        ts.MinDate(),
		EndDate:          ts.MaxDate(),
		IncomeTrend:      []float64{},
		ExpensesTrend:    []float64{},
		SavingsTrend:     []float64{},
		TrendLabels:      []string{},
	}

	for _, month := range months {
		var inc, exp float64
		if set, ok := monthlyIncome[month]; ok {
			inc = set.SumAmount()
		}
		if set, ok := monthlyExpenses[month]; ok {
			exp = set.SumAmount()
		}
		result.IncomeTrend = append(result.IncomeTrend, inc)
		result.ExpensesTrend = append(result.ExpensesTrend, exp)
		result.SavingsTrend = append(result.SavingsTrend, inc-exp)
		result.TrendLabels = append(result.TrendLabels, month)
	}

	return result
}

// CalculateComparison compares [start, end] against the preceding period
// of equal length or the same dates one year earlier
func (m *Metrics) CalculateComparison(data *models.TransactionSet, start, end time.Time, kind string) *models.PeriodComparison {
	var compStart, compEnd time.Time

	switch kind {
	case ComparePrevious:
		compEnd = start.AddDate(0, 0, -1)
		compStart = compEnd.Add(-end.Sub(start))
	case CompareYear:
		compStart = start.AddDate(-1, 0, 0)
		compEnd = end.AddDate(-1, 0, 0)
	default:
		return nil
	}

	current := data.FilterByDateRange(start, end)
	previous := data.FilterByDateRange(compStart, compEnd)

	if previous.Len() == 0 {
		return &models.PeriodComparison{HasData: false}
	}

	cur := m.CalculateMetrics(current)
	prev := m.CalculateMetrics(previous)

	return &models.PeriodComparison{
		Current:           cur,
		Previous:          prev,
		HasData:           true,
		IncomeChange:      m.PercentChange(cur.TotalIncome, prev.TotalIncome),
		ExpensesChange:    m.PercentChange(cur.TotalExpenses, prev.TotalExpenses),
		SavingsChange:     m.PercentChange(cur.NetSavings, prev.NetSavings),
		SavingsRateChange: cur.SavingsRate - prev.SavingsRate,
	}
}

// PercentChange is the change from previous to current in percent.
// A change from zero is reported as 100.
func (m *Metrics) PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return (current - previous) / math.Abs(previous) * 100
}
