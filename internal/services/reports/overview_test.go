package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinq/internal/models"
)

func TestBudgetStatusBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		spent  float64
		budget float64
		want   models.BudgetStatus
	}{
		{"well under", 100, 1000, models.OnTrack},
		{"exactly 80 percent", 800, 1000, models.OnTrack},
		{"just above 80 percent", 800.01, 1000, models.Warning},
		{"95 percent", 9500, 10000, models.Warning},
		{"equal to budget", 1000, 1000, models.Warning},
		{"over budget", 10500, 10000, models.OverBudget},
		{"zero budget nothing spent", 0, 0, models.OnTrack},
		{"zero budget with spending", 1, 0, models.OverBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := models.BudgetCategory{BudgetAmount: tt.budget, SpentAmount: tt.spent}
			assert.Equal(t, tt.want, c.Status())
			assert.NotEqual(t, models.OverBudget, models.ClassifyBudget(tt.budget, tt.budget),
				"spent == budget is never over-budget")
		})
	}
}

func TestBudgetOverview(t *testing.T) {
	doc := models.DefaultFinancialDocument()
	doc.BudgetCategories = []models.BudgetCategory{
		{ID: "b1", Name: "Food", BudgetAmount: 1000, SpentAmount: 950},
		{ID: "b2", Name: "Rent", BudgetAmount: 2000, SpentAmount: 100},
		{ID: "b3", Name: "Fun", BudgetAmount: 0, SpentAmount: 50},
	}
	doc.MonthlyData = []models.MonthlyData{
		{ID: "m1", Month: "Jan", Budget: 500, Actual: 450},
		{ID: "m2", Month: "Feb", Budget: 500, Actual: 600},
	}

	o := BudgetOverview(doc)
	assert.Equal(t, 3000.0, o.TotalBudget)
	assert.Equal(t, 1100.0, o.TotalSpent)
	assert.Equal(t, 1900.0, o.Remaining)
	assert.InDelta(t, 1100.0/3000*100, o.Utilization, 1e-9)
	assert.Equal(t, map[models.BudgetStatus]int{models.OnTrack: 1, models.Warning: 1, models.OverBudget: 1}, o.StatusCounts)
	assert.Equal(t, -50.0, o.MonthlyVariance)

	require.Len(t, o.Lines, 3)
	assert.InDelta(t, 95.0, o.Lines[0].Percentage, 1e-9)
	assert.Zero(t, o.Lines[2].Percentage)
	assert.NotNil(t, o.Goals)

	empty := BudgetOverview(models.DefaultFinancialDocument())
	assert.Zero(t, empty.Utilization)
}

func TestAccountSummary(t *testing.T) {
	s := AccountSummary([]models.Account{
		{ID: "a", Type: models.AccountChecking, Balance: 100, Status: models.AccountActive},
		{ID: "b", Type: models.AccountChecking, Balance: 50, Status: models.AccountInactive},
		{ID: "c", Type: models.AccountCredit, Balance: -30, Status: models.AccountActive},
	})
	assert.Equal(t, 120.0, s.TotalBalance)
	assert.Equal(t, 2, s.ActiveCount)
	assert.Equal(t, 1, s.InactiveCount)
	assert.Equal(t, 150.0, s.ByType[models.AccountChecking])
	assert.Equal(t, -30.0, s.ByType[models.AccountCredit])
}

func TestCalculateMetrics(t *testing.T) {
	m := NewMetrics()
	ts := models.NewTransactionSet([]models.Transaction{
		txn("2026-08-01", models.Credit, 1000, "Salary", "Employer"),
		txn("2026-08-15", models.Debit, 400, "Rent", "Landlord"),
		txn("2026-09-01", models.Credit, 1000, "Salary", "Employer"),
		txn("2026-09-03", models.Debit, 250, "Food", "Market"),
	})

	got := m.CalculateMetrics(ts)
	assert.Equal(t, 2000.0, got.TotalIncome)
	assert.Equal(t, 650.0, got.TotalExpenses)
	assert.Equal(t, 1350.0, got.NetSavings)
	assert.InDelta(t, 67.5, got.SavingsRate, 1e-9)
	assert.Equal(t, 4, got.TransactionCount)
	assert.Equal(t, []string{"2026-08", "2026-09"}, got.TrendLabels)
	assert.Equal(t, []float64{600, 750}, got.SavingsTrend)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), got.StartDate)

	empty := m.CalculateMetrics(models.NewTransactionSet(nil))
	assert.Zero(t, empty.SavingsRate)
	assert.NotNil(t, empty.TrendLabels)
}

func TestCalculateComparison(t *testing.T) {
	m := NewMetrics()
	ts := models.NewTransactionSet([]models.Transaction{
		txn("2025-10-05", models.Credit, 500, "Salary", "Employer"),
		txn("2026-09-05", models.Credit, 800, "Salary", "Employer"),
		txn("2026-10-05", models.Credit, 1000, "Salary", "Employer"),
	})
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)

	prev := m.CalculateComparison(ts, start, end, ComparePrevious)
	require.True(t, prev.HasData)
	assert.InDelta(t, 25.0, prev.IncomeChange, 1e-9)

	year := m.CalculateComparison(ts, start, end, CompareYear)
	require.True(t, year.HasData)
	assert.InDelta(t, 100.0, year.IncomeChange, 1e-9)

	none := m.CalculateComparison(models.NewTransactionSet(nil), start, end, CompareYear)
	assert.False(t, none.HasData)

	assert.Nil(t, m.CalculateComparison(ts, start, end, "bogus"))
}

func TestPercentChange(t *testing.T) {
	m := NewMetrics()
	assert.Zero(t, m.PercentChange(0, 0))
	assert.Equal(t, 100.0, m.PercentChange(5, 0))
	assert.Equal(t, 50.0, m.PercentChange(150, 100))
	assert.Equal(t, 50.0, m.PercentChange(-50, -100))
}

func TestDashboard(t *testing.T) {
	doc := models.DefaultFinancialDocument()
	doc.TotalBalance = 42
	d := Dashboard(doc, models.USD)
	assert.Equal(t, 42.0, d.TotalBalance)
	assert.Equal(t, models.USD, d.Currency)
	assert.NotNil(t, d.Accounts)
	assert.NotNil(t, d.Budget)
	assert.NotNil(t, d.Metrics)
}
