package reports

import (
	"blinq/internal/models"
)

// BudgetOverview totals the budget categories and classifies each one
func BudgetOverview(doc *models.FinancialDocument) *models.BudgetOverview {
	o := &models.BudgetOverview{
		StatusCounts: map[models.BudgetStatus]int{
			models.OnTrack:    0,
			models.Warning:    0,
			models.OverBudget: 0,
		},
		Lines: make([]models.BudgetLine, 0, len(doc.BudgetCategories)),
		Goals: doc.BudgetGoals,
	}
	if o.Goals == nil {
		o.Goals = []models.BudgetGoal{}
	}

	for _, c := range doc.BudgetCategories {
		o.TotalBudget += c.BudgetAmount
		o.TotalSpent += c.SpentAmount

		status := c.Status()
		o.StatusCounts[status]++
		o.Lines = append(o.Lines, models.BudgetLine{
			ID:         c.ID,
			Name:       c.Name,
			Period:     c.Period,
			Budget:     c.BudgetAmount,
			Spent:      c.SpentAmount,
			Remaining:  c.BudgetAmount - c.SpentAmount,
			Percentage: c.Percentage(),
			Status:     status,
		})
	}

	o.Remaining = o.TotalBudget - o.TotalSpent
	if o.TotalBudget != 0 {
		o.Utilization = o.TotalSpent / o.TotalBudget * 100
	}

	for _, m := range doc.MonthlyData {
		o.MonthlyVariance += m.Difference()
	}
	return o
}

// AccountSummary totals balances overall and per account type
func AccountSummary(accounts []models.Account) *models.AccountSummary {
	s := &models.AccountSummary{ByType: map[models.AccountType]float64{}}
	for _, a := range accounts {
		s.TotalBalance += a.Balance
		s.ByType[a.Type] += a.Balance
		if a.Status == models.AccountInactive {
			s.InactiveCount++
		} else {
			s.ActiveCount++
		}
	}
	return s
}

// Dashboard assembles the dashboard payload. The scalar figures are the
// user-maintained values; metrics are computed from the transactions.
func Dashboard(doc *models.FinancialDocument, currency models.Currency) *models.Dashboard {
	metrics := NewMetrics()
	return &models.Dashboard{
		TotalBalance:      doc.TotalBalance,
		MonthlyIncome:     doc.MonthlyIncome,
		MonthlyExpenses:   doc.MonthlyExpenses,
		Savings:           doc.Savings,
		Investments:       doc.Investments,
		Debt:              doc.Debt,
		SavingsGoals:      doc.SavingsGoals,
		ExpenseCategories: doc.ExpenseCategories,
		MonthlyData:       doc.MonthlyData,
		SpendingData:      doc.SpendingData,
		Accounts:          AccountSummary(doc.Accounts),
		Budget:            BudgetOverview(doc),
		Metrics:           metrics.CalculateMetrics(models.NewTransactionSet(doc.Transactions)),
		Currency:          currency,
	}
}
