package finance

import (
	"context"
	"strings"

	"blinq/internal/models"
)

const (
	defaultSavingsIcon  = "Target"
	defaultSavingsColor = "bg-blue-500"
	defaultChartColor   = "#8884d8"
)

// SavingsGoalInput is the editable part of a savings goal
type SavingsGoalInput struct {
	Name          string  `json:"name"`
	CurrentAmount Amount  `json:"currentAmount"`
	TargetAmount  *Amount `json:"targetAmount"`
	Icon          string  `json:"icon"`
	Color         string  `json:"color"`
	Deadline      string  `json:"deadline"`
}

func (in SavingsGoalInput) validate() error {
	if err := required("name", in.Name); err != nil {
		return err
	}
	if in.TargetAmount == nil {
		return invalid("targetAmount is required")
	}
	return validDeadline(in.Deadline)
}

func (in SavingsGoalInput) apply(g *models.SavingsGoal) {
	g.Name = strings.TrimSpace(in.Name)
	g.CurrentAmount = float64(in.CurrentAmount)
	g.TargetAmount = in.TargetAmount.Float()
	g.Icon = orDefault(in.Icon, defaultSavingsIcon)
	g.Color = orDefault(in.Color, defaultSavingsColor)
	g.Deadline = strings.TrimSpace(in.Deadline)
}

func savingsGoalID(g models.SavingsGoal) string { return g.ID }

// AddSavingsGoal appends a savings goal
func (s *Service) AddSavingsGoal(ctx context.Context, userID string, in SavingsGoalInput) (*models.SavingsGoal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	g := models.SavingsGoal{ID: models.NewID()}
	in.apply(&g)

	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		doc.SavingsGoals = append(doc.SavingsGoals, g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateSavingsGoal replaces the editable fields of a savings goal
func (s *Service) UpdateSavingsGoal(ctx context.Context, userID, id string, in SavingsGoalInput) (*models.SavingsGoal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated models.SavingsGoal
	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		i := indexOf(doc.SavingsGoals, savingsGoalID, id)
		if i < 0 {
			return notFound("savings goal", id)
		}
		in.apply(&doc.SavingsGoals[i])
		updated = doc.SavingsGoals[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSavingsGoal removes a savings goal
func (s *Service) DeleteSavingsGoal(ctx context.Context, userID, id string) error {
	return s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		goals, ok := remove(doc.SavingsGoals, savingsGoalID, id)
		if !ok {
			return notFound("savings goal", id)
		}
		doc.SavingsGoals = goals
		return nil
	})
}

// ExpenseCategoryInput is a slice of the expense pie chart
type ExpenseCategoryInput struct {
	Name  string  `json:"name"`
	Value *Amount `json:"value"`
	Color string  `json:"color"`
}

func (in ExpenseCategoryInput) validate() error {
	if err := required("name", in.Name); err != nil {
		return err
	}
	if in.Value == nil {
		return invalid("value is required")
	}
	return nil
}

func (in ExpenseCategoryInput) apply(c *models.ExpenseCategory) {
	c.Name = strings.TrimSpace(in.Name)
	c.Value = in.Value.Float()
	c.Color = orDefault(in.Color, defaultChartColor)
}

func expenseCategoryID(c models.ExpenseCategory) string { return c.ID }

// AddExpenseCategory appends a slice to the expense chart
func (s *Service) AddExpenseCategory(ctx context.Context, userID string, in ExpenseCategoryInput) (*models.ExpenseCategory, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := models.ExpenseCategory{ID: models.NewID()}
	in.apply(&c)

	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		doc.ExpenseCategories = append(doc.ExpenseCategories, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateExpenseCategory replaces a slice of the expense chart
func (s *Service) UpdateExpenseCategory(ctx context.Context, userID, id string, in ExpenseCategoryInput) (*models.ExpenseCategory, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated models.ExpenseCategory
	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		i := indexOf(doc.ExpenseCategories, expenseCategoryID, id)
		if i < 0 {
			return notFound("expense category", id)
		}
		in.apply(&doc.ExpenseCategories[i])
		updated = doc.ExpenseCategories[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteExpenseCategory removes a slice of the expense chart
func (s *Service) DeleteExpenseCategory(ctx context.Context, userID, id string) error {
	return s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		categories, ok := remove(doc.ExpenseCategories, expenseCategoryID, id)
		if !ok {
			return notFound("expense category", id)
		}
		doc.ExpenseCategories = categories
		return nil
	})
}

// MonthlyDataInput is a budget-versus-actual point
type MonthlyDataInput struct {
	Month  string `json:"month"`
	Budget Amount `json:"budget"`
	Actual Amount `json:"actual"`
}

func (in MonthlyDataInput) apply(m *models.MonthlyData) {
	m.Month = strings.TrimSpace(in.Month)
	m.Budget = float64(in.Budget)
	m.Actual = float64(in.Actual)
}

func monthlyDataID(m models.MonthlyData) string { return m.ID }

// AddMonthlyData appends a budget-versus-actual point
func (s *Service) AddMonthlyData(ctx context.Context, userID string, in MonthlyDataInput) (*models.MonthlyData, error) {
	if err := required("month", in.Month); err != nil {
		return nil, err
	}

	m := models.MonthlyData{ID: models.NewID()}
	in.apply(&m)

	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		doc.MonthlyData = append(doc.MonthlyData, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMonthlyData replaces a budget-versus-actual point
func (s *Service) UpdateMonthlyData(ctx context.Context, userID, id string, in MonthlyDataInput) (*models.MonthlyData, error) {
	if err := required("month", in.Month); err != nil {
		return nil, err
	}

	var updated models.MonthlyData
	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		i := indexOf(doc.MonthlyData, monthlyDataID, id)
		if i < 0 {
			return notFound("monthly data", id)
		}
		in.apply(&doc.MonthlyData[i])
		updated = doc.MonthlyData[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteMonthlyData removes a budget-versus-actual point
func (s *Service) DeleteMonthlyData(ctx context.Context, userID, id string) error {
	return s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		points, ok := remove(doc.MonthlyData, monthlyDataID, id)
		if !ok {
			return notFound("monthly data", id)
		}
		doc.MonthlyData = points
		return nil
	})
}

// SpendingDataInput is a point on the spending trends chart
type SpendingDataInput struct {
	Month    string `json:"month"`
	Income   Amount `json:"income"`
	Expenses Amount `json:"expenses"`
	Savings  Amount `json:"savings"`
}

func (in SpendingDataInput) apply(p *models.SpendingData) {
	p.Month = strings.TrimSpace(in.Month)
	p.Income = float64(in.Income)
	p.Expenses = float64(in.Expenses)
	p.Savings = float64(in.Savings)
}

func spendingDataID(p models.SpendingData) string { return p.ID }

// AddSpendingData appends a spending trends point
func (s *Service) AddSpendingData(ctx context.Context, userID string, in SpendingDataInput) (*models.SpendingData, error) {
	if err := required("month", in.Month); err != nil {
		return nil, err
	}

	p := models.SpendingData{ID: models.NewID()}
	in.apply(&p)

	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		doc.SpendingData = append(doc.SpendingData, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateSpendingData replaces a spending trends point
func (s *Service) UpdateSpendingData(ctx context.Context, userID, id string, in SpendingDataInput) (*models.SpendingData, error) {
	if err := required("month", in.Month); err != nil {
		return nil, err
	}

	var updated models.SpendingData
	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		i := indexOf(doc.SpendingData, spendingDataID, id)
		if i < 0 {
			return notFound("spending data", id)
		}
		in.apply(&doc.SpendingData[i])
		updated = doc.SpendingData[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSpendingData removes a spending trends point
func (s *Service) DeleteSpendingData(ctx context.Context, userID, id string) error {
	return s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		points, ok := remove(doc.SpendingData, spendingDataID, id)
		if !ok {
			return notFound("spending data", id)
		}
		doc.SpendingData = points
		return nil
	})
}
