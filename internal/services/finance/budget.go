package finance

import (
	"context"
	"strings"

	"blinq/internal/models"
)

const (
	defaultBudgetIcon   = "ShoppingCart"
	defaultBudgetColor  = "primary"
	defaultGoalCategory = "General"
)

// BudgetCategoryInput is the editable part of a budget category
type BudgetCategoryInput struct {
	Name         string              `json:"name"`
	Icon         string              `json:"icon"`
	BudgetAmount *Amount             `json:"budgetAmount"`
	SpentAmount  Amount              `json:"spentAmount"`
	Color        string              `json:"color"`
	Period       models.BudgetPeriod `json:"period"`
}

func (in BudgetCategoryInput) validate() error {
	if err := required("name", in.Name); err != nil {
		return err
	}
	if in.BudgetAmount == nil {
		return invalid("budgetAmount is required")
	}
	if in.Period != "" && !in.Period.Valid() {
		return invalid("unknown period %q", in.Period)
	}
	return nil
}

func (in BudgetCategoryInput) apply(c *models.BudgetCategory) {
	c.Name = strings.TrimSpace(in.Name)
	c.Icon = orDefault(in.Icon, defaultBudgetIcon)
	c.BudgetAmount = in.BudgetAmount.Float()
	c.SpentAmount = float64(in.SpentAmount)
	c.Color = orDefault(in.Color, defaultBudgetColor)
	c.Period = in.Period
	if c.Period == "" {
		c.Period = models.PeriodMonthly
	}
}

func budgetCategoryID(c models.BudgetCategory) string { return c.ID }

// AddBudgetCategory appends a budget category. Its status is derived from
// the amounts whenever it is read.
func (s *Service) AddBudgetCategory(ctx context.Context, userID string, in BudgetCategoryInput) (*models.BudgetCategory, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := models.BudgetCategory{ID: models.NewID()}
	in.apply(&c)

	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		doc.BudgetCategories = append(doc.BudgetCategories, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateBudgetCategory replaces the editable fields of a budget category
func (s *Service) UpdateBudgetCategory(ctx context.Context, userID, id string, in BudgetCategoryInput) (*models.BudgetCategory, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated models.BudgetCategory
	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		i := indexOf(doc.BudgetCategories, budgetCategoryID, id)
		if i < 0 {
			return notFound("budget category", id)
		}
		in.apply(&doc.BudgetCategories[i])
		updated = doc.BudgetCategories[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteBudgetCategory removes a budget category
func (s *Service) DeleteBudgetCategory(ctx context.Context, userID, id string) error {
	return s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		categories, ok := remove(doc.BudgetCategories, budgetCategoryID, id)
		if !ok {
			return notFound("budget category", id)
		}
		doc.BudgetCategories = categories
		return nil
	})
}

// BudgetGoalInput is the editable part of a budget goal
type BudgetGoalInput struct {
	Title         string  `json:"title"`
	TargetAmount  *Amount `json:"targetAmount"`
	CurrentAmount Amount  `json:"currentAmount"`
	Deadline      string  `json:"deadline"`
	Category      string  `json:"category"`
}

func (in BudgetGoalInput) validate() error {
	if err := required("title", in.Title); err != nil {
		return err
	}
	if in.TargetAmount == nil {
		return invalid("targetAmount is required")
	}
	return validDeadline(in.Deadline)
}

func (in BudgetGoalInput) apply(g *models.BudgetGoal) {
	g.Title = strings.TrimSpace(in.Title)
	g.TargetAmount = in.TargetAmount.Float()
	g.CurrentAmount = float64(in.CurrentAmount)
	g.Deadline = strings.TrimSpace(in.Deadline)
	g.Category = orDefault(in.Category, defaultGoalCategory)
}

func budgetGoalID(g models.BudgetGoal) string { return g.ID }

// AddBudgetGoal appends a budget goal
func (s *Service) AddBudgetGoal(ctx context.Context, userID string, in BudgetGoalInput) (*models.BudgetGoal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	g := models.BudgetGoal{ID: models.NewID()}
	in.apply(&g)

	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		doc.BudgetGoals = append(doc.BudgetGoals, g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateBudgetGoal replaces the editable fields of a budget goal
func (s *Service) UpdateBudgetGoal(ctx context.Context, userID, id string, in BudgetGoalInput) (*models.BudgetGoal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated models.BudgetGoal
	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		i := indexOf(doc.BudgetGoals, budgetGoalID, id)
		if i < 0 {
			return notFound("budget goal", id)
		}
		in.apply(&doc.BudgetGoals[i])
		updated = doc.BudgetGoals[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteBudgetGoal removes a budget goal
func (s *Service) DeleteBudgetGoal(ctx context.Context, userID, id string) error {
	return s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		goals, ok := remove(doc.BudgetGoals, budgetGoalID, id)
		if !ok {
			return notFound("budget goal", id)
		}
		doc.BudgetGoals = goals
		return nil
	})
}

func orDefault(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}

func validDeadline(deadline string) error {
	if d := strings.TrimSpace(deadline); d != "" {
		if _, ok := models.ParseDate(d); !ok {
			return invalid("unparsable deadline %q", deadline)
		}
	}
	return nil
}
