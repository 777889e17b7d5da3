// Package finance implements every mutation of a user's financial document.
// Each operation is one atomic read-modify-write through the persistence store.
package finance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"blinq/internal/models"
	"blinq/internal/services/persistence"
)

var (
	// ErrInvalidInput is returned when a required field is missing or malformed
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when the target entity id does not exist
	ErrNotFound = errors.New("not found")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// Amount is a numeric input that accepts a JSON number or a string.
// Strings may carry currency symbols, grouping commas or accounting
// parentheses; anything unparsable reads as zero.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(models.ParseAmount(s))
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		f = 0
	}
	*a = Amount(f)
	return nil
}

// Float returns the value, zero for a nil pointer
func (a *Amount) Float() float64 {
	if a == nil {
		return 0
	}
	return float64(*a)
}

// Service applies mutations for a user
type Service struct {
	store *persistence.Store
	now   func() time.Time
}

// New creates a Service writing through store
func New(store *persistence.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the time source used for default dates
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) mutate(ctx context.Context, userID string, fn func(*models.FinancialDocument) error) error {
	_, _, err := s.store.UpdateFinancial(ctx, userID, fn)
	return err
}

// Document returns the user's financial document and its revision
func (s *Service) Document(ctx context.Context, userID string) (*models.FinancialDocument, string, error) {
	return s.store.LoadFinancial(ctx, userID)
}

// Replace overwrites the whole document if ifMatch is the current revision
func (s *Service) Replace(ctx context.Context, userID string, doc *models.FinancialDocument, ifMatch string) (string, error) {
	if doc == nil {
		return "", invalid("document is required")
	}
	if ifMatch == "" {
		return "", invalid("revision is required")
	}
	sanitize(doc)
	return s.store.SaveFinancial(ctx, userID, doc, ifMatch)
}

// Reset replaces the document with the empty default
func (s *Service) Reset(ctx context.Context, userID string) (*models.FinancialDocument, string, error) {
	return s.store.ResetFinancial(ctx, userID)
}

// SetMetric assigns one of the scalar dashboard figures
func (s *Service) SetMetric(ctx context.Context, userID, metric string, value Amount) (*models.FinancialDocument, error) {
	m := models.Metric(metric)
	if !models.DefaultFinancialDocument().SetMetric(m, 0) {
		return nil, invalid("unknown metric %q", metric)
	}

	doc, _, err := s.store.UpdateFinancial(ctx, userID, func(doc *models.FinancialDocument) error {
		doc.SetMetric(m, float64(value))
		return nil
	})
	return doc, err
}

// sanitize fills ids and enum defaults on an externally supplied document
func sanitize(doc *models.FinancialDocument) {
	doc.Normalize()

	for i := range doc.Accounts {
		a := &doc.Accounts[i]
		if a.ID == "" {
			a.ID = models.NewID()
		}
		if !a.Type.Valid() {
			a.Type = models.AccountChecking
		}
		if !a.Status.Valid() {
			a.Status = models.AccountActive
		}
	}
	for i := range doc.Transactions {
		if doc.Transactions[i].ID == "" {
			doc.Transactions[i].ID = models.NewID()
		}
	}
	for i := range doc.BudgetCategories {
		c := &doc.BudgetCategories[i]
		if c.ID == "" {
			c.ID = models.NewID()
		}
		if !c.Period.Valid() {
			c.Period = models.PeriodMonthly
		}
	}
	for i := range doc.BudgetGoals {
		if doc.BudgetGoals[i].ID == "" {
			doc.BudgetGoals[i].ID = models.NewID()
		}
	}
	for i := range doc.SavingsGoals {
		if doc.SavingsGoals[i].ID == "" {
			doc.SavingsGoals[i].ID = models.NewID()
		}
	}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s is required", field)
	}
	return nil
}

// indexOf returns the position of the element whose id matches, or -1
func indexOf[T any](items []T, id func(T) string, want string) int {
	for i := range items {
		if id(items[i]) == want {
			return i
		}
	}
	return -1
}

// remove deletes the element with id want, reporting whether it existed
func remove[T any](items []T, id func(T) string, want string) ([]T, bool) {
	i := indexOf(items, id, want)
	if i < 0 {
		return items, false
	}
	return append(items[:i], items[i+1:]...), true
}
