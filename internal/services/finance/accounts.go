package finance

import (
	"context"
	"strings"

	"blinq/internal/models"
)

// AccountInput is the editable part of an account
type AccountInput struct {
	Name          string               `json:"name"`
	Type          models.AccountType   `json:"type"`
	Balance       Amount               `json:"balance"`
	AccountNumber string               `json:"accountNumber"`
	Bank          string               `json:"bank"`
	Status        models.AccountStatus `json:"status"`
}

func (in AccountInput) validate() error {
	if err := required("name", in.Name); err != nil {
		return err
	}
	if err := required("accountNumber", in.AccountNumber); err != nil {
		return err
	}
	if err := required("bank", in.Bank); err != nil {
		return err
	}
	if in.Type != "" && !in.Type.Valid() {
		return invalid("unknown account type %q", in.Type)
	}
	if in.Status != "" && !in.Status.Valid() {
		return invalid("unknown account status %q", in.Status)
	}
	return nil
}

func (in AccountInput) apply(a *models.Account) {
	a.Name = strings.TrimSpace(in.Name)
	a.Type = in.Type
	if a.Type == "" {
		a.Type = models.AccountChecking
	}
	a.Balance = float64(in.Balance)
	a.AccountNumber = strings.TrimSpace(in.AccountNumber)
	a.Bank = strings.TrimSpace(in.Bank)
	a.Status = in.Status
	if a.Status == "" {
		a.Status = models.AccountActive
	}
}

func accountID(a models.Account) string { return a.ID }

// AddAccount appends a new account
func (s *Service) AddAccount(ctx context.Context, userID string, in AccountInput) (*models.Account, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	acct := models.Account{ID: models.NewID()}
	in.apply(&acct)

	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		doc.Accounts = append(doc.Accounts, acct)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// UpdateAccount replaces the editable fields of an account
func (s *Service) UpdateAccount(ctx context.Context, userID, id string, in AccountInput) (*models.Account, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated models.Account
	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		i := doc.FindAccount(id)
		if i < 0 {
			return notFound("account", id)
		}
		in.apply(&doc.Accounts[i])
		updated = doc.Accounts[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAccount removes an account and every transaction booked on it
func (s *Service) DeleteAccount(ctx context.Context, userID, id string) error {
	return s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		accounts, ok := remove(doc.Accounts, accountID, id)
		if !ok {
			return notFound("account", id)
		}
		doc.Accounts = accounts

		kept := doc.Transactions[:0]
		for _, t := range doc.Transactions {
			if t.AccountID != id {
				kept = append(kept, t)
			}
		}
		doc.Transactions = kept
		return nil
	})
}

// Accounts lists the user's accounts
func (s *Service) Accounts(ctx context.Context, userID string) ([]models.Account, error) {
	doc, _, err := s.store.LoadFinancial(ctx, userID)
	if err != nil {
		return nil, err
	}
	return doc.Accounts, nil
}
