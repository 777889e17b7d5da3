package finance

import (
	"context"
	"strings"

	"blinq/internal/models"
)

// TransactionInput is the editable part of a transaction
type TransactionInput struct {
	AccountID   string           `json:"accountId"`
	Amount      Amount           `json:"amount"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
	Type        models.EntryType `json:"type"`
	Category    string           `json:"category"`
}

func (s *Service) buildTransaction(in TransactionInput, t *models.Transaction) error {
	if err := required("accountId", in.AccountID); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return invalid("type must be %q or %q", models.Credit, models.Debit)
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = s.now().Format("2006-01-02")
	} else if _, ok := models.ParseDate(date); !ok {
		return invalid("unparsable date %q", in.Date)
	}

	t.AccountID = in.AccountID
	t.Amount = float64(in.Amount)
	t.Description = strings.TrimSpace(in.Description)
	t.Date = date
	t.Type = in.Type
	t.Category = strings.TrimSpace(in.Category)
	return nil
}

func transactionID(t models.Transaction) string { return t.ID }

// refreshLastTransaction points the account's snapshot at its latest entry
func refreshLastTransaction(doc *models.FinancialDocument, accountID string) {
	i := doc.FindAccount(accountID)
	if i < 0 {
		return
	}

	var latest *models.Transaction
	for j := range doc.Transactions {
		t := &doc.Transactions[j]
		if t.AccountID != accountID {
			continue
		}
		if latest == nil || !dateBefore(t.Date, latest.Date) {
			latest = t
		}
	}

	if latest == nil {
		doc.Accounts[i].LastTransaction = nil
		return
	}
	doc.Accounts[i].LastTransaction = latest.Snapshot()
}

// dateBefore orders parsable dates first by time; unparsable dates sort first
func dateBefore(a, b string) bool {
	ta, okA := models.ParseDate(a)
	tb, okB := models.ParseDate(b)
	switch {
	case !okA:
		return okB
	case !okB:
		return false
	}
	return ta.Before(tb)
}

// AddTransaction books a transaction on an existing account
func (s *Service) AddTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error) {
	t := models.Transaction{ID: models.NewID()}
	if err := s.buildTransaction(in, &t); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		if doc.FindAccount(t.AccountID) < 0 {
			return notFound("account", t.AccountID)
		}
		doc.Transactions = append(doc.Transactions, t)
		refreshLastTransaction(doc, t.AccountID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTransaction replaces the editable fields of a transaction
func (s *Service) UpdateTransaction(ctx context.Context, userID, id string, in TransactionInput) (*models.Transaction, error) {
	var updated models.Transaction
	if err := s.buildTransaction(in, &updated); err != nil {
		return nil, err
	}
	updated.ID = id

	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		i := indexOf(doc.Transactions, transactionID, id)
		if i < 0 {
			return notFound("transaction", id)
		}
		if doc.FindAccount(updated.AccountID) < 0 {
			return notFound("account", updated.AccountID)
		}

		previous := doc.Transactions[i].AccountID
		doc.Transactions[i] = updated
		refreshLastTransaction(doc, updated.AccountID)
		if previous != updated.AccountID {
			refreshLastTransaction(doc, previous)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTransaction removes a transaction
func (s *Service) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		i := indexOf(doc.Transactions, transactionID, id)
		if i < 0 {
			return notFound("transaction", id)
		}
		accountID := doc.Transactions[i].AccountID
		doc.Transactions = append(doc.Transactions[:i], doc.Transactions[i+1:]...)
		refreshLastTransaction(doc, accountID)
		return nil
	})
}

// Transactions lists transactions, optionally only those of one account
func (s *Service) Transactions(ctx context.Context, userID, accountID string) ([]models.Transaction, error) {
	doc, _, err := s.store.LoadFinancial(ctx, userID)
	if err != nil {
		return nil, err
	}
	if accountID == "" {
		return doc.Transactions, nil
	}
	if doc.FindAccount(accountID) < 0 {
		return nil, notFound("account", accountID)
	}

	txns := models.NewTransactionSet(doc.Transactions).FilterByAccount(accountID).Transactions
	if txns == nil {
		txns = []models.Transaction{}
	}
	return txns, nil
}

// ImportResult reports the outcome of an import
type ImportResult struct {
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
}

// ImportTransactions appends parsed transactions to an account, skipping
// any whose fingerprint is already present on the account or earlier in
// the batch
func (s *Service) ImportTransactions(ctx context.Context, userID, accountID string, txns []models.Transaction) (*ImportResult, error) {
	var result ImportResult

	err := s.mutate(ctx, userID, func(doc *models.FinancialDocument) error {
		result = ImportResult{}
		if doc.FindAccount(accountID) < 0 {
			return notFound("account", accountID)
		}

		seen := models.NewTransactionSet(doc.Transactions).FilterByAccount(accountID).Hashes()
		for _, t := range txns {
			t.AccountID = accountID
			if t.ID == "" {
				t.ID = models.NewID()
			}
			h := t.ComputeHash()
			if seen[h] {
				result.Duplicates++
				continue
			}
			seen[h] = true
			doc.Transactions = append(doc.Transactions, t)
			result.Imported++
		}

		if result.Imported > 0 {
			refreshLastTransaction(doc, accountID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
