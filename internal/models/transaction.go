package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ComputeHash fingerprints a transaction for duplicate detection on import
func (t *Transaction) ComputeHash() string {
	dateStr := t.Date
	if parsed, ok := t.Time(); ok {
		dateStr = parsed.Format("2006-01-02")
	}
	desc := strings.ToLower(strings.TrimSpace(t.Description))
	amount := fmt.Sprintf("%.2f", t.Amount)

	input := fmt.Sprintf("%s|%s|%s|%s", dateStr, desc, amount, t.Type)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:8])
}

// TransactionSet wraps a slice with filtering/aggregation methods
type TransactionSet struct {
	Transactions []Transaction
}

// NewTransactionSet creates a new TransactionSet from a slice
func NewTransactionSet(transactions []Transaction) *TransactionSet {
	return &TransactionSet{Transactions: transactions}
}

// Len returns the number of transactions
func (ts *TransactionSet) Len() int {
	return len(ts.Transactions)
}

// Income returns the credit entries
func (ts *TransactionSet) Income() *TransactionSet {
	return ts.filter(Transaction.IsIncome)
}

// Expenses returns the debit entries
func (ts *TransactionSet) Expenses() *TransactionSet {
	return ts.filter(Transaction.IsExpense)
}

// FilterByAccount returns transactions booked on the account
func (ts *TransactionSet) FilterByAccount(accountID string) *TransactionSet {
	return ts.filter(func(t Transaction) bool {
		return t.AccountID == accountID
	})
}

// FilterByCategory returns transactions matching the category, case-insensitively
func (ts *TransactionSet) FilterByCategory(category string) *TransactionSet {
	return ts.filter(func(t Transaction) bool {
		return strings.EqualFold(t.Category, category)
	})
}

// FilterByDateRange returns transactions within the date range (inclusive, whole days).
// Transactions with unparsable dates are dropped.
func (ts *TransactionSet) FilterByDateRange(start, end time.Time) *TransactionSet {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 999999999, time.UTC)

	return ts.filter(func(t Transaction) bool {
		d, ok := t.Time()
		if !ok {
			return false
		}
		day := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC)
		return !day.Before(startDay) && !day.After(endDay)
	})
}

func (ts *TransactionSet) filter(keep func(Transaction) bool) *TransactionSet {
	result := &TransactionSet{}
	for _, t := range ts.Transactions {
		if keep(t) {
			result.Transactions = append(result.Transactions, t)
		}
	}
	return result
}

// SumAmount returns the sum of all transaction amounts
func (ts *TransactionSet) SumAmount() float64 {
	var sum float64
	for _, t := range ts.Transactions {
		sum += t.Amount
	}
	return sum
}

// GroupByMonth groups transactions by "2006-01" month key
func (ts *TransactionSet) GroupByMonth() map[string]*TransactionSet {
	result := make(map[string]*TransactionSet)
	for _, t := range ts.Transactions {
		d, ok := t.Time()
		if !ok {
			continue
		}
		month := d.Format("2006-01")
		if result[month] == nil {
			result[month] = &TransactionSet{}
		}
		result[month].Transactions = append(result[month].Transactions, t)
	}
	return result
}

// MinDate returns the earliest parsable transaction date
func (ts *TransactionSet) MinDate() time.Time {
	var minDate time.Time
	for _, t := range ts.Transactions {
		if d, ok := t.Time(); ok && (minDate.IsZero() || d.Before(minDate)) {
			minDate = d
		}
	}
	return minDate
}

// MaxDate returns the latest parsable transaction date
func (ts *TransactionSet) MaxDate() time.Time {
	var maxDate time.Time
	for _, t := range ts.Transactions {
		if d, ok := t.Time(); ok && d.After(maxDate) {
			maxDate = d
		}
	}
	return maxDate
}

// Hashes returns the duplicate-detection fingerprints of the set
func (ts *TransactionSet) Hashes() map[string]bool {
	seen := make(map[string]bool, len(ts.Transactions))
	for i := range ts.Transactions {
		seen[ts.Transactions[i].ComputeHash()] = true
	}
	return seen
}

// FilterBySearch returns transactions whose description or category contains query, case-insensitively
func (ts *TransactionSet) FilterBySearch(query string) *TransactionSet {
	query = strings.ToLower(strings.TrimSpace(query))
	return ts.filter(func(t Transaction) bool {
		return strings.Contains(strings.ToLower(t.Description), query) ||
			strings.Contains(strings.ToLower(t.Category), query)
	})
}

// FilterByType returns transactions of the given entry type
func (ts *TransactionSet) FilterByType(e EntryType) *TransactionSet {
	return ts.filter(func(t Transaction) bool {
		return t.Type == e
	})
}

// Categories returns the distinct non-empty categories, sorted
func (ts *TransactionSet) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, t := range ts.Transactions {
		if t.Category != "" && !seen[t.Category] {
			seen[t.Category] = true
			cats = append(cats, t.Category)
		}
	}
	slices.Sort(cats)
	return cats
}

// TotalPages returns the number of pages of perPage transactions
func (ts *TransactionSet) TotalPages(perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (len(ts.Transactions) + perPage - 1) / perPage
}

// Paginate returns page (1-based) of perPage transactions
func (ts *TransactionSet) Paginate(page, perPage int) *TransactionSet {
	start := (page - 1) * perPage
	if page < 1 || perPage <= 0 || start >= len(ts.Transactions) {
		return &TransactionSet{Transactions: []Transaction{}}
	}
	end := min(start+perPage, len(ts.Transactions))
	return &TransactionSet{Transactions: ts.Transactions[start:end]}
}
