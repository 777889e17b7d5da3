package importer

import (
	"slices"
	"strings"
	"unicode"

	"blinq/internal/models"
)

// incomeKeywords mark a description as income (lowercase)
var incomeKeywords = []string{
	"payroll", "salary", "paycheck",
	"deposit direct", "direct deposit", "direct dep",
	"refund", "cashback", "cash back",
	"dividend", "interest earned", "interest",
	"bonus", "tax refund", "rebate",
	"transfer in", "check deposit",
	"payment received", "reimbursement", "settlement",
	"gift received", "freelance", "commission",
	"income", "wages", "earnings", "employer", "net pay",
}

// incomeCategories mark a category as income (lowercase, substring match)
var incomeCategories = []string{
	"paycheck", "salary", "income",
	"wages", "payroll", "earnings",
	"dividend", "interest", "refund",
	"deposit", "reimbursement",
}

// neverIncomeKeywords always mean money out (lowercase)
var neverIncomeKeywords = []string{
	"credit card payment", "cc payment", "card payment", "payment to",
	"loan payment", "mortgage payment", "bill payment", "autopay",
	"scheduled payment", "recurring payment", "transfer to", "withdrawal",
	"fee", "fees", "charge", "charges", "penalty", "subscription", "membership",
	"automatic payment",
}

// internalTransferPatterns are moves between the user's own accounts (lowercase)
var internalTransferPatterns = []string{
	"funds transfer",
	"internal transfer",
	"credit card payment",
	"automatic payment - thank you",
	"cc payment",
	"recurring scheduled payment",
}

// classify decides the entry type of a row. signed reports whether the
// file marks money out with negative amounts; in unsigned files a positive
// amount only counts as a credit when it looks like income. Keywords match
// whole words, and a bank Type column overrides them.
func classify(r row, signed bool) models.EntryType {
	if r.amount < 0 {
		return models.Debit
	}
	if r.direction.Valid() {
		return r.direction
	}
	if containsAny(words(r.description), neverIncomeKeywords) {
		return models.Debit
	}
	if r.amount > 0 && (signed || looksLikeIncome(r)) {
		return models.Credit
	}
	return models.Debit
}

func looksLikeIncome(r row) bool {
	cat := strings.ToLower(r.category)

	for _, c := range incomeCategories {
		if strings.Contains(cat, c) {
			return true
		}
	}
	return containsAny(words(r.description), incomeKeywords)
}

// isInternalTransfer reports rows that only move money between own accounts
func isInternalTransfer(r row) bool {
	desc := words(r.description)

	for _, pattern := range internalTransferPatterns {
		if containsAny(desc, []string{pattern}) {
			if r.amount > 0 && containsAny(desc, incomeKeywords) {
				return false
			}
			return true
		}
	}
	return strings.ToLower(r.category) == "credit card payment"
}

// directionHints map bank "Type" column values to an entry type
var directionHints = map[string]models.EntryType{
	"debit": models.Debit, "dr": models.Debit, "withdrawal": models.Debit, "purchase": models.Debit,
	"credit": models.Credit, "cr": models.Credit, "deposit": models.Credit,
}

func parseDirection(s string) models.EntryType {
	return directionHints[strings.ToLower(strings.TrimSpace(s))]
}

// words splits text into lowercase letter/digit runs
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsAny reports whether any keyword phrase appears in ws as whole words
func containsAny(ws []string, keywords []string) bool {
	for _, kw := range keywords {
		phrase := words(kw)
		if len(phrase) == 0 {
			continue
		}
		for i := 0; i+len(phrase) <= len(ws); i++ {
			if slices.Equal(ws[i:i+len(phrase)], phrase) {
				return true
			}
		}
	}
	return false
}
