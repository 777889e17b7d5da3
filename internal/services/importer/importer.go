// Package importer turns bank CSV exports into account transactions.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"time"

	"blinq/internal/models"
)

// columnMappings maps common bank export column names to our standard names.
// Matching is case-insensitive.
var columnMappings = map[string][]string{
	"Date": {
		"date", "transaction date", "posted date", "post date",
		"trans date", "posting date", "value date",
	},
	"Description": {
		"description", "memo", "details", "payee", "name",
		"transaction description", "merchant", "narrative", "narration",
	},
	"Amount": {
		"amount", "value", "transaction amount", "sum",
	},
	"Category": {
		"category", "category name",
	},
	"Type": {
		"type", "transaction type", "dr/cr", "debit/credit", "credit/debit",
	},
	"Debit": {
		"debit", "withdrawal", "withdrawals", "money out", "expense",
	},
	"Credit": {
		"credit", "deposit", "deposits", "money in", "income",
	},
}

// normalizeColumnName maps a bank export column name to our standard name
func normalizeColumnName(col string) string {
	col = strings.TrimSpace(col)
	lower := strings.ToLower(col)
	for standard, variants := range columnMappings {
		for _, variant := range variants {
			if lower == variant {
				return standard
			}
		}
	}
	return col
}

// buildColumnIndex creates a normalized column index from CSV headers.
// The first matching column wins.
func buildColumnIndex(header []string) map[string]int {
	colIndex := make(map[string]int)
	for i, col := range header {
		normalized := normalizeColumnName(strings.TrimPrefix(col, "\ufeff"))
		if _, exists := colIndex[normalized]; !exists {
			colIndex[normalized] = i
		}
	}
	return colIndex
}

// Result is the outcome of parsing one file
type Result struct {
	Transactions []models.Transaction
	Skipped      int // unreadable rows or dates
	Transfers    int // internal transfers dropped
	Duplicates   int // repeated rows within the file
}

// Parse reads a CSV export. Each row is classified as credit or debit,
// internal transfers are dropped and repeated rows are removed. Amounts
// are stored as positive numbers.
func Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	colIndex := buildColumnIndex(header)

	_, hasAmount := colIndex["Amount"]
	_, hasDebit := colIndex["Debit"]
	_, hasCredit := colIndex["Credit"]
	useDebitCredit := !hasAmount && (hasDebit || hasCredit)

	if _, ok := colIndex["Date"]; !ok {
		return nil, fmt.Errorf("missing required column: Date (tried: %v)", columnMappings["Date"])
	}
	if _, ok := colIndex["Description"]; !ok {
		return nil, fmt.Errorf("missing required column: Description (tried: %v)", columnMappings["Description"])
	}
	if !hasAmount && !useDebitCredit {
		return nil, fmt.Errorf("missing required column: Amount or Debit/Credit (tried: %v)", columnMappings["Amount"])
	}

	result := &Result{Transactions: []models.Transaction{}}
	var rows []row
	signed := useDebitCredit
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			log.Printf("Warning: error reading line %d: %v", lineNum, err)
			result.Skipped++
			continue
		}

		dateStr := field(record, colIndex, "Date")
		date, ok := parseDate(dateStr)
		if !ok {
			log.Printf("Warning: could not parse date '%s' on line %d", dateStr, lineNum)
			result.Skipped++
			continue
		}

		rw := row{
			date:        date,
			description: field(record, colIndex, "Description"),
			category:    field(record, colIndex, "Category"),
			direction:   parseDirection(field(record, colIndex, "Type")),
		}
		if useDebitCredit {
			rw.amount = parseDebitCredit(record, colIndex)
		} else {
			rw.amount = models.ParseAmount(field(record, colIndex, "Amount"))
		}
		if rw.amount < 0 {
			signed = true
		}
		rows = append(rows, rw)
	}

	seen := make(map[string]bool)
	for _, rw := range rows {
		if isInternalTransfer(rw) {
			result.Transfers++
			continue
		}

		t := models.Transaction{
			ID:          models.NewID(),
			Amount:      math.Abs(rw.amount),
			Description: rw.description,
			Date:        rw.date.Format("2006-01-02"),
			Type:        classify(rw, signed),
			Category:    rw.category,
		}

		h := t.ComputeHash()
		if seen[h] {
			result.Duplicates++
			continue
		}
		seen[h] = true
		result.Transactions = append(result.Transactions, t)
	}

	if result.Transfers > 0 {
		log.Printf("Filtered %d internal transfers", result.Transfers)
	}
	if result.Duplicates > 0 {
		log.Printf("Removed %d duplicate transactions", result.Duplicates)
	}

	return result, nil
}

// row is one parsed CSV line before classification
type row struct {
	date        time.Time
	description string
	category    string
	amount      float64          // signed as exported
	direction   models.EntryType // from a Type column, empty when absent
}

func field(record []string, colIndex map[string]int, name string) string {
	if idx, ok := colIndex[name]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

// parseDebitCredit combines Debit and Credit columns into a single amount.
// Credits are positive, debits negative.
func parseDebitCredit(record []string, colIndex map[string]int) float64 {
	var amount float64

	if s := field(record, colIndex, "Credit"); s != "" {
		if credit := models.ParseAmount(s); credit != 0 {
			amount = math.Abs(credit)
		}
	}
	if s := field(record, colIndex, "Debit"); s != "" {
		if debit := models.ParseAmount(s); debit != 0 {
			amount = -math.Abs(debit)
		}
	}

	return amount
}

var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
}

// parseDate tries the formats seen in bank exports
func parseDate(s string) (time.Time, bool) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return models.ParseDate(s)
}
