// Package explorer serves searchable, sortable, paginated transaction lists.
package explorer

import (
	"cmp"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apphttp "blinq/internal/http"
	"blinq/internal/models"
	"blinq/internal/services/finance"
)

const (
	defaultPerPage = 25
	maxPerPage     = 500
)

var fin *finance.Service

// Initialize sets up the explorer package with required dependencies
func Initialize(f *finance.Service) {
	fin = f
}

// RegisterRoutes registers explorer routes. Requires RequireSession upstream.
func RegisterRoutes(r chi.Router) {
	r.Get("/transactions/search", handleSearch)
}

// Page is one page of search results with totals over every match
type Page struct {
	Transactions  []models.Transaction `json:"transactions"`
	Categories    []string             `json:"categories"`
	Page          int                  `json:"page"`
	PerPage       int                  `json:"perPage"`
	TotalPages    int                  `json:"totalPages"`
	TotalCount    int                  `json:"totalCount"`
	TotalIncome   float64              `json:"totalIncome"`
	TotalExpenses float64              `json:"totalExpenses"`
	NetAmount     float64              `json:"netAmount"`
	PageRange     []int                `json:"pageRange"`
}

func handleSearch(w http.ResponseWriter, r *http.Request) {
	doc, _, err := fin.Document(r.Context(), apphttp.UserID(r))
	if err != nil {
		apphttp.Error(w, err)
		return
	}

	q := r.URL.Query()
	search := q.Get("search")
	category := q.Get("category")
	account := q.Get("account")
	txnType := models.EntryType(q.Get("type"))
	sortField := q.Get("sort")
	order := q.Get("order")

	// Defaults
	if sortField == "" {
		sortField = "date"
	}
	if order == "" {
		order = "desc"
	}

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	perPage = min(perPage, maxPerPage)

	data := models.NewTransactionSet(doc.Transactions)

	// Apply filters
	filtered := data
	if q.Get("start") != "" || q.Get("end") != "" {
		start, end := apphttp.ParseDateRange(q.Get("start"), q.Get("end"), data.MinDate(), data.MaxDate())
		filtered = filtered.FilterByDateRange(start, end)
	}
	if category != "" && category != "all" {
		filtered = filtered.FilterByCategory(category)
	}
	if account != "" && account != "all" {
		filtered = filtered.FilterByAccount(account)
	}
	if search != "" {
		filtered = filtered.FilterBySearch(search)
	}
	if txnType.Valid() {
		filtered = filtered.FilterByType(txnType)
	}

	// Totals before pagination
	income := filtered.Income().SumAmount()
	expenses := filtered.Expenses().SumAmount()

	sorted := sortTransactions(filtered, sortField, order)

	totalPages := sorted.TotalPages(perPage)
	if page > totalPages && totalPages > 0 {
		page = totalPages
	}

	apphttp.WriteJSON(w, http.StatusOK, Page{
		Transactions:  sorted.Paginate(page, perPage).Transactions,
		Categories:    orEmpty(data.Categories()),
		Page:          page,
		PerPage:       perPage,
		TotalPages:    totalPages,
		TotalCount:    sorted.Len(),
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetAmount:     income - expenses,
		PageRange:     calculatePageRange(page, totalPages),
	})
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// sortTransactions returns a sorted copy. Unknown fields sort by date, newest first.
func sortTransactions(ts *models.TransactionSet, field, order string) *models.TransactionSet {
	sorted := slices.Clone(ts.Transactions)

	var compare func(a, b models.Transaction) int
	switch field {
	case "description":
		compare = func(a, b models.Transaction) int {
			return cmp.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
		}
	case "category":
		compare = func(a, b models.Transaction) int {
			return cmp.Compare(strings.ToLower(categoryOf(a)), strings.ToLower(categoryOf(b)))
		}
	case "amount":
		compare = func(a, b models.Transaction) int {
			return cmp.Compare(a.Amount, b.Amount)
		}
	case "type":
		compare = func(a, b models.Transaction) int {
			return cmp.Compare(a.Type, b.Type)
		}
	case "date":
		compare = compareDates
	default:
		compare = compareDates
		order = "desc"
	}

	if order != "asc" {
		asc := compare
		compare = func(a, b models.Transaction) int { return asc(b, a) }
	}
	slices.SortStableFunc(sorted, compare)

	return models.NewTransactionSet(sorted)
}

func categoryOf(t models.Transaction) string {
	if t.Category == "" {
		return "Uncategorized"
	}
	return t.Category
}

// compareDates orders by parsed date; unparsable dates sort first
func compareDates(a, b models.Transaction) int {
	da, _ := a.Time()
	db, _ := b.Time()
	return da.Compare(db)
}

// calculatePageRange returns a slice of page numbers to display in pagination
func calculatePageRange(currentPage, totalPages int) []int {
	if totalPages <= 7 {
		result := make([]int, totalPages)
		for i := range result {
			result[i] = i + 1
		}
		return result
	}

	// Show pages around current page
	start := currentPage - 2
	end := currentPage + 2

	if start < 1 {
		start = 1
		end = 5
	}
	if end > totalPages {
		end = totalPages
		start = totalPages - 4
	}

	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}
