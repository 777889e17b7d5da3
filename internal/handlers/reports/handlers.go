package reports

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apphttp "blinq/internal/http"
	"blinq/internal/models"
	"blinq/internal/services/finance"
	"blinq/internal/services/reports"
)

var (
	fin *finance.Service
	now = time.Now
)

// Initialize sets up the reports package with required dependencies
func Initialize(f *finance.Service) {
	fin = f
}

// RegisterRoutes registers report routes. Requires RequireSession upstream.
func RegisterRoutes(r chi.Router) {
	r.Get("/reports", handleReport)
	r.Get("/reports/export", handleExport)
	r.Get("/reports/comparison", handleComparison)
	r.Get("/reports/recurring", handleRecurring)
}

func filterFrom(r *http.Request) models.ReportFilter {
	q := r.URL.Query()
	return models.ReportFilter{
		Period:    q.Get("period"),
		Category:  q.Get("category"),
		AccountID: q.Get("account"),
	}
}

func build(r *http.Request) (*models.Report, error) {
	doc, _, err := fin.Document(r.Context(), apphttp.UserID(r))
	if err != nil {
		return nil, err
	}
	return reports.Build(doc, filterFrom(r), now()), nil
}

func handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := build(r)
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, report)
}

func handleExport(w http.ResponseWriter, r *http.Request) {
	report, err := build(r)
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	filename := reports.ExportFilename(report.GeneratedAt)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	apphttp.WriteJSON(w, http.StatusOK, report)
}

func handleComparison(w http.ResponseWriter, r *http.Request) {
	doc, _, err := fin.Document(r.Context(), apphttp.UserID(r))
	if err != nil {
		apphttp.Error(w, err)
		return
	}

	q := r.URL.Query()
	kind := q.Get("type")
	if kind == "" {
		kind = reports.ComparePrevious
	}
	if kind != reports.ComparePrevious && kind != reports.CompareYear {
		apphttp.ErrorResponse(w, "Unknown comparison type", http.StatusBadRequest)
		return
	}

	data := models.NewTransactionSet(doc.Transactions)
	start, end := apphttp.ParseDateRange(q.Get("start"), q.Get("end"), data.MinDate(), data.MaxDate())
	if end.IsZero() {
		end = now()
	}

	cmp := reports.NewMetrics().CalculateComparison(data, start, end, kind)
	apphttp.WriteJSON(w, http.StatusOK, cmp)
}

func handleRecurring(w http.ResponseWriter, r *http.Request) {
	doc, _, err := fin.Document(r.Context(), apphttp.UserID(r))
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	txns := reports.ApplyFilter(doc.Transactions, filterFrom(r), now())
	apphttp.WriteJSON(w, http.StatusOK, reports.Recurring(txns))
}
