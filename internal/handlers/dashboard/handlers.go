package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apphttp "blinq/internal/http"
	"blinq/internal/models"
	"blinq/internal/services/currency"
	"blinq/internal/services/finance"
	"blinq/internal/services/persistence"
	"blinq/internal/services/reports"
)

var (
	fin   *finance.Service
	store *persistence.Store
)

// Initialize sets up the dashboard package with required dependencies
func Initialize(f *finance.Service, s *persistence.Store) {
	fin = f
	store = s
}

// RegisterRoutes registers the dashboard and its widget lists.
// Requires RequireSession upstream.
func RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", handleDashboard)
	r.Put("/dashboard/metrics/{metric}", handleSetMetric)

	apphttp.Collection[finance.SavingsGoalInput, models.SavingsGoal]{
		Add:    fin.AddSavingsGoal,
		Update: fin.UpdateSavingsGoal,
		Delete: fin.DeleteSavingsGoal,
	}.Mount(r, "/savings-goals")

	apphttp.Collection[finance.ExpenseCategoryInput, models.ExpenseCategory]{
		Add:    fin.AddExpenseCategory,
		Update: fin.UpdateExpenseCategory,
		Delete: fin.DeleteExpenseCategory,
	}.Mount(r, "/expense-categories")

	apphttp.Collection[finance.MonthlyDataInput, models.MonthlyData]{
		Add:    fin.AddMonthlyData,
		Update: fin.UpdateMonthlyData,
		Delete: fin.DeleteMonthlyData,
	}.Mount(r, "/monthly-data")

	apphttp.Collection[finance.SpendingDataInput, models.SpendingData]{
		Add:    fin.AddSpendingData,
		Update: fin.UpdateSpendingData,
		Delete: fin.DeleteSpendingData,
	}.Mount(r, "/spending-data")
}

// dashboardResponse adds display strings in the user's currency
type dashboardResponse struct {
	*models.Dashboard
	Display map[string]string `json:"display"`
}

func display(d *models.Dashboard) map[string]string {
	c := d.Currency
	return map[string]string{
		string(models.MetricTotalBalance):    currency.FormatCompact(d.TotalBalance, c),
		string(models.MetricMonthlyIncome):   currency.FormatCompact(d.MonthlyIncome, c),
		string(models.MetricMonthlyExpenses): currency.FormatCompact(d.MonthlyExpenses, c),
		string(models.MetricSavings):         currency.FormatCompact(d.Savings, c),
		string(models.MetricInvestments):     currency.FormatCompact(d.Investments, c),
		string(models.MetricDebt):            currency.FormatCompact(d.Debt, c),
		"accountsBalance":                    currency.Format(d.Accounts.TotalBalance, c),
		"budgetRemaining":                    currency.Format(d.Budget.Remaining, c),
		"symbol":                             currency.Symbol(c),
	}
}

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := apphttp.UserID(r)

	doc, _, err := fin.Document(r.Context(), userID)
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	settings, err := store.LoadSettings(r.Context(), userID)
	if err != nil {
		apphttp.Error(w, err)
		return
	}

	d := reports.Dashboard(doc, settings.Currency)
	apphttp.WriteJSON(w, http.StatusOK, dashboardResponse{Dashboard: d, Display: display(d)})
}

type metricRequest struct {
	Value finance.Amount `json:"value"`
}

func handleSetMetric(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if err := apphttp.DecodeJSON(w, r, &req); err != nil {
		apphttp.Error(w, err)
		return
	}

	doc, err := fin.SetMetric(r.Context(), apphttp.UserID(r), chi.URLParam(r, "metric"), req.Value)
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, doc)
}
