package budget

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apphttp "blinq/internal/http"
	"blinq/internal/models"
	"blinq/internal/services/finance"
	"blinq/internal/services/reports"
)

var fin *finance.Service

// Initialize sets up the budget package with required dependencies
func Initialize(f *finance.Service) {
	fin = f
}

// RegisterRoutes registers budget routes. Requires RequireSession upstream.
func RegisterRoutes(r chi.Router) {
	r.Get("/budget", handleBudget)

	apphttp.Collection[finance.BudgetCategoryInput, models.BudgetCategory]{
		Add:    fin.AddBudgetCategory,
		Update: fin.UpdateBudgetCategory,
		Delete: fin.DeleteBudgetCategory,
	}.Mount(r, "/budget/categories")

	apphttp.Collection[finance.BudgetGoalInput, models.BudgetGoal]{
		Add:    fin.AddBudgetGoal,
		Update: fin.UpdateBudgetGoal,
		Delete: fin.DeleteBudgetGoal,
	}.Mount(r, "/budget/goals")
}

type budgetResponse struct {
	Categories []models.BudgetCategory `json:"budgetCategories"`
	Goals      []models.BudgetGoal     `json:"budgetGoals"`
	Overview   *models.BudgetOverview  `json:"overview"`
}

func handleBudget(w http.ResponseWriter, r *http.Request) {
	doc, _, err := fin.Document(r.Context(), apphttp.UserID(r))
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, budgetResponse{
		Categories: doc.BudgetCategories,
		Goals:      doc.BudgetGoals,
		Overview:   reports.BudgetOverview(doc),
	})
}
