package accounts

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apphttp "blinq/internal/http"
	"blinq/internal/models"
	"blinq/internal/services/finance"
	"blinq/internal/services/importer"
	"blinq/internal/services/reports"
)

// maxUploadBytes caps CSV uploads
const maxUploadBytes = 10 << 20

var fin *finance.Service

// Initialize sets up the accounts package with required dependencies
func Initialize(f *finance.Service) {
	fin = f
}

// RegisterRoutes registers account and transaction routes.
// Requires RequireSession upstream.
func RegisterRoutes(r chi.Router) {
	r.Get("/accounts", handleAccounts)
	apphttp.Collection[finance.AccountInput, models.Account]{
		Add:    fin.AddAccount,
		Update: fin.UpdateAccount,
		Delete: fin.DeleteAccount,
	}.Mount(r, "/accounts")
	r.Get("/accounts/{id}/transactions", handleAccountTransactions)
	r.Post("/accounts/{id}/import", handleImport)

	r.Get("/transactions", handleTransactions)
	apphttp.Collection[finance.TransactionInput, models.Transaction]{
		Add:    fin.AddTransaction,
		Update: fin.UpdateTransaction,
		Delete: fin.DeleteTransaction,
	}.Mount(r, "/transactions")
}

type accountsResponse struct {
	Accounts []models.Account      `json:"accounts"`
	Summary  *models.AccountSummary `json:"summary"`
}

func handleAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := fin.Accounts(r.Context(), apphttp.UserID(r))
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, accountsResponse{
		Accounts: accounts,
		Summary:  reports.AccountSummary(accounts),
	})
}

func handleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := fin.Transactions(r.Context(), apphttp.UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, txns)
}

func handleTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := fin.Transactions(r.Context(), apphttp.UserID(r), r.URL.Query().Get("account"))
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, txns)
}

type importResponse struct {
	finance.ImportResult
	Transfers int `json:"transfers"`
	Skipped   int `json:"skipped"`
}

func handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apphttp.ErrorResponse(w, "File too large or not a multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apphttp.ErrorResponse(w, "Error reading file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		apphttp.ErrorResponse(w, "Only CSV files are allowed", http.StatusBadRequest)
		return
	}

	parsed, err := importer.Parse(file)
	if err != nil {
		apphttp.ErrorResponse(w, fmt.Sprintf("Invalid CSV: %v", err), http.StatusBadRequest)
		return
	}

	accountID := chi.URLParam(r, "id")
	result, err := fin.ImportTransactions(r.Context(), apphttp.UserID(r), accountID, parsed.Transactions)
	if err != nil {
		apphttp.Error(w, err)
		return
	}

	log.Printf("Imported %d transactions from %s (%d duplicates)", result.Imported, header.Filename, result.Duplicates+parsed.Duplicates)
	apphttp.WriteJSON(w, http.StatusOK, importResponse{
		ImportResult: finance.ImportResult{
			Imported:   result.Imported,
			Duplicates: result.Duplicates + parsed.Duplicates,
		},
		Transfers: parsed.Transfers,
		Skipped:   parsed.Skipped,
	})
}
