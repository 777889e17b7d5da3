package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apphttp "blinq/internal/http"
	"blinq/internal/models"
	"blinq/internal/services/currency"
	"blinq/internal/services/persistence"
)

var store *persistence.Store

// Initialize sets up the settings package with required dependencies
func Initialize(s *persistence.Store) {
	store = s
}

// RegisterRoutes registers preference routes. Requires RequireSession upstream.
func RegisterRoutes(r chi.Router) {
	r.Get("/settings", handleGet)
	r.Put("/settings", handlePut)
}

type settingsResponse struct {
	*models.Settings
	Symbol     string            `json:"symbol"`
	Currencies []models.Currency `json:"currencies"`
}

func respond(w http.ResponseWriter, s *models.Settings) {
	apphttp.WriteJSON(w, http.StatusOK, settingsResponse{
		Settings:   s,
		Symbol:     currency.Symbol(s.Currency),
		Currencies: models.Currencies,
	})
}

func handleGet(w http.ResponseWriter, r *http.Request) {
	s, err := store.LoadSettings(r.Context(), apphttp.UserID(r))
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	respond(w, s)
}

type settingsRequest struct {
	Currency string `json:"currency"`
}

func handlePut(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := apphttp.DecodeJSON(w, r, &req); err != nil {
		apphttp.Error(w, err)
		return
	}

	c, err := currency.Parse(req.Currency)
	if err != nil {
		apphttp.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	s := &models.Settings{Currency: c}
	if err := store.SaveSettings(r.Context(), apphttp.UserID(r), s); err != nil {
		apphttp.Error(w, err)
		return
	}
	respond(w, s)
}
