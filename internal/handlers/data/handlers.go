// Package data serves the whole financial document with revision checks.
package data

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apphttp "blinq/internal/http"
	"blinq/internal/models"
	"blinq/internal/services/finance"
	"blinq/internal/services/persistence"
)

var fin *finance.Service

// Initialize sets up the data package with required dependencies
func Initialize(f *finance.Service) {
	fin = f
}

// RegisterRoutes registers the document routes. Requires RequireSession upstream.
func RegisterRoutes(r chi.Router) {
	r.Get("/data", handleGet)
	r.Put("/data", handlePut)
	r.Delete("/data", handleReset)
}

func etag(revision string) string {
	return `"` + revision + `"`
}

// parseIfMatch strips the quotes and weak prefix from an If-Match header
func parseIfMatch(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "W/")
	return strings.Trim(h, `"`)
}

func respond(w http.ResponseWriter, doc *models.FinancialDocument, revision string) {
	w.Header().Set("ETag", etag(revision))
	apphttp.WriteJSON(w, http.StatusOK, doc)
}

func handleGet(w http.ResponseWriter, r *http.Request) {
	doc, rev, err := fin.Document(r.Context(), apphttp.UserID(r))
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	respond(w, doc, rev)
}

func handlePut(w http.ResponseWriter, r *http.Request) {
	ifMatch := parseIfMatch(r.Header.Get("If-Match"))
	if ifMatch == "" {
		apphttp.ErrorResponse(w, "If-Match header is required", http.StatusPreconditionRequired)
		return
	}

	var doc models.FinancialDocument
	if err := apphttp.DecodeJSON(w, r, &doc); err != nil {
		apphttp.Error(w, err)
		return
	}

	rev, err := fin.Replace(r.Context(), apphttp.UserID(r), &doc, ifMatch)
	if errors.Is(err, persistence.ErrConflict) {
		apphttp.ErrorResponse(w, "document was modified; reload and retry", http.StatusPreconditionFailed)
		return
	}
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	respond(w, &doc, rev)
}

func handleReset(w http.ResponseWriter, r *http.Request) {
	doc, rev, err := fin.Reset(r.Context(), apphttp.UserID(r))
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	respond(w, doc, rev)
}
