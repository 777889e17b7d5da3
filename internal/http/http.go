package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"blinq/internal/models"
	"blinq/internal/services/auth"
	"blinq/internal/services/finance"
	"blinq/internal/services/persistence"
)

// SessionCookie carries the session token for browser clients
const SessionCookie = "blinq_session"

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 5 << 20

// WriteJSON sends v as a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// ErrorResponse sends an error response
func ErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		log.Printf("Error: %s (status %d)", message, statusCode)
	}
	WriteJSON(w, statusCode, map[string]string{"error": message})
}

// Error maps a service error onto an HTTP status
func Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, finance.ErrInvalidInput):
		ErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidCredentials):
		ErrorResponse(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, finance.ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		ErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, auth.ErrAlreadyExists), errors.Is(err, persistence.ErrConflict):
		ErrorResponse(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("Error: %v", err)
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// DecodeJSON reads a JSON request body into v
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", finance.ErrInvalidInput, err)
	}
	return nil
}

// SessionToken extracts the session token from the cookie or a bearer header
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// SetSessionCookie hands the session to a browser client
func SetSessionCookie(w http.ResponseWriter, r *http.Request, sess *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type userKey struct{}

// RequireSession rejects requests without a valid session and stores the
// user in the request context
func RequireSession(guard *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _, err := guard.Authenticate(r.Context(), SessionToken(r))
			if err != nil {
				Error(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), userKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// User returns the authenticated user of the request
func User(r *http.Request) *models.User {
	u, _ := r.Context().Value(userKey{}).(*models.User)
	return u
}

// UserID returns the authenticated user's id, empty outside RequireSession
func UserID(r *http.Request) string {
	if u := User(r); u != nil {
		return u.ID
	}
	return ""
}

// WithUser returns ctx carrying user, for handlers tested without the middleware
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// ParseDateRange parses start and end date query parameters with defaults
func ParseDateRange(startStr, endStr string, minDate, maxDate time.Time) (start, end time.Time) {
	if startStr != "" {
		start, _ = time.Parse("2006-01-02", startStr)
	}
	if start.IsZero() {
		// Default to YTD
		start = time.Date(time.Now().Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		// If YTD range starts after our data ends, default to all-time
		if !maxDate.IsZero() && start.After(maxDate) {
			start = minDate
		} else if start.Before(minDate) {
			start = minDate
		}
	}

	if endStr != "" {
		end, _ = time.Parse("2006-01-02", endStr)
	}
	if end.IsZero() {
		end = maxDate
	}

	return start, end
}
