package auth

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	apphttp "blinq/internal/http"
	"blinq/internal/models"
	authsvc "blinq/internal/services/auth"
)

var guard *authsvc.Service

// Initialize sets up the auth package with required dependencies
func Initialize(g *authsvc.Service) {
	guard = g
}

// RegisterRoutes registers the public session routes
func RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", handleSignup)
	r.Post("/auth/login", handleLogin)
	r.Post("/auth/logout", handleLogout)
	r.Get("/auth/session", handleSession)
}

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string           `json:"token"`
	State models.AuthState `json:"session"`
}

func respondSession(w http.ResponseWriter, r *http.Request, status int, sess *models.Session, user *models.User) {
	apphttp.SetSessionCookie(w, r, sess)
	expires := sess.ExpiresAt
	apphttp.WriteJSON(w, status, sessionResponse{
		Token: sess.Token,
		State: models.AuthState{User: user, IsAuthenticated: true, ExpiresAt: &expires},
	})
}

func handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := apphttp.DecodeJSON(w, r, &req); err != nil {
		apphttp.Error(w, err)
		return
	}

	sess, user, err := guard.Signup(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	respondSession(w, r, http.StatusCreated, sess, user)
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apphttp.DecodeJSON(w, r, &req); err != nil {
		apphttp.Error(w, err)
		return
	}

	sess, user, err := guard.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	respondSession(w, r, http.StatusOK, sess, user)
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := guard.Logout(r.Context(), apphttp.SessionToken(r)); err != nil {
		log.Printf("Warning: logout failed: %v", err)
	}
	apphttp.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func handleSession(w http.ResponseWriter, r *http.Request) {
	state, err := guard.State(r.Context(), apphttp.SessionToken(r))
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, state)
}
