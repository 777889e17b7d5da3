package models

import (
	"strings"
	"time"
)

// User is a registered account holder
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeEmail is the lookup form of an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Credential is the stored password hash for an email
type Credential struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is a server-issued login token
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthState is what the shell sees of the session guard
type AuthState struct {
	User            *User      `json:"user"`
	IsAuthenticated bool       `json:"isAuthenticated"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
}

// Currency is a supported display currency
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CAD Currency = "CAD"
	INR Currency = "INR"
)

// DefaultCurrency is used when no preference has been saved
const DefaultCurrency = INR

// Currencies lists the supported currencies in settings order
var Currencies = []Currency{INR, USD, EUR, GBP, CAD}

// ParseCurrency accepts a currency code in any case
func ParseCurrency(code string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	for _, known := range Currencies {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Settings holds per-user preferences
type Settings struct {
	Currency Currency `json:"currency"`
}

// DefaultSettings returns the preferences of a new user
func DefaultSettings() *Settings {
	return &Settings{Currency: DefaultCurrency}
}
