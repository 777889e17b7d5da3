// Package auth implements sign-up, login and server-side sessions.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"blinq/internal/models"
	"blinq/internal/services/persistence"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrAlreadyExists      = errors.New("user already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthenticated    = errors.New("not authenticated")
)

// MinPasswordLength is the shortest password accepted at sign-up
const MinPasswordLength = 8

// DefaultSessionTTL is used when Options.SessionTTL is zero
const DefaultSessionTTL = 7 * 24 * time.Hour

// Options configures the service
type Options struct {
	SessionTTL time.Duration
	BcryptCost int
}

// Service is the session guard
type Service struct {
	store *persistence.Store
	ttl   time.Duration
	cost  int
	now   func() time.Time
}

// New creates a Service over store
func New(store *persistence.Store, opts Options) *Service {
	s := &Service{store: store, ttl: opts.SessionTTL, cost: opts.BcryptCost, now: time.Now}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	return s
}

// WithClock replaces the time source used for session expiry
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Signup registers a user, stores a bcrypt hash of the password and opens a session
func (s *Service) Signup(ctx context.Context, fullName, email, password string) (*models.Session, *models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = models.NormalizeEmail(email)

	switch {
	case fullName == "":
		return nil, nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	case email == "":
		return nil, nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	case len(password) < MinPasswordLength:
		return nil, nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:        models.NewID(),
		Email:     email,
		FullName:  fullName,
		CreatedAt: s.now().UTC(),
	}

	err = s.store.UpdateUsers(ctx, func(users []models.User) ([]models.User, error) {
		for _, u := range users {
			if models.NormalizeEmail(u.Email) == email {
				return nil, ErrAlreadyExists
			}
		}
		return append(users, user), nil
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.store.PutCredential(ctx, models.Credential{
		Email:        email,
		PasswordHash: string(hash),
		UpdatedAt:    s.now().UTC(),
	}); err != nil {
		s.removeUser(ctx, user.ID)
		return nil, nil, err
	}

	log.Printf("New user registered: %s", user.ID)

	sess, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, &user, nil
}

// removeUser drops a half-registered user so the email can sign up again
func (s *Service) removeUser(ctx context.Context, id string) {
	err := s.store.UpdateUsers(ctx, func(users []models.User) ([]models.User, error) {
		return slices.DeleteFunc(users, func(u models.User) bool { return u.ID == id }), nil
	})
	if err != nil {
		log.Printf("Warning: could not roll back user %s: %v", id, err)
	}
}

// Login checks the password for email and opens a session
func (s *Service) Login(ctx context.Context, email, password string) (*models.Session, *models.User, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	cred, err := s.store.Credential(ctx, email)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	sess, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, user, nil
}

// Logout ends the session; an unknown token is not an error
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}

// Authenticate resolves a session token to its user
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, *models.Session, error) {
	if token == "" {
		return nil, nil, ErrUnauthenticated
	}

	sess, err := s.store.Session(ctx, token)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, nil, err
	}

	if sess.Expired(s.now()) {
		if err := s.store.DeleteSession(ctx, token); err != nil {
			log.Printf("Warning: could not delete expired session: %v", err)
		}
		return nil, nil, ErrUnauthenticated
	}

	user, err := s.store.FindUser(ctx, sess.UserID)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, nil, err
	}
	return user, sess, nil
}

// State describes the caller's session for the shell
func (s *Service) State(ctx context.Context, token string) (*models.AuthState, error) {
	user, sess, err := s.Authenticate(ctx, token)
	if errors.Is(err, ErrUnauthenticated) {
		return &models.AuthState{}, nil
	}
	if err != nil {
		return nil, err
	}
	expires := sess.ExpiresAt
	return &models.AuthState{User: user, IsAuthenticated: true, ExpiresAt: &expires}, nil
}

// PurgeExpired removes sessions that have expired
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	return s.store.PurgeSessions(ctx, s.now())
}

func (s *Service) openSession(ctx context.Context, userID string) (*models.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sess := &models.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.PutSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
