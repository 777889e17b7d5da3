// Package persistence maps the application's records onto document keys
// and owns their JSON encoding.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"blinq/internal/models"
	"blinq/internal/services/docstore"
)

var (
	ErrNotFound = docstore.ErrNotFound
	ErrConflict = docstore.ErrConflict
)

// maxUpdateAttempts bounds the read-modify-write loop under contention
const maxUpdateAttempts = 5

const (
	keyUsers       = "users/index"
	keyCredentials = "auth/credentials"
	sessionPrefix  = "sessions/"
)

func financialKey(userID string) string { return "users/" + userID + "/financial" }
func settingsKey(userID string) string  { return "users/" + userID + "/settings" }
func sessionKey(token string) string    { return sessionPrefix + token }

// Store reads and writes typed records through a document backend
type Store struct {
	docs docstore.Store
}

// New creates a Store over docs
func New(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// Close releases the backend
func (s *Store) Close() error {
	return s.docs.Close()
}

// load decodes the document at key into a fresh value from def.
// A missing key yields the default with revision docstore.Absent. Bytes
// that fail to decode are logged and the default is returned together with
// the stored revision, so the next conditional save replaces them.
func load[T any](ctx context.Context, docs docstore.Store, key string, def func() *T) (*T, string, error) {
	doc, err := docs.Get(ctx, key)
	if errors.Is(err, docstore.ErrNotFound) {
		return def(), docstore.Absent, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", key, err)
	}

	v := def()
	if err := json.Unmarshal(doc.Data, v); err != nil {
		log.Printf("Warning: %s is not valid JSON, using defaults: %v", key, err)
		return def(), doc.Revision, nil
	}
	return v, doc.Revision, nil
}

func save(ctx context.Context, docs docstore.Store, key string, v any, ifMatch string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}
	rev, err := docs.Put(ctx, key, data, ifMatch)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", key, err)
	}
	return rev, nil
}

// update runs fn against the current value and saves the result if the
// revision is unchanged, retrying on conflict
func update[T any](ctx context.Context, docs docstore.Store, key string, def func() *T, fn func(*T) error) (*T, string, error) {
	for attempt := 1; ; attempt++ {
		v, rev, err := load(ctx, docs, key, def)
		if err != nil {
			return nil, "", err
		}
		if err := fn(v); err != nil {
			return nil, "", err
		}

		newRev, err := save(ctx, docs, key, v, rev)
		if err == nil {
			return v, newRev, nil
		}
		if !errors.Is(err, docstore.ErrConflict) || attempt >= maxUpdateAttempts {
			return nil, "", err
		}
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
	}
}

// LoadFinancial returns the user's document and its revision.
// Entries persisted without an id are assigned one and written back.
func (s *Store) LoadFinancial(ctx context.Context, userID string) (*models.FinancialDocument, string, error) {
	for attempt := 1; ; attempt++ {
		doc, rev, err := load(ctx, s.docs, financialKey(userID), models.DefaultFinancialDocument)
		if err != nil {
			return nil, "", err
		}
		if !doc.Normalize() {
			return doc, rev, nil
		}

		newRev, err := s.SaveFinancial(ctx, userID, doc, rev)
		switch {
		case err == nil:
			return doc, newRev, nil
		case errors.Is(err, ErrConflict) && attempt < maxUpdateAttempts:
			continue
		default:
			return nil, "", err
		}
	}
}

// SaveFinancial writes doc. An empty ifMatch overwrites unconditionally;
// otherwise a stale revision fails with ErrConflict.
func (s *Store) SaveFinancial(ctx context.Context, userID string, doc *models.FinancialDocument, ifMatch string) (string, error) {
	doc.Normalize()
	return save(ctx, s.docs, financialKey(userID), doc, ifMatch)
}

// UpdateFinancial applies fn to the current document atomically.
// An error from fn aborts without saving.
func (s *Store) UpdateFinancial(ctx context.Context, userID string, fn func(*models.FinancialDocument) error) (*models.FinancialDocument, string, error) {
	return update(ctx, s.docs, financialKey(userID), models.DefaultFinancialDocument, func(doc *models.FinancialDocument) error {
		doc.Normalize()
		if err := fn(doc); err != nil {
			return err
		}
		doc.Normalize()
		return nil
	})
}

// ResetFinancial replaces the user's document with the empty default
func (s *Store) ResetFinancial(ctx context.Context, userID string) (*models.FinancialDocument, string, error) {
	doc := models.DefaultFinancialDocument()
	rev, err := s.SaveFinancial(ctx, userID, doc, "")
	if err != nil {
		return nil, "", err
	}
	return doc, rev, nil
}

// userIndex is the stored form of the registered users
type userIndex struct {
	Users []models.User `json:"users"`
}

func newUserIndex() *userIndex { return &userIndex{Users: []models.User{}} }

// Users returns every registered user
func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	idx, _, err := load(ctx, s.docs, keyUsers, newUserIndex)
	if err != nil {
		return nil, err
	}
	return idx.Users, nil
}

// FindUserByEmail returns the user registered under email or ErrNotFound
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	want := models.NormalizeEmail(email)
	for i := range users {
		if models.NormalizeEmail(users[i].Email) == want {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

// FindUser returns the user with id or ErrNotFound
func (s *Store) FindUser(ctx context.Context, id string) (*models.User, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

// UpdateUsers applies fn to the user list atomically
func (s *Store) UpdateUsers(ctx context.Context, fn func(users []models.User) ([]models.User, error)) error {
	_, _, err := update(ctx, s.docs, keyUsers, newUserIndex, func(idx *userIndex) error {
		users, err := fn(idx.Users)
		if err != nil {
			return err
		}
		idx.Users = users
		return nil
	})
	return err
}

// credentialIndex maps normalized email to stored credential
type credentialIndex map[string]models.Credential

func newCredentialIndex() *credentialIndex {
	c := credentialIndex{}
	return &c
}

// Credential returns the stored credential for email or ErrNotFound
func (s *Store) Credential(ctx context.Context, email string) (*models.Credential, error) {
	idx, _, err := load(ctx, s.docs, keyCredentials, newCredentialIndex)
	if err != nil {
		return nil, err
	}
	cred, ok := (*idx)[models.NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &cred, nil
}

// PutCredential stores or replaces the credential for cred.Email
func (s *Store) PutCredential(ctx context.Context, cred models.Credential) error {
	_, _, err := update(ctx, s.docs, keyCredentials, newCredentialIndex, func(idx *credentialIndex) error {
		if *idx == nil {
			*idx = credentialIndex{}
		}
		(*idx)[models.NormalizeEmail(cred.Email)] = cred
		return nil
	})
	return err
}

// Session returns the session for token or ErrNotFound
func (s *Store) Session(ctx context.Context, token string) (*models.Session, error) {
	if !docstore.ValidKey(token) {
		return nil, ErrNotFound
	}
	doc, err := s.docs.Get(ctx, sessionKey(token))
	if err != nil {
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal(doc.Data, &sess); err != nil {
		log.Printf("Warning: dropping unreadable session: %v", err)
		return nil, ErrNotFound
	}
	return &sess, nil
}

// PutSession stores sess under its token
func (s *Store) PutSession(ctx context.Context, sess *models.Session) error {
	_, err := save(ctx, s.docs, sessionKey(sess.Token), sess, "")
	return err
}

// DeleteSession removes the session for token
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if !docstore.ValidKey(token) {
		return nil
	}
	return s.docs.Delete(ctx, sessionKey(token))
}

// PurgeSessions deletes sessions expired at now and returns how many were removed
func (s *Store) PurgeSessions(ctx context.Context, now time.Time) (int, error) {
	keys, err := s.docs.List(ctx, sessionPrefix)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		token := key[len(sessionPrefix):]
		sess, err := s.Session(ctx, token)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return removed, err
		}
		if sess == nil || sess.Expired(now) {
			if err := s.docs.Delete(ctx, key); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// LoadSettings returns the user's preferences, defaults when none are saved
func (s *Store) LoadSettings(ctx context.Context, userID string) (*models.Settings, error) {
	settings, _, err := load(ctx, s.docs, settingsKey(userID), models.DefaultSettings)
	if err != nil {
		return nil, err
	}
	if _, ok := models.ParseCurrency(string(settings.Currency)); !ok {
		settings.Currency = models.DefaultCurrency
	}
	return settings, nil
}

// SaveSettings overwrites the user's preferences
func (s *Store) SaveSettings(ctx context.Context, userID string, settings *models.Settings) error {
	_, err := save(ctx, s.docs, settingsKey(userID), settings, "")
	return err
}
