// Package docstore is a keyed JSON document store with optimistic revisions.
// Backends: in-memory, files in the data directory, or a sqlite database.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"blinq/internal/services/storage"
)

var (
	// ErrNotFound is returned by Get for a key that was never stored
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned by Put when ifMatch does not match the stored revision
	ErrConflict = errors.New("revision conflict")

	// ErrInvalidKey is returned for keys outside the allowed alphabet
	ErrInvalidKey = errors.New("invalid document key")
)

// Absent is the revision of a key with no stored document.
// Passing it as ifMatch makes Put succeed only if the key is still absent.
const Absent = "absent"

// Document is a stored value and its version
type Document struct {
	Key       string
	Data      []byte
	Revision  string
	UpdatedAt time.Time
}

// Store is implemented by every backend
type Store interface {
	// Get returns the document at key or ErrNotFound
	Get(ctx context.Context, key string) (*Document, error)

	// Put stores data at key and returns the new revision.
	// An empty ifMatch writes unconditionally (last write wins).
	Put(ctx context.Context, key string, data []byte, ifMatch string) (string, error)

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// List returns the keys starting with prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// Backend names accepted by Open
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Options selects and configures a backend
type Options struct {
	Backend    string
	Storage    *storage.Storage // file backend
	SQLitePath string           // sqlite backend
}

// Open creates the configured backend
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		if opts.Storage == nil {
			return nil, fmt.Errorf("file store requires a data directory")
		}
		return NewFile(opts.Storage), nil
	case BackendSQLite:
		return NewSQLite(ctx, opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(/[A-Za-z0-9_-]+)*$`)

// ValidKey reports whether key is a slash-separated path of safe segments
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

func checkKey(key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	return nil
}

// checkRevision applies the ifMatch rule against the current revision ("" when absent)
func checkRevision(key, current, ifMatch string) error {
	switch {
	case ifMatch == "":
		return nil
	case ifMatch == Absent && current == "":
		return nil
	case ifMatch != Absent && ifMatch == current:
		return nil
	}
	return fmt.Errorf("%s: %w", key, ErrConflict)
}

func hasPrefix(key, prefix string) bool {
	return prefix == "" || strings.HasPrefix(key, prefix)
}
