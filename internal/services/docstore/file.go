package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"sync"

	"blinq/internal/services/storage"
)

// File stores each document as <key>.json under the data directory.
// Reads and writes go through Storage, so documents are encrypted at rest
// once encryption is enabled.
type File struct {
	st *storage.Storage
	mu sync.Mutex // serializes compare-and-swap
}

// NewFile creates a file store on top of st
func NewFile(st *storage.Storage) *File {
	return &File{st: st}
}

func (f *File) filename(key string) string {
	return f.st.Path(key + ".json")
}

// revisionOf is a short content hash of the plaintext
func revisionOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func (f *File) Get(_ context.Context, key string) (*Document, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return f.read(key)
}

func (f *File) read(key string) (*Document, error) {
	name := f.filename(key)
	data, err := f.st.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	doc := &Document{Key: key, Data: data, Revision: revisionOf(data)}
	if info, err := os.Stat(name); err == nil {
		doc.UpdatedAt = info.ModTime().UTC()
	}
	return doc, nil
}

func (f *File) Put(_ context.Context, key string, data []byte, ifMatch string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if ifMatch != "" {
		current := ""
		doc, err := f.read(key)
		switch {
		case err == nil:
			current = doc.Revision
		case !errors.Is(err, ErrNotFound):
			return "", err
		}
		if err := checkRevision(key, current, ifMatch); err != nil {
			return "", err
		}
	}

	if err := f.st.WriteFile(f.filename(key), data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return revisionOf(data), nil
}

func (f *File) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st.Remove(f.filename(key))
}

func (f *File) List(_ context.Context, prefix string) ([]string, error) {
	names, err := f.st.Documents(path.Dir(prefix + "x"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	keys := []string{}
	for _, name := range names {
		if hasPrefix(name, prefix) && ValidKey(name) {
			keys = append(keys, name)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (f *File) Close() error { return nil }
