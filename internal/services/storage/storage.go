// Package storage provides file access to the data directory with optional
// age encryption at rest.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// ageHeader is the prefix of Age-encrypted files
	ageHeader = "age-encryption.org"

	// markerFile indicates encryption is enabled
	markerFile = ".encrypted"

	// verifyFile is used to validate the password
	verifyFile = ".encryption-verify"

	// verifyMagic is the expected content in the verify file
	verifyMagic = `{"magic":"blinq-encryption-verify","version":1}`

	// documentExt is the extension of files eligible for encryption
	documentExt = ".json"
)

var (
	// ErrLocked is returned when reading an encrypted file before Unlock
	ErrLocked = errors.New("storage is locked")

	// ErrWrongPassword is returned when the passphrase does not open the verify file
	ErrWrongPassword = errors.New("incorrect password")
)

// Storage provides transparent encrypted/unencrypted file access
type Storage struct {
	baseDir   string
	encrypted bool
	key       *key
	mu        sync.RWMutex
}

// New creates a Storage rooted at baseDir, creating the directory if needed
func New(baseDir string) (*Storage, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Storage{baseDir: baseDir}

	if _, err := os.Stat(filepath.Join(baseDir, markerFile)); err == nil {
		s.encrypted = true
	}

	return s, nil
}

// IsEncrypted returns true if the data directory is encrypted
func (s *Storage) IsEncrypted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encrypted
}

// IsUnlocked returns true if the storage can read and write documents
func (s *Storage) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.encrypted || s.key != nil
}

// Unlock loads the key for an encrypted directory after checking the passphrase
func (s *Storage) Unlock(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.encrypted {
		return nil
	}

	k, err := s.verifyPassword(password)
	if err != nil {
		return err
	}

	s.key = k
	return nil
}

// verifyPassword opens the verification file with password (caller holds lock)
func (s *Storage) verifyPassword(password string) (*key, error) {
	k, err := deriveKey(password)
	if err != nil {
		return nil, err
	}

	encrypted, err := os.ReadFile(filepath.Join(s.baseDir, verifyFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read verification file: %w", err)
	}

	decrypted, err := k.open(encrypted)
	if err != nil || string(decrypted) != verifyMagic {
		return nil, ErrWrongPassword
	}

	return k, nil
}

// Lock clears the encryption key from memory
func (s *Storage) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.key = nil
}

// Path resolves a slash-separated name relative to the base directory
func (s *Storage) Path(name string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(name))
}

// ReadFile reads and, when needed, decrypts a file.
// A missing file yields an error satisfying errors.Is(err, fs.ErrNotExist).
func (s *Storage) ReadFile(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isAgeEncrypted(data) {
		if s.key == nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrLocked)
		}
		return s.key.open(data)
	}

	return data, nil
}

// WriteFile writes a file atomically, encrypting documents when enabled
func (s *Storage) WriteFile(path string, data []byte, perm os.FileMode) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.encrypted && !s.shouldSkipEncryption(path) {
		if s.key == nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), ErrLocked)
		}
		encrypted, err := s.key.seal(data)
		if err != nil {
			return fmt.Errorf("failed to encrypt: %w", err)
		}
		data = encrypted
	}

	return atomicWrite(path, data, perm)
}

// Remove deletes a file; a missing file is not an error
func (s *Storage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Documents lists the slash-separated names of documents under dir,
// relative to the base directory and without the extension
func (s *Storage) Documents(dir string) ([]string, error) {
	root := s.Path(dir)
	var names []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != documentExt || s.shouldSkipEncryption(path) {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return err
		}
		names = append(names, strings.TrimSuffix(filepath.ToSlash(rel), documentExt))
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipDir) {
		return nil, err
	}

	return names, nil
}

// atomicWrite writes data to a file atomically using a temp file
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// shouldSkipEncryption returns true for bookkeeping files and non-documents
func (s *Storage) shouldSkipEncryption(path string) bool {
	base := filepath.Base(path)
	if base == markerFile || base == verifyFile {
		return true
	}
	return strings.ToLower(filepath.Ext(path)) != documentExt
}

// isAgeEncrypted checks if data starts with the Age encryption header
func isAgeEncrypted(data []byte) bool {
	return len(data) > len(ageHeader) && string(data[:len(ageHeader)]) == ageHeader
}
