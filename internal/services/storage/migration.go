package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// MinPasswordLength is the shortest accepted encryption passphrase
const MinPasswordLength = 8

// EnableEncryption encrypts every document in the data directory with password
func (s *Storage) EnableEncryption(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encrypted {
		return fmt.Errorf("encryption is already enabled")
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	k, err := deriveKey(password)
	if err != nil {
		return err
	}

	verifyPath := filepath.Join(s.baseDir, verifyFile)
	sealed, err := k.seal([]byte(verifyMagic))
	if err != nil {
		return fmt.Errorf("failed to encrypt verification file: %w", err)
	}
	if err := os.WriteFile(verifyPath, sealed, 0o600); err != nil {
		return fmt.Errorf("failed to write verification file: %w", err)
	}

	files, err := s.collect(func(path string, _ []byte) bool {
		return !s.shouldSkipEncryption(path)
	})
	if err != nil {
		os.Remove(verifyPath)
		return fmt.Errorf("failed to scan files: %w", err)
	}

	for i, path := range files {
		if err := s.transform(path, func(data []byte) ([]byte, error) {
			if isAgeEncrypted(data) {
				return data, nil
			}
			return k.seal(data)
		}); err != nil {
			s.rollbackEncryption(files[:i], k)
			os.Remove(verifyPath)
			return fmt.Errorf("failed to encrypt %s: %w", filepath.Base(path), err)
		}
	}

	if err := os.WriteFile(filepath.Join(s.baseDir, markerFile), []byte("encrypted"), 0o600); err != nil {
		return fmt.Errorf("failed to create marker file: %w", err)
	}

	s.encrypted = true
	s.key = k
	return nil
}

// DisableEncryption decrypts every document (requires the current password)
func (s *Storage) DisableEncryption(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.encrypted {
		return fmt.Errorf("encryption is not enabled")
	}

	k, err := s.verifyPassword(password)
	if err != nil {
		return err
	}

	files, err := s.collect(func(_ string, data []byte) bool {
		return isAgeEncrypted(data)
	})
	if err != nil {
		return fmt.Errorf("failed to scan files: %w", err)
	}

	for _, path := range files {
		if err := s.transform(path, k.open); err != nil {
			return fmt.Errorf("failed to decrypt %s: %w", filepath.Base(path), err)
		}
	}

	os.Remove(filepath.Join(s.baseDir, markerFile))
	os.Remove(filepath.Join(s.baseDir, verifyFile))

	s.encrypted = false
	s.key = nil
	return nil
}

// collect walks the data directory and returns the regular files accepted by match
func (s *Storage) collect(match func(path string, data []byte) bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Base(path) == verifyFile || filepath.Base(path) == markerFile {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil // unreadable files are left alone
		}
		if match(path, data) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// transform rewrites a single file in place through fn
func (s *Storage) transform(path string, fn func([]byte) ([]byte, error)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := fn(data)
	if err != nil {
		return err
	}
	return atomicWrite(path, out, 0o600)
}

// rollbackEncryption decrypts files that were encrypted during a failed migration
func (s *Storage) rollbackEncryption(files []string, k *key) {
	for _, path := range files {
		_ = s.transform(path, k.open)
	}
}
