package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	docFile := store.Path("users/u1/financial.json")
	original := []byte(`{"totalBalance":1200,"accounts":[]}`)

	if err := store.WriteFile(docFile, original, 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	read, err := store.ReadFile(docFile)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(read) != string(original) {
		t.Errorf("Content mismatch before encryption")
	}

	password := "testpassword123"
	if err := store.EnableEncryption(password); err != nil {
		t.Fatalf("Failed to enable encryption: %v", err)
	}
	if !store.IsEncrypted() {
		t.Error("Expected IsEncrypted() to return true")
	}

	rawData, _ := os.ReadFile(docFile)
	if !isAgeEncrypted(rawData) {
		t.Error("File should be encrypted on disk")
	}

	read, err = store.ReadFile(docFile)
	if err != nil {
		t.Fatalf("Failed to read encrypted file: %v", err)
	}
	if string(read) != string(original) {
		t.Errorf("Content mismatch after encryption: got %q, want %q", string(read), string(original))
	}

	store.Lock()
	if store.IsUnlocked() {
		t.Error("Expected storage to be locked")
	}
	if _, err := store.ReadFile(docFile); !errors.Is(err, ErrLocked) {
		t.Errorf("Expected ErrLocked while locked, got %v", err)
	}
	if err := store.Unlock(password); err != nil {
		t.Fatalf("Failed to unlock: %v", err)
	}

	read, err = store.ReadFile(docFile)
	if err != nil {
		t.Fatalf("Failed to read after unlock: %v", err)
	}
	if string(read) != string(original) {
		t.Errorf("Content mismatch after unlock")
	}

	if err := store.DisableEncryption(password); err != nil {
		t.Fatalf("Failed to disable encryption: %v", err)
	}
	if store.IsEncrypted() {
		t.Error("Expected IsEncrypted() to return false after disable")
	}

	rawData, _ = os.ReadFile(docFile)
	if isAgeEncrypted(rawData) {
		t.Error("File should be decrypted on disk")
	}
	if string(rawData) != string(original) {
		t.Errorf("Raw content mismatch after decryption")
	}
}

func TestWrongPassword(t *testing.T) {
	dir := t.TempDir()
	store, _ := New(dir)

	if err := store.WriteFile(store.Path("auth/credentials.json"), []byte(`{}`), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := store.EnableEncryption("correctpassword"); err != nil {
		t.Fatalf("Failed to enable encryption: %v", err)
	}

	store.Lock()

	if err := store.Unlock("wrongpassword"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Expected ErrWrongPassword, got %v", err)
	}
	if err := store.DisableEncryption("wrongpassword"); err == nil {
		t.Error("Expected disable to fail with wrong password")
	}
}

func TestPasswordTooShort(t *testing.T) {
	store, _ := New(t.TempDir())

	if err := store.EnableEncryption("short"); err == nil {
		t.Error("Expected error for short password")
	}
}

func TestReopenDetectsEncryption(t *testing.T) {
	dir := t.TempDir()
	store, _ := New(dir)
	if err := store.EnableEncryption("testpassword123"); err != nil {
		t.Fatalf("Failed to enable encryption: %v", err)
	}

	reopened, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	if !reopened.IsEncrypted() || reopened.IsUnlocked() {
		t.Error("Reopened storage should be encrypted and locked")
	}
	if err := reopened.WriteFile(reopened.Path("x.json"), []byte(`{}`), 0o600); !errors.Is(err, ErrLocked) {
		t.Errorf("Expected ErrLocked on write, got %v", err)
	}
}

func TestSkipNonDocuments(t *testing.T) {
	dir := t.TempDir()
	store, _ := New(dir)

	dbFile := filepath.Join(dir, "blinq.db")
	content := []byte("SQLite format 3")
	if err := store.WriteFile(dbFile, content, 0o600); err != nil {
		t.Fatalf("Failed to write db file: %v", err)
	}

	if err := store.EnableEncryption("testpassword123"); err != nil {
		t.Fatalf("Failed to enable encryption: %v", err)
	}

	rawData, _ := os.ReadFile(dbFile)
	if isAgeEncrypted(rawData) {
		t.Error("Non-document file should not be encrypted")
	}
	if string(rawData) != string(content) {
		t.Error("Non-document file content should be unchanged")
	}
}

func TestNewFilesEncrypted(t *testing.T) {
	dir := t.TempDir()
	store, _ := New(dir)

	if err := store.EnableEncryption("testpassword123"); err != nil {
		t.Fatalf("Failed to enable encryption: %v", err)
	}

	newFile := store.Path("sessions/abc.json")
	content := []byte(`{"token":"abc"}`)
	if err := store.WriteFile(newFile, content, 0o600); err != nil {
		t.Fatalf("Failed to write new file: %v", err)
	}

	rawData, _ := os.ReadFile(newFile)
	if !isAgeEncrypted(rawData) {
		t.Error("New file should be encrypted on disk")
	}

	read, err := store.ReadFile(newFile)
	if err != nil {
		t.Fatalf("Failed to read new file: %v", err)
	}
	if string(read) != string(content) {
		t.Errorf("Content mismatch: got %q, want %q", string(read), string(content))
	}
}

func TestDocumentsAndRemove(t *testing.T) {
	store, _ := New(t.TempDir())

	for _, name := range []string{"users/index", "users/u1/financial", "users/u1/settings", "sessions/t1"} {
		if err := store.WriteFile(store.Path(name+".json"), []byte(`{}`), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	names, err := store.Documents("users")
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	sort.Strings(names)
	want := []string{"users/index", "users/u1/financial", "users/u1/settings"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	missing, err := store.Documents("nothing-here")
	if err != nil || len(missing) != 0 {
		t.Errorf("missing dir: got %v, %v", missing, err)
	}

	if err := store.Remove(store.Path("sessions/t1.json")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(store.Path("sessions/t1.json")); err != nil {
		t.Errorf("Remove of missing file should succeed, got %v", err)
	}
	if _, err := store.ReadFile(store.Path("sessions/t1.json")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
}
