package docstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinq/internal/services/storage"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	st, err := storage.New(t.TempDir())
	require.NoError(t, err)

	sq, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "blinq.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		BackendMemory: NewMemory(),
		BackendFile:   NewFile(st),
		BackendSQLite: sq,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "users/u1/financial")
			assert.ErrorIs(t, err, ErrNotFound)

			rev1, err := s.Put(ctx, "users/u1/financial", []byte(`{"a":1}`), "")
			require.NoError(t, err)
			require.NotEmpty(t, rev1)

			doc, err := s.Get(ctx, "users/u1/financial")
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(doc.Data))
			assert.Equal(t, rev1, doc.Revision)
			assert.False(t, doc.UpdatedAt.IsZero())

			rev2, err := s.Put(ctx, "users/u1/financial", []byte(`{"a":2}`), rev1)
			require.NoError(t, err)
			assert.NotEqual(t, rev1, rev2)

			_, err = s.Put(ctx, "users/u1/financial", []byte(`{"a":3}`), rev1)
			assert.ErrorIs(t, err, ErrConflict, "stale revision must be rejected")

			doc, err = s.Get(ctx, "users/u1/financial")
			require.NoError(t, err)
			assert.Equal(t, `{"a":2}`, string(doc.Data))

			_, err = s.Put(ctx, "users/u1/financial", []byte(`{"a":4}`), Absent)
			assert.ErrorIs(t, err, ErrConflict, "Absent must not overwrite an existing key")

			_, err = s.Put(ctx, "users/u2/financial", []byte(`{}`), Absent)
			require.NoError(t, err)
			_, err = s.Put(ctx, "sessions/tok", []byte(`{}`), "")
			require.NoError(t, err)

			keys, err := s.List(ctx, "users/")
			require.NoError(t, err)
			assert.Equal(t, []string{"users/u1/financial", "users/u2/financial"}, keys)

			require.NoError(t, s.Delete(ctx, "sessions/tok"))
			require.NoError(t, s.Delete(ctx, "sessions/tok"))
			_, err = s.Get(ctx, "sessions/tok")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestInvalidKeys(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../etc/passwd", "users//x", "/abs", "a b"} {
				_, err := s.Put(ctx, key, []byte(`{}`), "")
				assert.ErrorIs(t, err, ErrInvalidKey, key)
			}
		})
	}
}

func TestConcurrentCompareAndSwap(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rev, err := s.Put(ctx, "counter", []byte(`0`), "")
			require.NoError(t, err)

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				winners int
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if _, err := s.Put(ctx, "counter", []byte{byte('1' + i)}, rev); err == nil {
						mu.Lock()
						winners++
						mu.Unlock()
					}
				}(i)
			}
			wg.Wait()

			assert.Equal(t, 1, winners, "exactly one writer may win a revision")
		})
	}
}

func TestFileStoreEncrypted(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := storage.New(dir)
	require.NoError(t, err)
	require.NoError(t, st.EnableEncryption("testpassword123"))

	s := NewFile(st)
	rev, err := s.Put(ctx, "users/u1/settings", []byte(`{"currency":"USD"}`), "")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "users", "u1", "settings.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "USD")

	doc, err := s.Get(ctx, "users/u1/settings")
	require.NoError(t, err)
	assert.Equal(t, `{"currency":"USD"}`, string(doc.Data))
	assert.Equal(t, rev, doc.Revision, "revision is computed from plaintext")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open(ctx, Options{Backend: BackendFile})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: "postgres"})
	assert.Error(t, err)
}
