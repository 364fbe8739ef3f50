package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	out := map[string]Storage{"memory": NewMemory()}

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	out["sqlite"] = sqlite

	if dsn := os.Getenv("IRONVAULT_TEST_POSTGRES_DSN"); dsn != "" {
		pg, err := OpenPostgres(context.Background(), dsn)
		require.NoError(t, err)
		require.NoError(t, pg.Delete(context.Background(), "k"))
		out["postgres"] = pg
	}

	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})
	return out
}

func TestStorageContract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrNotFound)

			r1, err := s.CompareAndSwap(ctx, "k", []byte("one"), 0)
			require.NoError(t, err)
			assert.Positive(t, r1)

			_, err = s.CompareAndSwap(ctx, "k", []byte("dup"), 0)
			assert.ErrorIs(t, err, ErrConflict, "create-only write on existing key")

			e, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "one", string(e.Value))
			assert.Equal(t, r1, e.Revision)

			r2, err := s.CompareAndSwap(ctx, "k", []byte("two"), r1)
			require.NoError(t, err)
			assert.Greater(t, r2, r1)

			_, err = s.CompareAndSwap(ctx, "k", []byte("stale"), r1)
			assert.ErrorIs(t, err, ErrConflict)

			r3, err := s.Put(ctx, "k", []byte("three"))
			require.NoError(t, err)
			assert.Greater(t, r3, r2)

			assert.ErrorIs(t, s.CompareAndDelete(ctx, "k", r2), ErrConflict)
			require.NoError(t, s.CompareAndDelete(ctx, "k", r3))
			_, err = s.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrNotFound)

			// revisions never repeat after a delete
			r4, err := s.Put(ctx, "k", []byte("four"))
			require.NoError(t, err)
			assert.Greater(t, r4, r3)

			require.NoError(t, s.Delete(ctx, "k"))
			require.NoError(t, s.Delete(ctx, "k"), "deleting a missing key")
		})
	}
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vault.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	rev, err := s.Put(ctx, "doc", []byte(`{"projects":[]}`))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	e, err := s.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, rev, e.Revision)
	assert.JSONEq(t, `{"projects":[]}`, string(e.Value))
	assert.WithinDuration(t, time.Now(), e.UpdatedAt, time.Minute)
}

func TestWatchReportsChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewMemory()
	_, err := s.Put(ctx, "other", []byte("x"))
	require.NoError(t, err)

	changes := Watch(ctx, s, 5*time.Millisecond, "inbox")
	time.Sleep(20 * time.Millisecond)

	rev, err := s.Put(ctx, "inbox", []byte("payload"))
	require.NoError(t, err)

	select {
	case c := <-changes:
		assert.Equal(t, Change{Key: "inbox", Revision: rev}, c)
	case <-time.After(2 * time.Second):
		t.Fatal("no change observed")
	}

	require.NoError(t, s.Delete(ctx, "inbox"))
	select {
	case c := <-changes:
		assert.True(t, c.Deleted)
	case <-time.After(2 * time.Second):
		t.Fatal("no delete observed")
	}

	cancel()
	for range changes {
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "etcd"})
	assert.Error(t, err)
}
