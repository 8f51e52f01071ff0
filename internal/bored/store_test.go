package bored

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every backend must satisfy the same Store contract.
func TestStoreBackends(t *testing.T) {
	t.Parallel()

	backends := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{name: BackendFile, open: func(t *testing.T) Store {
			s, err := newFileStore(t.TempDir(), false)
			require.NoError(t, err)
			return s
		}},
		{name: BackendLevelDB, open: func(t *testing.T) Store {
			s, err := newLevelStore(t.TempDir())
			require.NoError(t, err)
			return s
		}},
		{name: BackendSQLite, open: func(t *testing.T) Store {
			s, err := newSQLiteStore(t.TempDir())
			require.NoError(t, err)
			return s
		}},
	}

	for _, backend := range backends {
		backend := backend
		t.Run(backend.name, func(t *testing.T) {
			t.Parallel()

			store := backend.open(t)
			defer store.Close()

			_, _, err := store.Lookup("unknown")
			assert.ErrorIs(t, err, ErrCacheMiss)

			require.NoError(t, store.Insert("fp-one", []byte("first body"), 100))
			require.NoError(t, store.Insert("fp-two", []byte("second body"), 0))

			body, expiry, err := store.Lookup("fp-one")
			require.NoError(t, err)
			assert.Equal(t, "first body", string(body))
			assert.Equal(t, uint64(100), expiry)

			body, expiry, err = store.Lookup("fp-two")
			require.NoError(t, err)
			assert.Equal(t, "second body", string(body))
			assert.Zero(t, expiry)

			require.NoError(t, store.Clear())
			_, _, err = store.Lookup("fp-one")
			assert.ErrorIs(t, err, ErrCacheMiss)
			_, _, err = store.Lookup("fp-two")
			assert.ErrorIs(t, err, ErrCacheMiss)
		})
	}
}

func TestCacheBackendSelection(t *testing.T) {
	t.Parallel()

	for _, backend := range []string{BackendFile, BackendLevelDB, BackendSQLite} {
		backend := backend
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.Cache.Dir = t.TempDir()
			cfg.Cache.Backend = backend

			cache, err := NewCache(cfg, false)
			require.NoError(t, err)
			defer cache.Close()

			f := NewFetcher(DefaultConfig())
			req := f.newRequest(mustParseURI(t, "http://www.example.org/"))
			require.NoError(t, cache.Insert(req, "stored"))

			body, err := cache.Lookup(req)
			require.NoError(t, err)
			assert.Equal(t, "stored", body)
		})
	}
}

func TestCacheUnknownBackend(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Cache.Dir = t.TempDir()
	cfg.Cache.Backend = "redis"

	_, err := NewCache(cfg, false)
	assert.Error(t, err)
}

func TestCacheClearOnStart(t *testing.T) {
	t.Parallel()

	for _, backend := range []string{BackendFile, BackendLevelDB, BackendSQLite} {
		backend := backend
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.Cache.Dir = t.TempDir()
			cfg.Cache.Backend = backend

			cache, err := NewCache(cfg, false)
			require.NoError(t, err)
			f := NewFetcher(DefaultConfig())
			req := f.newRequest(mustParseURI(t, "http://www.example.org/"))
			require.NoError(t, cache.Insert(req, "stale"))
			require.NoError(t, cache.Close())

			cache, err = NewCache(cfg, true)
			require.NoError(t, err)
			defer cache.Close()
			_, err = cache.Lookup(req)
			assert.ErrorIs(t, err, ErrCacheMiss)
		})
	}
}
