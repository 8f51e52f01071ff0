package bored

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCacheConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Cache.Dir = t.TempDir()
	return cfg
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	f := NewFetcher(DefaultConfig())
	req := f.newRequest(mustParseURI(t, "http://www.example.org/one"))

	fp := Fingerprint(req)
	assert.Len(t, fp, 64, "sha-256 hex")
	assert.Equal(t, fp, Fingerprint(req), "deterministic")

	// Headers are not part of the canonical request.
	decorated := f.newRequest(mustParseURI(t, "http://www.example.org/one"))
	decorated.Headers["X-Extra"] = "whatever"
	assert.Equal(t, fp, Fingerprint(decorated))

	otherPath := f.newRequest(mustParseURI(t, "http://www.example.org/two"))
	otherHost := f.newRequest(mustParseURI(t, "http://www.example.com/one"))
	otherPort := f.newRequest(mustParseURI(t, "http://www.example.org:8080/one"))
	assert.NotEqual(t, fp, Fingerprint(otherPath))
	assert.NotEqual(t, fp, Fingerprint(otherHost))
	assert.NotEqual(t, fp, Fingerprint(otherPort))
}

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()

	cache, err := NewCache(testCacheConfig(t), false)
	require.NoError(t, err)
	defer cache.Close()

	f := NewFetcher(DefaultConfig())
	req := f.newRequest(mustParseURI(t, "http://www.example.org/"))

	_, err = cache.Lookup(req)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Insert(req, "hello"))
	body, err := cache.Lookup(req)
	require.NoError(t, err)
	assert.Equal(t, "hello", body)
}

func TestCacheUnsupportedMethod(t *testing.T) {
	t.Parallel()

	cache, err := NewCache(testCacheConfig(t), false)
	require.NoError(t, err)
	defer cache.Close()

	f := NewFetcher(DefaultConfig())
	req := f.newRequest(mustParseURI(t, "http://www.example.org/"))
	req.Method = MethodPost

	_, err = cache.Lookup(req)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()

	cfg := testCacheConfig(t)
	cfg.Cache.TTL = "1h"
	require.NoError(t, cfg.compile())

	cache, err := NewCache(cfg, false)
	require.NoError(t, err)
	defer cache.Close()

	now := time.Unix(1_700_000_000, 0)
	cache.now = func() time.Time { return now }

	f := NewFetcher(DefaultConfig())
	req := f.newRequest(mustParseURI(t, "http://www.example.org/"))
	require.NoError(t, cache.Insert(req, "fresh"))

	body, err := cache.Lookup(req)
	require.NoError(t, err)
	assert.Equal(t, "fresh", body)

	// Past the expiry the entry reads as a miss.
	now = now.Add(2 * time.Hour)
	_, err = cache.Lookup(req)
	assert.ErrorIs(t, err, ErrCacheMiss)

	// With enforcement off the stale entry is still served.
	cache.enforce = false
	body, err = cache.Lookup(req)
	require.NoError(t, err)
	assert.Equal(t, "fresh", body)
}

func TestCacheReinsertAfterExpiry(t *testing.T) {
	t.Parallel()

	cfg := testCacheConfig(t)
	cfg.Cache.TTL = "1h"
	require.NoError(t, cfg.compile())

	cache, err := NewCache(cfg, false)
	require.NoError(t, err)
	defer cache.Close()

	now := time.Unix(1_700_000_000, 0)
	cache.now = func() time.Time { return now }

	f := NewFetcher(DefaultConfig())
	req := f.newRequest(mustParseURI(t, "http://www.example.org/"))
	require.NoError(t, cache.Insert(req, "v1"))

	now = now.Add(2 * time.Hour)
	_, err = cache.Lookup(req)
	require.ErrorIs(t, err, ErrCacheMiss)

	// The refreshed body must be served, not shadowed by the expired entry.
	require.NoError(t, cache.Insert(req, "v2"))
	body, err := cache.Lookup(req)
	require.NoError(t, err)
	assert.Equal(t, "v2", body)
}

func TestFileStoreInsertReplacesEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := newFileStore(dir, false)
	require.NoError(t, err)

	require.NoError(t, store.Insert("abc123", []byte("old"), 1))
	require.NoError(t, store.Insert("abc123", []byte("new"), 9))

	body, expiry, err := store.Lookup("abc123")
	require.NoError(t, err)
	assert.Equal(t, "new", string(body))
	assert.Equal(t, uint64(9), expiry)

	control, err := os.ReadFile(filepath.Join(dir, controlFile))
	require.NoError(t, err)
	assert.Equal(t, "9;abc123", strings.TrimRight(string(control), "\n"),
		"no duplicate control records")
}

func TestCacheNoTTLNeverExpires(t *testing.T) {
	t.Parallel()

	cache, err := NewCache(testCacheConfig(t), false)
	require.NoError(t, err)
	defer cache.Close()

	now := time.Unix(1_700_000_000, 0)
	cache.now = func() time.Time { return now }

	f := NewFetcher(DefaultConfig())
	req := f.newRequest(mustParseURI(t, "http://www.example.org/"))
	require.NoError(t, cache.Insert(req, "forever"))

	now = now.Add(10 * 365 * 24 * time.Hour)
	body, err := cache.Lookup(req)
	require.NoError(t, err)
	assert.Equal(t, "forever", body)
}

func TestFileStoreControlLayout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := newFileStore(dir, false)
	require.NoError(t, err)

	require.NoError(t, store.Insert("abc123", []byte("body bytes"), 42))

	control, err := os.ReadFile(filepath.Join(dir, controlFile))
	require.NoError(t, err)
	assert.Equal(t, "42;abc123", strings.TrimRight(string(control), "\n"))

	body, err := os.ReadFile(filepath.Join(dir, "abc123"))
	require.NoError(t, err)
	assert.Equal(t, "body bytes", string(body))
}

func TestFileStorePersistsAcrossOpens(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := newFileStore(dir, false)
	require.NoError(t, err)
	require.NoError(t, store.Insert("deadbeef", []byte("kept"), 7))

	reopened, err := newFileStore(dir, false)
	require.NoError(t, err)
	body, expiry, err := reopened.Lookup("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "kept", string(body))
	assert.Equal(t, uint64(7), expiry)
}

func TestFileStoreClearOnStart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := newFileStore(dir, false)
	require.NoError(t, err)
	require.NoError(t, store.Insert("deadbeef", []byte("gone"), 0))

	cleared, err := newFileStore(dir, true)
	require.NoError(t, err)
	_, _, err = cleared.Lookup("deadbeef")
	assert.ErrorIs(t, err, ErrCacheMiss)

	control, err := os.ReadFile(filepath.Join(dir, controlFile))
	require.NoError(t, err)
	assert.Empty(t, control)
}

func TestFileStoreRejectsBadControl(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, controlFile), []byte("not-a-record\n"), 0o644))

	_, err := newFileStore(dir, false)
	assert.Error(t, err)
}
