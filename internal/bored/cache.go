package bored

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Fingerprint hashes the canonical request: URL path plus, when present,
// authority host and port. Header values are deliberately excluded so the
// same resource hits the same entry regardless of request decoration.
func Fingerprint(req *Request) string {
	h := sha256.New()
	h.Write([]byte(req.URI.Path))
	if a := req.URI.Authority; a != nil {
		h.Write([]byte(a.Host))
		h.Write([]byte(strconv.Itoa(a.Port)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

type CacheEntry struct {
	Expiry      uint64 // unix seconds, 0 = never expires
	Fingerprint string
}

// Store is the persistence backend behind the cache. Lookup returns
// ErrCacheMiss when the fingerprint is unknown.
type Store interface {
	Lookup(fingerprint string) (body []byte, expiry uint64, err error)
	Insert(fingerprint string, body []byte, expiry uint64) error
	Clear() error
	Close() error
}

// Cache gates the store behind the request method and the expiry policy.
// Process-local; sharing a cache directory between processes is not safe.
type Cache struct {
	store   Store
	enforce bool
	ttl     time.Duration
	now     func() time.Time
}

func NewCache(cfg Config, clearOnStart bool) (*Cache, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Cache.Backend {
	case BackendFile, "":
		store, err = newFileStore(cfg.Cache.Dir, clearOnStart)
	case BackendLevelDB:
		store, err = newLevelStore(cfg.Cache.Dir)
	case BackendSQLite:
		store, err = newSQLiteStore(cfg.Cache.Dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	if err != nil {
		return nil, err
	}
	if clearOnStart && cfg.Cache.Backend != BackendFile && cfg.Cache.Backend != "" {
		if err := store.Clear(); err != nil {
			store.Close()
			return nil, err
		}
	}
	return &Cache{
		store:   store,
		enforce: cfg.Cache.EnforceExpiry,
		ttl:     cfg.cacheTTL,
		now:     time.Now,
	}, nil
}

// Lookup serves read-style requests only; anything but GET bypasses the
// cache via ErrUnsupportedMethod. An entry past its expiry is a miss when
// enforcement is on.
func (c *Cache) Lookup(req *Request) (string, error) {
	if req.Method != MethodGet {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMethod, req.Method)
	}
	body, expiry, err := c.store.Lookup(Fingerprint(req))
	if err != nil {
		return "", err
	}
	if c.enforce && expiry > 0 && uint64(c.now().Unix()) > expiry {
		return "", fmt.Errorf("%w: entry expired", ErrCacheMiss)
	}
	return string(body), nil
}

func (c *Cache) Insert(req *Request, body string) error {
	var expiry uint64
	if c.ttl > 0 {
		expiry = uint64(c.now().Add(c.ttl).Unix())
	}
	return c.store.Insert(Fingerprint(req), []byte(body), expiry)
}

func (c *Cache) Clear() error { return c.store.Clear() }
func (c *Cache) Close() error { return c.store.Close() }

// ---- file store ----

// fileStore is the canonical on-disk layout: one file per fingerprint plus
// a control file of "expiry;fingerprint" lines, rewritten in full on every
// insert. Not append-only, not atomic.
const controlFile = ".control"

type fileStore struct {
	dir     string
	entries []CacheEntry
}

func newFileStore(dir string, clearOnStart bool) (*fileStore, error) {
	s := &fileStore{dir: dir}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return s, s.initDir()
	case err != nil:
		return nil, err
	case !info.IsDir():
		return nil, fmt.Errorf("cache path %s is not a directory", dir)
	}

	if clearOnStart {
		return s, s.Clear()
	}
	return s, s.loadControl()
}

func (s *fileStore) initDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.controlPath(), nil, 0o644)
}

func (s *fileStore) controlPath() string { return filepath.Join(s.dir, controlFile) }

func (s *fileStore) loadControl() error {
	data, err := os.ReadFile(s.controlPath())
	if os.IsNotExist(err) {
		return os.WriteFile(s.controlPath(), nil, 0o644)
	}
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		expiryText, fingerprint, found := strings.Cut(line, ";")
		if !found {
			return fmt.Errorf("bad control line %q", line)
		}
		expiry, err := strconv.ParseUint(expiryText, 10, 64)
		if err != nil {
			return fmt.Errorf("bad control line %q: %v", line, err)
		}
		s.entries = append(s.entries, CacheEntry{Expiry: expiry, Fingerprint: fingerprint})
	}
	return nil
}

func (s *fileStore) writeControl() error {
	lines := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		lines = append(lines, fmt.Sprintf("%d;%s", e.Expiry, e.Fingerprint))
	}
	return os.WriteFile(s.controlPath(), []byte(strings.Join(lines, "\n")), 0o644)
}

func (s *fileStore) Lookup(fingerprint string) ([]byte, uint64, error) {
	for _, e := range s.entries {
		if e.Fingerprint != fingerprint {
			continue
		}
		body, err := os.ReadFile(filepath.Join(s.dir, e.Fingerprint))
		if err != nil {
			return nil, 0, err
		}
		return body, e.Expiry, nil
	}
	return nil, 0, ErrCacheMiss
}

func (s *fileStore) Insert(fingerprint string, body []byte, expiry uint64) error {
	if err := os.WriteFile(filepath.Join(s.dir, fingerprint), body, 0o644); err != nil {
		return err
	}
	// Re-inserting an existing fingerprint replaces its entry; otherwise a
	// stale expiry would shadow the fresh body on every lookup.
	for i := range s.entries {
		if s.entries[i].Fingerprint == fingerprint {
			s.entries[i].Expiry = expiry
			return s.writeControl()
		}
	}
	s.entries = append(s.entries, CacheEntry{Expiry: expiry, Fingerprint: fingerprint})
	return s.writeControl()
}

func (s *fileStore) Clear() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return err
	}
	s.entries = nil
	return s.initDir()
}

func (s *fileStore) Close() error { return nil }
