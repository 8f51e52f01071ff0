package bored

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteStore keeps cache entries in a single SQLite database file under
// the cache directory.
type sqliteStore struct {
	db *sql.DB
}

func newSQLiteStore(dir string) (*sqliteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", filepath.Join(dir, "cache.sqlite3"))
	if err != nil {
		return nil, err
	}
	_, err = db.Exec("CREATE TABLE IF NOT EXISTS Entries (Fingerprint TEXT PRIMARY KEY, Expiry INTEGER, Body BLOB)")
	if err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Lookup(fingerprint string) ([]byte, uint64, error) {
	var (
		body   []byte
		expiry uint64
	)
	row := s.db.QueryRow("SELECT Expiry, Body FROM Entries WHERE Fingerprint = ?", fingerprint)
	err := row.Scan(&expiry, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrCacheMiss
	}
	if err != nil {
		return nil, 0, err
	}
	return body, expiry, nil
}

func (s *sqliteStore) Insert(fingerprint string, body []byte, expiry uint64) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO Entries (Fingerprint, Expiry, Body) VALUES (?, ?, ?)",
		fingerprint, expiry, body,
	)
	return err
}

func (s *sqliteStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM Entries")
	return err
}

func (s *sqliteStore) Close() error { return s.db.Close() }
