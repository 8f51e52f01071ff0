package bored

import (
	"bytes"
	"encoding/gob"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
)

// levelStore keeps cache entries in a LevelDB database. Unlike the file
// store's full control-file rewrite, every insert is a single atomic write,
// so a crash mid-insert cannot corrupt the index.
type levelStore struct {
	db *leveldb.DB
}

type levelEntry struct {
	Expiry uint64
	Body   []byte
}

func newLevelStore(dir string) (*levelStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	return &levelStore{db: db}, nil
}

func entryKey(fingerprint string) []byte { return []byte("e:" + fingerprint) }

func (s *levelStore) Lookup(fingerprint string) ([]byte, uint64, error) {
	b, err := s.db.Get(entryKey(fingerprint), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, 0, ErrCacheMiss
	}
	if err != nil {
		return nil, 0, err
	}
	var ent levelEntry
	if err := decodeGob(b, &ent); err != nil {
		return nil, 0, err
	}
	return ent.Body, ent.Expiry, nil
}

func (s *levelStore) Insert(fingerprint string, body []byte, expiry uint64) error {
	b, err := encodeGob(levelEntry{Expiry: expiry, Body: body})
	if err != nil {
		return err
	}
	return s.db.Put(entryKey(fingerprint), b, nil)
}

func (s *levelStore) Clear() error {
	it := s.db.NewIterator(nil, nil)
	defer it.Release()

	batch := new(leveldb.Batch)
	for it.Next() {
		batch.Delete(append([]byte(nil), it.Key()...))
	}
	if err := it.Error(); err != nil {
		return err
	}
	return s.db.Write(batch, nil)
}

func (s *levelStore) Close() error { return s.db.Close() }

// ---- encoding ----

func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(b []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}
