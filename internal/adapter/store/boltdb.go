package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"docshelf/internal/domain"
)

var (
	bucketRecords    = []byte("records")
	bucketMeta       = []byte("meta")
	keySchemaVersion = []byte("schema_version")
)

// BoltStore persists the library in a bbolt database, one record per
// document. Every mutation is a single read-write transaction.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketRecords, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db}
	if err := s.checkSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle for tests and tooling.
func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

// checkSchema stamps a fresh database with the current schema version and
// refuses databases written by a newer build.
func (s *BoltStore) checkSchema() error {
	var stored int
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &stored)
	})
	if err != nil {
		return fmt.Errorf("%w: reading schema version: %v", domain.ErrCorruptStore, err)
	}

	if stored > currentLibraryVersion {
		return fmt.Errorf("%w: database has schema version %d, this build reads up to %d",
			domain.ErrCorruptStore, stored, currentLibraryVersion)
	}

	if stored == currentLibraryVersion {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(currentLibraryVersion)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
	})
}

func (s *BoltStore) Load(ctx context.Context) (map[string]domain.LibraryRecord, error) {
	records := make(map[string]domain.LibraryRecord)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			var rec persistRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("%w: record %s: %v", domain.ErrCorruptStore, k, err)
			}
			records[string(k)] = decodeRecord(string(k), rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Save replaces the full library state in one transaction.
func (s *BoltStore) Save(ctx context.Context, records map[string]domain.LibraryRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)

		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		for docID, rec := range records {
			data, err := json.Marshal(encodeRecord(rec))
			if err != nil {
				return err
			}
			if err := b.Put([]byte(docID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Upsert(ctx context.Context, rec domain.LibraryRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(encodeRecord(rec))
		if err != nil {
			return err
		}
		return tx.Bucket(bucketRecords).Put([]byte(rec.Document.ID), data)
	})
}

func (s *BoltStore) Delete(ctx context.Context, docID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).Delete([]byte(docID))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
