package data

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketFailures = []byte("failures")

// BoltFailureStore keeps failure records between runs so a later "retry" can re-drive them.
type BoltFailureStore struct {
	db *bolt.DB
}

func OpenFailureStore(path string) (*BoltFailureStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFailures)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltFailureStore{db: db}, nil
}

func (s *BoltFailureStore) Close() error {
	return s.db.Close()
}

// Put appends records after any already stored.
func (s *BoltFailureStore) Put(records []FailureRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFailures)
		for _, rec := range records {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			value, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put(sequenceKey(seq), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Take returns every stored record in insertion order and clears the store.
func (s *BoltFailureStore) Take() ([]FailureRecord, error) {
	var records []FailureRecord
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFailures)
		err := b.ForEach(func(_, v []byte) error {
			var rec FailureRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
		if err != nil {
			return err
		}
		if err := tx.DeleteBucket(bucketFailures); err != nil {
			return err
		}
		_, err = tx.CreateBucket(bucketFailures)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take failure records: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *BoltFailureStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketFailures).Stats().KeyN
		return nil
	})
	return n, err
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
