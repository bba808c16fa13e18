package boltstore

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrsteele09/fpl-companion/storage"
	"go.etcd.io/bbolt"
)

const mirrorBucket = "mirror"

var _ storage.Store = (*Store)(nil)

// Store provides a BoltDB-backed durable mirror.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return nil, false, err
	}
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("storage is not configured")
	}

	var (
		value []byte
		found bool
	)
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(mirrorBucket))
		if bucket == nil {
			return fmt.Errorf("mirror bucket is missing")
		}
		// bbolt values are only valid for the life of the transaction
		if v := bucket.Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
			found = true
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, found, nil
}

func (s *Store) Set(key string, value []byte) error {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if value == nil {
		value = []byte{}
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(mirrorBucket))
		if bucket == nil {
			return fmt.Errorf("mirror bucket is missing")
		}
		return bucket.Put([]byte(key), value)
	})
}

func (s *Store) Remove(key string) error {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(mirrorBucket))
		if bucket == nil {
			return fmt.Errorf("mirror bucket is missing")
		}
		return bucket.Delete([]byte(key))
	})
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(mirrorBucket)); err != nil {
			return fmt.Errorf("create mirror bucket: %w", err)
		}
		return nil
	})
}
