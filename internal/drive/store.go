// Package drive persists named scan results ("drives") in a local BoltDB
// database.
//
// Each drive is one record: the user-chosen name maps to the serialized entry
// tree of a completed scan. The store only promises losslessness - loading a
// drive reproduces a tree with identical fingerprints, byte counts, kinds,
// and shape. The value layout is an implementation detail of the tree codec.
package drive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Possseidon/ssdedupe/internal/entry"
)

const bucketName = "drives"

// Store is a handle to the drive database. Open one per process; BoltDB's
// file lock keeps concurrent instances out.
type Store struct {
	db *bolt.DB
}

// Open opens the drive database at path, creating it (and its directory) as
// needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create drive store dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open drive store (locked by another instance?): %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init drive store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a scanned tree under name, replacing any existing drive with
// that name.
func (s *Store) Save(name string, e *entry.Entry) error {
	data, err := e.Encode()
	if err != nil {
		return err
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(name), data)
	}); err != nil {
		return fmt.Errorf("save drive %q: %w", name, err)
	}
	return nil
}

// SaveUnique stores a scanned tree under name, appending " (1)", " (2)", ...
// until an unused name is found. Returns the name actually used.
func (s *Store) SaveUnique(name string, e *entry.Entry) (string, error) {
	data, err := e.Encode()
	if err != nil {
		return "", err
	}

	final := name
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		for i := 1; b.Get([]byte(final)) != nil; i++ {
			final = fmt.Sprintf("%s (%d)", name, i)
		}
		return b.Put([]byte(final), data)
	}); err != nil {
		return "", fmt.Errorf("save drive %q: %w", name, err)
	}
	return final, nil
}

// Load reads the tree stored under name.
func (s *Store) Load(name string) (*entry.Entry, error) {
	var data []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketName)).Get([]byte(name)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load drive %q: %w", name, err)
	}
	if data == nil {
		return nil, fmt.Errorf("drive %q not found", name)
	}
	return entry.Decode(data)
}

// List returns all drive names in lexicographic order.
func (s *Store) List() ([]string, error) {
	var names []string
	if err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("list drives: %w", err)
	}
	return names, nil
}

// Rename moves a drive to a new name. Fails if the old name is missing or the
// new name is taken.
func (s *Store) Rename(oldName, newName string) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		v := b.Get([]byte(oldName))
		if v == nil {
			return fmt.Errorf("drive %q not found", oldName)
		}
		if b.Get([]byte(newName)) != nil {
			return fmt.Errorf("drive %q already exists", newName)
		}
		data := make([]byte, len(v))
		copy(data, v)
		if err := b.Put([]byte(newName), data); err != nil {
			return err
		}
		return b.Delete([]byte(oldName))
	}); err != nil {
		return fmt.Errorf("rename drive: %w", err)
	}
	return nil
}

// Delete removes a drive. Fails if it does not exist.
func (s *Store) Delete(name string) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b.Get([]byte(name)) == nil {
			return fmt.Errorf("drive %q not found", name)
		}
		return b.Delete([]byte(name))
	}); err != nil {
		return fmt.Errorf("delete drive: %w", err)
	}
	return nil
}
