package scalar

import (
	"context"
	"errors"
	"fmt"

	"github.com/rhurkes/wx-storage/internal/namespace"
	pebblestore "github.com/rhurkes/wx-storage/internal/storage/pebble"
)

// FormatVersion of the general namespace.
const FormatVersion = 1

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("scalar key not found")
	// ErrWriteFailed wraps engine write failures.
	ErrWriteFailed = errors.New("write failed")
	// ErrEmptyKey rejects the empty key, which would alias the namespace prefix.
	ErrEmptyKey = errors.New("empty scalar key")
)

// Store is the scalar key/value store.
type Store struct {
	db *pebblestore.DB
}

// Open verifies the general namespace and returns a Store over db.
func Open(db *pebblestore.DB) (*Store, error) {
	if _, err := namespace.EnsureNamespace(db, namespace.General, FormatVersion); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func dataKey(key string) []byte {
	return namespace.Key(namespace.General, []byte(key))
}

// Put durably writes value under key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Set(dataKey(key), value); err != nil {
		return fmt.Errorf("%w: put %q: %v", ErrWriteFailed, key, err)
	}
	return nil
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := s.db.Get(dataKey(key))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Delete(dataKey(key)); err != nil {
		return fmt.Errorf("%w: delete %q: %v", ErrWriteFailed, key, err)
	}
	return nil
}
