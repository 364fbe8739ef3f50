// Package kv is the shared key-value storage the vault lives in. It plays
// the role a browser's localStorage plays for a web client: a handful of
// well-known keys, whole values, and change notifications visible to every
// process that opens the same backend.
package kv

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a key holds no value
	ErrNotFound = errors.New("kv: key not found")
	// ErrConflict is returned when a conditional write loses a race
	ErrConflict = errors.New("kv: revision conflict")
)

// Entry is a stored value with its revision. Revisions are unique across
// the whole backend and increase with every write, so a reader can tell
// that a key changed even if it was deleted and written again.
type Entry struct {
	Key       string
	Value     []byte
	Revision  int64
	UpdatedAt time.Time
}

// Storage is implemented by every backend
type Storage interface {
	// Get returns the entry for key or ErrNotFound
	Get(ctx context.Context, key string) (Entry, error)
	// Put writes value unconditionally and returns the new revision
	Put(ctx context.Context, key string, value []byte) (int64, error)
	// CompareAndSwap writes value only if the key is at revision rev.
	// A rev of 0 means the key must not exist. Losing returns ErrConflict.
	CompareAndSwap(ctx context.Context, key string, value []byte, rev int64) (int64, error)
	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// CompareAndDelete removes key only if it is at revision rev
	CompareAndDelete(ctx context.Context, key string, rev int64) error
	// Close releases the backend
	Close() error
}

// Driver names a storage backend
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)
