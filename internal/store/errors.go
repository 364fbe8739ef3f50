package store

import "errors"

var (
	// ErrNotFound is returned when an id names no record. Nothing is
	// written in that case.
	ErrNotFound = errors.New("record not found")
	// ErrProjectNotFound is returned when a child names a missing project
	ErrProjectNotFound = errors.New("project not found")
	// ErrTaskNotFound is returned when a note or calendar item names a missing task
	ErrTaskNotFound = errors.New("task not found")
	// ErrConflict is returned when every write attempt lost to a concurrent writer
	ErrConflict = errors.New("vault changed concurrently, giving up after retries")
	// ErrInvalid wraps rejected field values
	ErrInvalid = errors.New("invalid value")
	// ErrCorrupt is returned by codecs for undecodable documents
	ErrCorrupt = errors.New("vault document is corrupt")
	// ErrLocked is returned when the vault is encrypted and cannot be opened
	ErrLocked = errors.New("vault is encrypted: passphrase missing or wrong")
)
