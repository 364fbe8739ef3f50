// Package store is the only reader and writer of the vault document.
//
// The whole vault is one document under a single storage key. Every
// mutation reads it, edits the copy and writes it back with a
// compare-and-swap on the revision it read, so writers in other processes
// never silently overwrite each other: the loser re-reads and retries.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/existflow/ironvault/internal/kv"
	"github.com/existflow/ironvault/internal/logger"
	"github.com/existflow/ironvault/internal/model"
)

const (
	// DocumentKey is the storage key of the vault document
	DocumentKey = "notnotes_db_v1"
	// DefaultMaxAttempts bounds the read-modify-write retries of a mutation
	DefaultMaxAttempts = 5
)

// errUnchanged aborts a mutation without writing and without failing
var errUnchanged = errors.New("unchanged")

// Store reads and mutates the vault document
type Store struct {
	kv          kv.Storage
	codec       Codec
	key         string
	log         *logger.Logger
	now         func() time.Time
	maxAttempts int

	mu sync.Mutex // serialises mutations of this Store
}

// Option configures a Store
type Option func(*Store)

// WithCodec replaces the plain JSON codec, e.g. with a SealedCodec
func WithCodec(c Codec) Option {
	return func(s *Store) { s.codec = c }
}

// WithKey stores the document under another key
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger; the default is the global one
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxAttempts overrides DefaultMaxAttempts
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// New returns a Store over storage
func New(storage kv.Storage, opts ...Option) *Store {
	s := &Store{
		kv:          storage,
		codec:       JSONCodec{},
		key:         DocumentKey,
		log:         logger.Default(),
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithFields(logger.F("component", "store"))
	return s
}

// Storage returns the backend the store lives in
func (s *Store) Storage() kv.Storage {
	return s.kv
}

// Key returns the storage key of the document
func (s *Store) Key() string {
	return s.key
}

// Load returns the whole vault. An absent document is initialised to the
// empty seed; a corrupt one is set aside under "<key>.corrupt" and reset.
func (s *Store) Load(ctx context.Context) (*model.Document, error) {
	doc, _, err := s.read(ctx)
	return doc, err
}

// Save persists doc as the whole vault, replacing whatever is stored
func (s *Store) Save(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.Normalize()
	data, err := s.codec.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode vault: %w", err)
	}
	if _, err := s.kv.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	return nil
}

// read returns the document and the revision it was read at
func (s *Store) read(ctx context.Context) (*model.Document, int64, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		entry, err := s.kv.Get(ctx, s.key)
		if errors.Is(err, kv.ErrNotFound) {
			doc, rev, err := s.seed(ctx, 0)
			if errors.Is(err, kv.ErrConflict) {
				continue
			}
			return doc, rev, err
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read vault: %w", err)
		}

		doc, err := s.codec.Decode(entry.Value)
		if err == nil {
			if doc.Skipped > 0 {
				s.log.Warn("Vault document has unreadable records, leaving them out",
					logger.F("skipped", doc.Skipped), logger.F("revision", entry.Revision))
				s.keepCorrupt(ctx, entry.Value)
			}
			return doc, entry.Revision, nil
		}
		if !errors.Is(err, ErrCorrupt) {
			return nil, 0, err
		}

		s.log.Warn("Vault document is corrupt, resetting to an empty vault",
			logger.Err(err), logger.F("revision", entry.Revision))
		s.keepCorrupt(ctx, entry.Value)
		doc, rev, err := s.seed(ctx, entry.Revision)
		if errors.Is(err, kv.ErrConflict) {
			continue
		}
		return doc, rev, err
	}
	return nil, 0, ErrConflict
}

// keepCorrupt copies raw aside so records dropped on load can be recovered
func (s *Store) keepCorrupt(ctx context.Context, raw []byte) {
	if _, err := s.kv.Put(ctx, s.key+".corrupt", raw); err != nil {
		s.log.Error("Failed to keep a copy of the corrupt vault", logger.Err(err))
	}
}

// seed writes the empty document if the key is still at rev
func (s *Store) seed(ctx context.Context, rev int64) (*model.Document, int64, error) {
	doc := model.NewDocument()
	data, err := s.codec.Encode(doc)
	if err != nil {
		return nil, 0, fmt.Errorf("encode vault: %w", err)
	}
	newRev, err := s.kv.CompareAndSwap(ctx, s.key, data, rev)
	if err != nil {
		if errors.Is(err, kv.ErrConflict) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("initialise vault: %w", err)
	}
	return doc, newRev, nil
}

// mutate runs fn on a fresh copy of the document and writes the result if
// the document did not change meanwhile, re-running fn on conflict. fn may
// run several times and must assign, not accumulate, its results. An
// error from fn aborts without writing.
func (s *Store) mutate(ctx context.Context, fn func(doc *model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		doc, rev, err := s.read(ctx)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			if errors.Is(err, errUnchanged) {
				return nil
			}
			return err
		}

		data, err := s.codec.Encode(doc)
		if err != nil {
			return fmt.Errorf("encode vault: %w", err)
		}
		_, err = s.kv.CompareAndSwap(ctx, s.key, data, rev)
		if err == nil {
			return nil
		}
		if !errors.Is(err, kv.ErrConflict) {
			return fmt.Errorf("write vault: %w", err)
		}
		s.log.Warn("Vault changed during write, retrying",
			logger.F("attempt", attempt), logger.F("revision", rev))
	}
	return ErrConflict
}

// view runs fn on a fresh copy of the document
func (s *Store) view(ctx context.Context, fn func(doc *model.Document)) error {
	doc, _, err := s.read(ctx)
	if err != nil {
		return err
	}
	fn(doc)
	return nil
}

func (s *Store) timestamp() model.Timestamp {
	return model.TimestampOf(s.now())
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}

func hasProject(doc *model.Document, id string) bool {
	return projectIndex(doc, id) >= 0
}

func projectIndex(doc *model.Document, id string) int {
	for i := range doc.Projects {
		if doc.Projects[i].ID == id {
			return i
		}
	}
	return -1
}

func taskIndex(doc *model.Document, id string) int {
	for i := range doc.Tasks {
		if doc.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// requireProject checks the parent of a new child record
func requireProject(doc *model.Document, id string) error {
	if id == "" || !hasProject(doc, id) {
		return fmt.Errorf("%w: %q", ErrProjectNotFound, id)
	}
	return nil
}

// requireTask checks an optional task link
func requireTask(doc *model.Document, id string) error {
	if id != "" && taskIndex(doc, id) < 0 {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	return nil
}
