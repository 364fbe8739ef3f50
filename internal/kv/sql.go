package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// dialect holds the statements a SQL backend runs. Every write first draws
// a revision from nextRevision inside the same transaction.
type dialect struct {
	nextRevision   string // -> revision
	get            string // key -> value, revision, updated_at
	upsert         string // key, value, revision, updated_at
	insertIfAbsent string // key, value, revision, updated_at
	updateIf       string // key, value, revision, updated_at, expected revision
	remove         string // key
	removeIf       string // key, expected revision
}

// sqlStore implements Storage over database/sql
type sqlStore struct {
	db *sql.DB
	d  dialect
}

func (s *sqlStore) Get(ctx context.Context, key string) (Entry, error) {
	var (
		e       Entry
		updated string
	)
	err := s.db.QueryRowContext(ctx, s.d.get, key).Scan(&e.Value, &e.Revision, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", key, err)
	}
	e.Key = key
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return e, nil
}

func (s *sqlStore) Put(ctx context.Context, key string, value []byte) (int64, error) {
	return s.write(ctx, key, func(tx *sql.Tx, rev int64, now string) (bool, error) {
		_, err := tx.ExecContext(ctx, s.d.upsert, key, value, rev, now)
		return err == nil, err
	})
}

func (s *sqlStore) CompareAndSwap(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	return s.write(ctx, key, func(tx *sql.Tx, rev int64, now string) (bool, error) {
		var (
			res sql.Result
			err error
		)
		if expected == 0 {
			res, err = tx.ExecContext(ctx, s.d.insertIfAbsent, key, value, rev, now)
		} else {
			res, err = tx.ExecContext(ctx, s.d.updateIf, key, value, rev, now, expected)
		}
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		return n == 1, err
	})
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.d.remove, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *sqlStore) CompareAndDelete(ctx context.Context, key string, expected int64) error {
	res, err := s.db.ExecContext(ctx, s.d.removeIf, key, expected)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// write runs apply in a transaction with a freshly drawn revision and
// commits only if apply reports the row was written
func (s *sqlStore) write(ctx context.Context, key string, apply func(tx *sql.Tx, rev int64, now string) (bool, error)) (rev int64, retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin write %s: %w", key, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if err := tx.QueryRowContext(ctx, s.d.nextRevision).Scan(&rev); err != nil {
		return 0, fmt.Errorf("next revision: %w", err)
	}
	ok, err := apply(tx, rev, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", key, err)
	}
	if !ok {
		return 0, ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s: %w", key, err)
	}
	return rev, nil
}
