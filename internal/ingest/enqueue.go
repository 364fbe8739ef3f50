package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/existflow/ironvault/internal/kv"
)

// maxEnqueueAttempts bounds the compare-and-swap loop of EnqueueDecks
const maxEnqueueAttempts = 5

// EnqueueCommit drops a commit for the inbox, replacing any commit that
// was not drained yet
func EnqueueCommit(ctx context.Context, s kv.Storage, c Commit) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if _, err := s.Put(ctx, CommitKey, data); err != nil {
		return fmt.Errorf("enqueue commit: %w", err)
	}
	return nil
}

// EnqueueDecks appends decks to the deck queue. An unreadable queue is
// replaced.
func EnqueueDecks(ctx context.Context, s kv.Storage, decks ...IncomingDeck) error {
	if len(decks) == 0 {
		return nil
	}
	for attempt := 0; attempt < maxEnqueueAttempts; attempt++ {
		var (
			queue []json.RawMessage
			rev   int64
		)
		entry, err := s.Get(ctx, DeckQueueKey)
		switch {
		case errors.Is(err, kv.ErrNotFound):
		case err != nil:
			return fmt.Errorf("read deck queue: %w", err)
		default:
			rev = entry.Revision
			if json.Unmarshal(entry.Value, &queue) != nil {
				queue = nil
			}
		}

		for _, d := range decks {
			raw, err := json.Marshal(d)
			if err != nil {
				return err
			}
			queue = append(queue, raw)
		}
		data, err := json.Marshal(queue)
		if err != nil {
			return err
		}

		_, err = s.CompareAndSwap(ctx, DeckQueueKey, data, rev)
		if err == nil {
			return nil
		}
		if !errors.Is(err, kv.ErrConflict) {
			return fmt.Errorf("enqueue decks: %w", err)
		}
	}
	return fmt.Errorf("enqueue decks: %w", kv.ErrConflict)
}
