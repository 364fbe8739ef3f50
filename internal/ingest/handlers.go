package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
)

// Handler knows one payload shape
type Handler interface {
	// Name is used in logs, e.g. "commit"
	Name() string
	// Key is the storage key the payload is dropped under
	Key() string
	// Decode splits a pending payload into items. An error means the
	// whole payload is malformed.
	Decode(raw []byte) ([]Item, error)
}

// Env is what an item needs to materialise its records
type Env struct {
	Store    *store.Store
	Inbox    model.Project
	Received string // used when the payload carries no timestamp
}

// Item is one independently ingested unit of a payload
type Item interface {
	// Materialise writes the item's records. created is false when the
	// item was already ingested.
	Materialise(ctx context.Context, env Env) (created bool, err error)
	// Source names the sending tool
	Source() string
	// Announcement is the success notification
	Announcement() string
}

// CommitHandler ingests a single Commit into a pinned inbox note. It has
// no dedup key: every delivery creates a note.
type CommitHandler struct{}

func (CommitHandler) Name() string { return "commit" }
func (CommitHandler) Key() string  { return CommitKey }

func (CommitHandler) Decode(raw []byte) ([]Item, error) {
	var c Commit
	if err := decodeObject(raw, &c); err != nil {
		return nil, err
	}
	return []Item{commitItem(c)}, nil
}

type commitItem Commit

func (c commitItem) Source() string {
	if c.Who.Tool == "" {
		return "Unknown Tool"
	}
	return c.Who.Tool
}

func (c commitItem) Announcement() string {
	return "New artifact received from " + c.Source()
}

func (c commitItem) Materialise(ctx context.Context, env Env) (bool, error) {
	received := c.Timestamp
	if received == "" {
		received = env.Received
	}
	title := c.What.Title
	if title == "" {
		title = "Untitled Commit"
	}
	_, err := env.Store.CreateNote(ctx, model.Note{
		ProjectID: env.Inbox.ID,
		Title:     title,
		Content:   commitContent(Commit(c), received),
		Pinned:    true,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeckHandler ingests a queue of decks. Each deck is stored with a pinned
// companion note, once per deckId.
type DeckHandler struct{}

func (DeckHandler) Name() string { return "deck" }
func (DeckHandler) Key() string  { return DeckQueueKey }

func (DeckHandler) Decode(raw []byte) ([]Item, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, malformed("deck queue is not a JSON array: %v", err)
	}
	items := make([]Item, 0, len(entries))
	for i, e := range entries {
		var d IncomingDeck
		if err := decodeObject(e, &d); err != nil {
			items = append(items, badItem{err: fmt.Errorf("deck %d: %w", i, err)})
			continue
		}
		if d.DeckID == "" {
			items = append(items, badItem{source: d.Who.Tool, err: malformed("deck %d has no deckId", i)})
			continue
		}
		items = append(items, deckItem(d))
	}
	return items, nil
}

type deckItem IncomingDeck

func (d deckItem) who() model.DeckSource {
	if d.Who == (model.DeckSource{}) {
		return store.DefaultDeckSource
	}
	return d.Who
}

func (d deckItem) Source() string {
	return d.who().Tool
}

func (d deckItem) Announcement() string {
	return "Deck received from " + d.Source()
}

func (d deckItem) Materialise(ctx context.Context, env Env) (bool, error) {
	deck := model.Deck{
		DeckID:    d.DeckID,
		ProjectID: env.Inbox.ID,
		Who:       d.Who,
		Slides:    d.Slides,
		Timestamp: d.Timestamp,
	}
	received := d.Timestamp
	if received == "" {
		received = env.Received
	}
	title := d.who().Tool + " Deck"
	if cover, ok := deck.Cover(); ok && cover.Title != "" {
		title = cover.Title
	}
	note := model.Note{
		Title:   title,
		Content: deckContent(d.who(), d.Slides, received),
		Pinned:  true,
	}
	_, created, err := env.Store.CreateDeckOnce(ctx, deck, note)
	return created, err
}

// badItem is a queue entry that failed to decode
type badItem struct {
	source string
	err    error
}

func (b badItem) Source() string {
	if b.source == "" {
		return "Unknown Tool"
	}
	return b.source
}

func (b badItem) Announcement() string { return "" }

func (b badItem) Materialise(context.Context, Env) (bool, error) {
	return false, b.err
}
