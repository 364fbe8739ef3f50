package store

import (
	"context"
	"fmt"

	"github.com/existflow/ironvault/internal/model"
)

// DefaultDeckSource is the who of decks created without one
var DefaultDeckSource = model.DeckSource{Tool: "Unknown", ID: "unknown", Color: "#6366f1"}

// isoMillis matches the ISO-8601 form external tools send
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// DeckFilter narrows ListDecks
type DeckFilter struct {
	ProjectID string
	DeckID    string
}

// ListDecks returns decks in creation order
func (s *Store) ListDecks(ctx context.Context, f DeckFilter) ([]model.Deck, error) {
	var out []model.Deck
	err := s.view(ctx, func(doc *model.Document) {
		out = make([]model.Deck, 0)
		for _, d := range doc.Decks {
			if f.ProjectID != "" && d.ProjectID != f.ProjectID {
				continue
			}
			if f.DeckID != "" && d.DeckID != f.DeckID {
				continue
			}
			out = append(out, d)
		}
	})
	return out, err
}

// GetDeck returns the deck record with id
func (s *Store) GetDeck(ctx context.Context, id string) (model.Deck, error) {
	var (
		out   model.Deck
		found bool
	)
	err := s.view(ctx, func(doc *model.Document) {
		for _, d := range doc.Decks {
			if d.ID == id {
				out, found = d, true
				return
			}
		}
	})
	if err != nil {
		return model.Deck{}, err
	}
	if !found {
		return model.Deck{}, fmt.Errorf("deck %q: %w", id, ErrNotFound)
	}
	return out, nil
}

// FindDeck returns the deck with the external deckID under a project
func (s *Store) FindDeck(ctx context.Context, projectID, deckID string) (model.Deck, bool, error) {
	var (
		out   model.Deck
		found bool
	)
	err := s.view(ctx, func(doc *model.Document) {
		out, found = findDeck(doc, projectID, deckID)
	})
	return out, found, err
}

func findDeck(doc *model.Document, projectID, deckID string) (model.Deck, bool) {
	for _, d := range doc.Decks {
		if d.ProjectID == projectID && d.DeckID == deckID {
			return d, true
		}
	}
	return model.Deck{}, false
}

func (s *Store) prepareDeck(d model.Deck) model.Deck {
	if d.Who == (model.DeckSource{}) {
		d.Who = DefaultDeckSource
	}
	d.ID = NewID(PrefixDeck)
	if d.DeckID == "" {
		d.DeckID = NewID(PrefixDeck)
	}
	if d.Slides == nil {
		d.Slides = []model.Slide{}
	}
	if d.Timestamp == "" {
		d.Timestamp = s.now().UTC().Format(isoMillis)
	}
	d.CreatedAt = s.timestamp()
	return d
}

// CreateDeck adds a deck. A missing deckId is minted.
func (s *Store) CreateDeck(ctx context.Context, d model.Deck) (model.Deck, error) {
	d = s.prepareDeck(d)
	err := s.mutate(ctx, func(doc *model.Document) error {
		if err := requireProject(doc, d.ProjectID); err != nil {
			return err
		}
		doc.Decks = append(doc.Decks, d)
		return nil
	})
	if err != nil {
		return model.Deck{}, err
	}
	return d, nil
}

// CreateDeckOnce stores d and its companion note in one write unless a
// deck with the same deckId already exists under d.ProjectID, in which
// case the existing deck is returned and created is false. The note is
// attached to d's project.
func (s *Store) CreateDeckOnce(ctx context.Context, d model.Deck, companion model.Note) (deck model.Deck, created bool, err error) {
	d = s.prepareDeck(d)
	if companion.Title == "" {
		companion.Title = DefaultNoteTitle
	}
	companion.ID = NewID(PrefixNote)
	companion.ProjectID = d.ProjectID
	companion.CreatedAt = d.CreatedAt

	err = s.mutate(ctx, func(doc *model.Document) error {
		if err := requireProject(doc, d.ProjectID); err != nil {
			return err
		}
		if existing, ok := findDeck(doc, d.ProjectID, d.DeckID); ok {
			deck, created = existing, false
			return errUnchanged
		}
		note := companion
		if err := addNote(doc, &note); err != nil {
			return err
		}
		doc.Decks = append(doc.Decks, d)
		deck, created = d, true
		return nil
	})
	if err != nil {
		return model.Deck{}, false, err
	}
	return deck, created, nil
}

// UpdateDeck merges patch into the deck with id
func (s *Store) UpdateDeck(ctx context.Context, id string, patch model.DeckPatch) (model.Deck, error) {
	var out model.Deck
	err := s.mutate(ctx, func(doc *model.Document) error {
		for i := range doc.Decks {
			if doc.Decks[i].ID == id {
				patch.Apply(&doc.Decks[i])
				out = doc.Decks[i]
				return nil
			}
		}
		return fmt.Errorf("deck %q: %w", id, ErrNotFound)
	})
	if err != nil {
		return model.Deck{}, err
	}
	return out, nil
}

// DeleteDeck removes the deck record with id. Its companion note stays.
func (s *Store) DeleteDeck(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *model.Document) error {
		for i := range doc.Decks {
			if doc.Decks[i].ID == id {
				doc.Decks = append(doc.Decks[:i], doc.Decks[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("deck %q: %w", id, ErrNotFound)
	})
}
