package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/existflow/ironvault/internal/model"
)

// Well-known storage keys other tools drop payloads under
const (
	CommitKey    = "notnotes_incoming_commit"
	DeckQueueKey = "notnotes_deck_queue"
)

// ErrMalformedPayload marks a payload that can never be ingested
var ErrMalformedPayload = errors.New("malformed inbound payload")

// CommitSource names the tool a commit came from
type CommitSource struct {
	Tool string `json:"tool"`
	ID   string `json:"id"`
}

// CommitWhat describes a committed solution
type CommitWhat struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Commit is a single solution pushed into the inbox
type Commit struct {
	Who       CommitSource `json:"who"`
	What      CommitWhat   `json:"what"`
	Content   string       `json:"content"`
	Timestamp string       `json:"timestamp"`
}

// IncomingDeck is one entry of the deck queue
type IncomingDeck struct {
	DeckID    string           `json:"deckId"`
	Who       model.DeckSource `json:"who"`
	Slides    []model.Slide    `json:"slides"`
	Timestamp string           `json:"timestamp"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, args...))
}

// decodeObject decodes raw into v, refusing anything but a JSON object
func decodeObject(raw []byte, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return malformed("expected a JSON object")
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return malformed("%v", err)
	}
	return nil
}

// ParseDecks reads one deck object or an array of them
func ParseDecks(raw []byte) ([]IncomingDeck, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var decks []IncomingDeck
		if err := json.Unmarshal(trimmed, &decks); err != nil {
			return nil, malformed("%v", err)
		}
		return decks, nil
	}
	var one IncomingDeck
	if err := decodeObject(trimmed, &one); err != nil {
		return nil, err
	}
	return []IncomingDeck{one}, nil
}
