// Package events broadcasts process-wide signals: "data changed, refresh"
// and user-facing toasts.
package events

import (
	"sync"
	"time"
)

// Kind of an event
type Kind int

const (
	// Refresh asks every view to re-query the store
	Refresh Kind = iota
	// Toast carries a short user-facing message
	Toast
)

// Level of a toast
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Event is delivered to subscribers
type Event struct {
	Kind    Kind
	Level   Level
	Message string
	At      time.Time
}

// Bus fans events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event, and since Refresh
// carries no payload a missed refresh is covered by the queued one.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

// New returns an empty bus
func New() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a cancel func that closes it
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber that has room
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Refresh publishes a refresh request
func (b *Bus) Refresh() {
	b.Publish(Event{Kind: Refresh})
}

// Toast publishes a user-facing message
func (b *Bus) Toast(level Level, msg string) {
	b.Publish(Event{Kind: Toast, Level: level, Message: msg})
}
