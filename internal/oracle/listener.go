// Package oracle turns Oracle session events into vault records. A
// SESSION_START opens a project that later artifacts land in.
package oracle

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/existflow/ironvault/internal/events"
	"github.com/existflow/ironvault/internal/logger"
	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
)

// Event types
const (
	SessionStart    = "SESSION_START"
	ArtifactEmitted = "ARTIFACT_EMITTED"
)

var (
	// ErrNoSession is returned for an artifact with no target project
	ErrNoSession = errors.New("received oracle artifact, but no active vault found")
	// ErrUnknownEvent is returned for event types the listener ignores
	ErrUnknownEvent = errors.New("unknown oracle event type")
)

// Event is one row of the oracle event feed
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the optional fields of an event
type EventData struct {
	Title     string `json:"title,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
	Content   string `json:"content,omitempty"`
}

// maxLineSize bounds one newline-delimited event
const maxLineSize = 4 << 20

// Listener applies events to the store. It remembers the project of the
// most recent session.
type Listener struct {
	store *store.Store
	bus   *events.Bus
	log   *logger.Logger
	now   func() time.Time

	mu     sync.Mutex
	active string
}

// NewListener returns a listener writing into st; bus may be nil
func NewListener(st *store.Store, bus *events.Bus) *Listener {
	return &Listener{
		store: st,
		bus:   bus,
		log:   logger.WithFields(logger.F("component", "oracle")),
		now:   time.Now,
	}
}

// ActiveSession returns the project id of the current session, if any
func (l *Listener) ActiveSession() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Handle applies one event
func (l *Listener) Handle(ctx context.Context, e Event) error {
	switch e.Type {
	case SessionStart:
		return l.startSession(ctx, e.Data)
	case ArtifactEmitted:
		return l.saveArtifact(ctx, e.Data)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
}

func (l *Listener) startSession(ctx context.Context, d EventData) error {
	title := d.Title
	if title == "" {
		title = "Oracle Analysis - " + l.now().Format("2006-01-02")
	}
	p, err := l.store.CreateProject(ctx, model.Project{
		Title:       title,
		Description: "Generated implicitly by an Oracle OS Session.",
		Tags:        []string{"Oracle", "Generated"},
	})
	if err != nil {
		l.bus.Toast(events.LevelError, "Failed to start Oracle session")
		return err
	}

	l.mu.Lock()
	l.active = p.ID
	l.mu.Unlock()

	l.log.Info("Oracle session started", logger.F("project_id", p.ID))
	l.bus.Toast(events.LevelSuccess, "Oracle started a new session: "+p.Title)
	l.bus.Refresh()
	return nil
}

func (l *Listener) saveArtifact(ctx context.Context, d EventData) error {
	target := d.ProjectID
	if target == "" {
		target = l.ActiveSession()
	}
	if target == "" {
		l.bus.Toast(events.LevelError, "Received Oracle artifact, but no active Vault found.")
		return ErrNoSession
	}

	title := d.Title
	if title == "" {
		title = "Oracle Artifact"
	}
	if _, err := l.store.CreateNote(ctx, model.Note{ProjectID: target, Title: title, Content: d.Content}); err != nil {
		l.bus.Toast(events.LevelError, "Failed to save Oracle artifact")
		return err
	}
	l.bus.Toast(events.LevelSuccess, "Artifact saved to Vault")
	l.bus.Refresh()
	return nil
}

// Run reads newline-delimited JSON events from r until EOF or ctx is
// done. Bad lines and failed events are logged and skipped.
func (l *Listener) Run(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			l.log.Warn("Skipping unreadable oracle event", logger.Err(err))
			continue
		}
		if err := l.Handle(ctx, e); err != nil {
			l.log.Warn("Oracle event not applied", logger.Err(err), logger.F("type", e.Type))
		}
	}
	return sc.Err()
}
