// Package ingest drains payloads other tools drop into shared storage and
// turns them into vault records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/existflow/ironvault/internal/events"
	"github.com/existflow/ironvault/internal/kv"
	"github.com/existflow/ironvault/internal/logger"
	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
)

// InboxTitle is the title of the project payloads land in
const InboxTitle = "Incoming"

// InboxTemplate is the project created when there is no inbox yet
func InboxTemplate() model.Project {
	return model.Project{
		Title:       InboxTitle,
		Description: "Universal inbox — Solutions committed from across The Youniverse land here.",
		Status:      model.ProjectInProgress,
		Priority:    model.PriorityHigh,
		Tags:        []string{"Inbox", "Auto"},
		Color:       "#f59e0b",
	}
}

// Result summarises one drain
type Result struct {
	Created   int  `json:"created"`   // items materialised
	Skipped   int  `json:"skipped"`   // items already ingested
	Failed    int  `json:"failed"`    // items dropped on error
	Malformed bool `json:"malformed"` // the whole payload was unreadable
}

func (r *Result) add(o Result) {
	r.Created += o.Created
	r.Skipped += o.Skipped
	r.Failed += o.Failed
	r.Malformed = r.Malformed || o.Malformed
}

// Ingestor drains the key of one Handler
type Ingestor struct {
	handler Handler
	store   *store.Store
	kv      kv.Storage
	bus     *events.Bus
	log     *logger.Logger
	now     func() time.Time

	mu sync.Mutex
}

// New returns an ingestor writing into st and notifying bus, which may be nil
func New(st *store.Store, bus *events.Bus, h Handler) *Ingestor {
	return &Ingestor{
		handler: h,
		store:   st,
		kv:      st.Storage(),
		bus:     bus,
		log:     logger.WithFields(logger.F("component", "ingest"), logger.F("handler", h.Name())),
		now:     time.Now,
	}
}

// Key returns the storage key this ingestor drains
func (in *Ingestor) Key() string {
	return in.handler.Key()
}

// maxPasses bounds how often Drain follows payloads replaced mid-drain
const maxPasses = 5

// Drain processes the pending payload, if any. Payload and store failures
// are logged and reported through Result and the bus; the payload is
// cleared either way so it is never reprocessed. Only failures to read or
// clear the key are returned. A payload written while draining is drained
// right after.
func (in *Ingestor) Drain(ctx context.Context) (Result, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	var (
		total Result
		err   error
	)
	for pass := 0; pass < maxPasses; pass++ {
		var (
			res      Result
			replaced bool
		)
		res, replaced, err = in.drainOnce(ctx)
		total.add(res)
		if err != nil || !replaced {
			break
		}
	}
	if total.Created > 0 {
		in.bus.Refresh()
	}
	return total, err
}

// drainOnce handles the payload currently stored. replaced reports that
// a newer payload arrived before it could be cleared.
func (in *Ingestor) drainOnce(ctx context.Context) (res Result, replaced bool, err error) {
	entry, err := in.kv.Get(ctx, in.handler.Key())
	if errors.Is(err, kv.ErrNotFound) {
		return res, false, nil
	}
	if err != nil {
		return res, false, fmt.Errorf("read %s: %w", in.handler.Key(), err)
	}

	items, derr := in.handler.Decode(entry.Value)
	if derr != nil {
		res.Malformed = true
		in.log.Error("Dropping malformed payload", logger.Err(derr), logger.F("revision", entry.Revision))
		in.bus.Toast(events.LevelError, fmt.Sprintf("Failed to process incoming %s", in.handler.Name()))
	} else if len(items) > 0 {
		in.materialise(ctx, items, &res)
	}

	replaced, err = in.clear(ctx, entry)
	return res, replaced, err
}

func (in *Ingestor) materialise(ctx context.Context, items []Item, res *Result) {
	inbox, created, err := in.store.EnsureProject(ctx, InboxTemplate())
	if err != nil {
		res.Failed = len(items)
		in.log.Error("Cannot resolve inbox project, dropping payload", logger.Err(err))
		in.bus.Toast(events.LevelError, fmt.Sprintf("Failed to process incoming %s", in.handler.Name()))
		return
	}
	if created {
		in.log.Info("Created inbox project", logger.F("project_id", inbox.ID))
	}

	env := Env{
		Store:    in.store,
		Inbox:    inbox,
		Received: in.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	for _, item := range items {
		ok, err := item.Materialise(ctx, env)
		switch {
		case err != nil:
			res.Failed++
			in.log.Error("Failed to ingest item", logger.Err(err), logger.F("source", item.Source()))
			in.bus.Toast(events.LevelError, fmt.Sprintf("Failed to process %s from %s", in.handler.Name(), item.Source()))
		case !ok:
			res.Skipped++
			in.log.Debug("Already ingested", logger.F("source", item.Source()))
		default:
			res.Created++
			in.log.Info("Ingested item", logger.F("source", item.Source()))
			in.bus.Toast(events.LevelSuccess, item.Announcement())
		}
	}
}

// clear removes the payload if it is still the one that was read
func (in *Ingestor) clear(ctx context.Context, entry kv.Entry) (replaced bool, err error) {
	err = in.kv.CompareAndDelete(ctx, entry.Key, entry.Revision)
	if errors.Is(err, kv.ErrConflict) {
		in.log.Info("Payload replaced while draining, keeping the newer one")
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("clear %s: %w", entry.Key, err)
	}
	return false, nil
}
