package ingest

import (
	"context"
	"time"

	"github.com/existflow/ironvault/internal/kv"
	"github.com/existflow/ironvault/internal/logger"
)

// Run drains every ingestor once, then again whenever its key is written.
// It blocks until ctx is done.
func Run(ctx context.Context, storage kv.Storage, interval time.Duration, ingestors ...*Ingestor) error {
	byKey := make(map[string]*Ingestor, len(ingestors))
	keys := make([]string, 0, len(ingestors))
	for _, in := range ingestors {
		byKey[in.Key()] = in
		keys = append(keys, in.Key())
	}

	// subscribe before the first drain so nothing written in between is missed
	changes := kv.Watch(ctx, storage, interval, keys...)
	for _, in := range ingestors {
		drain(ctx, in)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-changes:
			if !ok {
				return ctx.Err()
			}
			if c.Deleted {
				continue
			}
			if in := byKey[c.Key]; in != nil {
				drain(ctx, in)
			}
		}
	}
}

func drain(ctx context.Context, in *Ingestor) {
	res, err := in.Drain(ctx)
	if err != nil {
		logger.Error("Ingest drain failed", logger.Err(err), logger.F("key", in.Key()))
		return
	}
	if res.Created+res.Failed+res.Skipped > 0 || res.Malformed {
		logger.Debug("Ingest drain finished",
			logger.F("key", in.Key()),
			logger.F("created", res.Created),
			logger.F("skipped", res.Skipped),
			logger.F("failed", res.Failed))
	}
}
