package kv

import (
	"context"
	"errors"
	"time"
)

// DefaultWatchInterval is how often Watch polls the backend
const DefaultWatchInterval = time.Second

// Change reports that a watched key was written or removed
type Change struct {
	Key      string
	Revision int64 // 0 when Deleted
	Deleted  bool
}

// Watch polls keys every interval and sends a Change whenever a key's
// revision differs from the last one seen. The revisions current when
// Watch is called are the baseline. The channel is closed when ctx is done.
func Watch(ctx context.Context, s Storage, interval time.Duration, keys ...string) <-chan Change {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	seen := make(map[string]int64, len(keys))
	for _, k := range keys {
		seen[k] = revisionOf(ctx, s, k)
	}

	out := make(chan Change, len(keys))
	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, k := range keys {
					rev := revisionOf(ctx, s, k)
					if rev < 0 || rev == seen[k] {
						continue
					}
					seen[k] = rev
					select {
					case out <- Change{Key: k, Revision: rev, Deleted: rev == 0}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out
}

// revisionOf returns the key's revision, 0 if absent, -1 on backend errors
func revisionOf(ctx context.Context, s Storage, key string) int64 {
	e, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return 0
	}
	if err != nil {
		return -1
	}
	return e.Revision
}
