// Package backup writes gzip snapshots of the raw vault document to a
// sink and restores them. Snapshots keep the stored bytes as they are, so
// a sealed vault stays sealed in its backups.
package backup

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/existflow/ironvault/internal/kv"
	"github.com/existflow/ironvault/internal/logger"
	"github.com/existflow/ironvault/internal/store"
	"github.com/existflow/ironvault/internal/vaultcrypto"
)

const (
	namePrefix = "vault-"
	nameSuffix = ".json.gz"
	nameLayout = "20060102T150405.000Z"
)

var (
	// ErrNothingToBackup is returned when the vault document does not exist yet
	ErrNothingToBackup = errors.New("vault is empty, nothing to back up")
	// ErrSnapshotNotFound is returned by sinks for unknown snapshot names
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrBadSnapshot is returned when a snapshot does not hold a vault document
	ErrBadSnapshot = errors.New("snapshot is not a vault document")
)

// Snapshot describes one stored backup
type Snapshot struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Sink stores snapshot blobs by name
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]Snapshot, error)
	Delete(ctx context.Context, name string) error
}

// SnapshotName returns the name of a snapshot taken at t
func SnapshotName(t time.Time) string {
	return namePrefix + t.UTC().Format(nameLayout) + nameSuffix
}

// IsSnapshotName reports whether name looks like a snapshot
func IsSnapshotName(name string) bool {
	return strings.HasPrefix(name, namePrefix) && strings.HasSuffix(name, nameSuffix)
}

// Create snapshots the document stored under key and returns its name
func Create(ctx context.Context, s kv.Storage, key string, sink Sink, now time.Time) (string, error) {
	entry, err := s.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return "", ErrNothingToBackup
	}
	if err != nil {
		return "", fmt.Errorf("read vault: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Name = key
	zw.ModTime = entry.UpdatedAt
	if _, err := zw.Write(entry.Value); err != nil {
		return "", fmt.Errorf("compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress snapshot: %w", err)
	}

	name := SnapshotName(now)
	if err := sink.Put(ctx, name, buf.Bytes()); err != nil {
		return "", fmt.Errorf("store snapshot %s: %w", name, err)
	}
	logger.Info("Snapshot written", logger.F("name", name), logger.F("bytes", buf.Len()), logger.F("revision", entry.Revision))
	return name, nil
}

// Restore replaces the document under key with the named snapshot. An
// empty name restores the newest snapshot.
func Restore(ctx context.Context, s kv.Storage, key string, sink Sink, name string) (string, error) {
	if name == "" {
		latest, err := Latest(ctx, sink)
		if err != nil {
			return "", err
		}
		name = latest.Name
	}

	blob, err := sink.Get(ctx, name)
	if err != nil {
		return "", fmt.Errorf("fetch snapshot %s: %w", name, err)
	}
	raw, err := decompress(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if !vaultcrypto.IsSealed(raw) {
		if _, err := (store.JSONCodec{}).Decode(raw); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
	}

	rev, err := s.Put(ctx, key, raw)
	if err != nil {
		return "", fmt.Errorf("write vault: %w", err)
	}
	logger.Info("Snapshot restored", logger.F("name", name), logger.F("revision", rev))
	return name, nil
}

// Latest returns the newest snapshot in sink
func Latest(ctx context.Context, sink Sink) (Snapshot, error) {
	snaps, err := List(ctx, sink)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snaps) == 0 {
		return Snapshot{}, ErrSnapshotNotFound
	}
	return snaps[len(snaps)-1], nil
}

// List returns the snapshots in sink, oldest first
func List(ctx context.Context, sink Sink) ([]Snapshot, error) {
	all, err := sink.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(all))
	for _, sn := range all {
		if IsSnapshotName(sn.Name) {
			out = append(out, sn)
		}
	}
	// names embed a sortable UTC timestamp
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Prune deletes all but the newest keep snapshots and returns what it removed
func Prune(ctx context.Context, sink Sink, keep int) ([]string, error) {
	snaps, err := List(ctx, sink)
	if err != nil {
		return nil, err
	}
	if keep < 0 {
		keep = 0
	}
	var removed []string
	for i := 0; i < len(snaps)-keep; i++ {
		if err := sink.Delete(ctx, snaps[i].Name); err != nil {
			return removed, err
		}
		removed = append(removed, snaps[i].Name)
	}
	return removed, nil
}

func decompress(blob []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
