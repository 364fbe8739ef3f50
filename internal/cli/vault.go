package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/existflow/ironvault/internal/kv"
	"github.com/existflow/ironvault/internal/logger"
	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
	"golang.org/x/term"
)

// vault is an opened store plus the backend it lives in
type vault struct {
	kv    kv.Storage
	store *store.Store
}

// openVault opens the configured backend. An encrypted vault needs
// IRONVAULT_PASSPHRASE or a passphrase typed at the terminal.
func openVault(ctx context.Context) (*vault, error) {
	storage, err := kv.Open(ctx, kv.Options{
		Driver: kv.Driver(cfg.Storage.Driver),
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.DSN,
	})
	if err != nil {
		logger.Error("Failed to open vault storage", logger.Err(err), logger.F("driver", cfg.Storage.Driver))
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}

	opts := []store.Option{store.WithLogger(logger.Default())}
	if cfg.Encryption.Enabled {
		pass, err := passphrase()
		if err != nil {
			_ = storage.Close()
			return nil, err
		}
		codec, err := store.NewSealedCodec(pass)
		if err != nil {
			_ = storage.Close()
			return nil, fmt.Errorf("failed to unlock vault: %w", err)
		}
		opts = append(opts, store.WithCodec(codec))
	}
	return &vault{kv: storage, store: store.New(storage, opts...)}, nil
}

// Close releases the backend
func (v *vault) Close() {
	if err := v.kv.Close(); err != nil {
		logger.Warn("Failed to close vault storage", logger.Err(err))
	}
}

func passphrase() (string, error) {
	if p := os.Getenv("IRONVAULT_PASSPHRASE"); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: set IRONVAULT_PASSPHRASE", store.ErrLocked)
	}
	fmt.Fprint(os.Stderr, "Vault passphrase: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(b) == 0 {
		return "", store.ErrLocked
	}
	return string(b), nil
}

// project resolves ref, the --project flag, or the current project. A
// ref matches an id, a unique id prefix, or a title ignoring case.
func (v *vault) project(ctx context.Context, ref string) (model.Project, error) {
	if ref == "" {
		ref = projectRef
	}
	if ref == "" {
		ref = GetCurrentContext()
	}
	if ref == "" {
		return model.Project{}, fmt.Errorf("no project given: pass --project or run 'vault use <project>'")
	}
	projects, err := v.store.ListProjects(ctx, store.ProjectFilter{IncludeArchived: true})
	if err != nil {
		return model.Project{}, err
	}
	for _, p := range projects {
		if strings.EqualFold(p.Title, ref) && !p.Archived {
			return p, nil
		}
	}
	i, err := matchID(ref, len(projects), func(i int) string { return projects[i].ID })
	if err != nil {
		return model.Project{}, fmt.Errorf("project %q: %w", ref, err)
	}
	return projects[i], nil
}

// optionalProject is like project but returns the zero project when
// nothing names one
func (v *vault) optionalProject(ctx context.Context) (model.Project, error) {
	if projectRef == "" && GetCurrentContext() == "" {
		return model.Project{}, nil
	}
	return v.project(ctx, "")
}

func (v *vault) task(ctx context.Context, ref string) (model.Task, error) {
	tasks, err := v.store.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return model.Task{}, err
	}
	i, err := matchID(ref, len(tasks), func(i int) string { return tasks[i].ID })
	if err != nil {
		return model.Task{}, fmt.Errorf("task %q: %w", ref, err)
	}
	return tasks[i], nil
}

func (v *vault) note(ctx context.Context, ref string) (model.Note, error) {
	notes, err := v.store.ListNotes(ctx, store.NoteFilter{IncludeTaskNotes: true})
	if err != nil {
		return model.Note{}, err
	}
	i, err := matchID(ref, len(notes), func(i int) string { return notes[i].ID })
	if err != nil {
		return model.Note{}, fmt.Errorf("note %q: %w", ref, err)
	}
	return notes[i], nil
}

func (v *vault) mindmap(ctx context.Context, ref string) (model.Mindmap, error) {
	maps, err := v.store.ListMindmaps(ctx, "")
	if err != nil {
		return model.Mindmap{}, err
	}
	i, err := matchID(ref, len(maps), func(i int) string { return maps[i].ID })
	if err != nil {
		return model.Mindmap{}, fmt.Errorf("mindmap %q: %w", ref, err)
	}
	return maps[i], nil
}

// matchID finds ref among n ids, exactly or as a unique prefix
func matchID(ref string, n int, id func(int) string) (int, error) {
	found := -1
	for i := 0; i < n; i++ {
		switch {
		case id(i) == ref:
			return i, nil
		case strings.HasPrefix(id(i), ref):
			if found >= 0 {
				return -1, fmt.Errorf("ambiguous id prefix, matches %s and %s", id(found), id(i))
			}
			found = i
		}
	}
	if found < 0 {
		return -1, store.ErrNotFound
	}
	return found, nil
}

// shortID trims the uuid part of an id for tables
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i >= 0 && len(id) > i+9 {
		return id[:i+9]
	}
	return id
}
