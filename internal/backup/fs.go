package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FSSink keeps snapshots as files in a directory
type FSSink struct {
	dir string
}

// NewFSSink returns a sink writing into dir, creating it if needed
func NewFSSink(dir string) (*FSSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("backup directory required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &FSSink{dir: dir}, nil
}

func (f *FSSink) path(name string) (string, error) {
	if name != filepath.Base(name) {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	return filepath.Join(f.dir, name), nil
}

// Put writes data atomically via a temp file
func (f *FSSink) Put(_ context.Context, name string, data []byte) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (f *FSSink) Get(_ context.Context, name string) ([]byte, error) {
	p, err := f.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrSnapshotNotFound)
	}
	return data, err
}

func (f *FSSink) List(_ context.Context) ([]Snapshot, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var out []Snapshot
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Snapshot{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}

func (f *FSSink) Delete(_ context.Context, name string) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
