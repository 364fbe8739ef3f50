package kv

import (
	"context"
	"fmt"
)

// Options selects and configures a backend
type Options struct {
	Driver Driver
	Path   string // sqlite file
	DSN    string // postgres connection string
}

// Open returns the backend named by opts.Driver, sqlite by default
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		path := opts.Path
		if path == "" {
			p, err := DefaultSQLitePath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return OpenSQLite(path)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DSN)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
