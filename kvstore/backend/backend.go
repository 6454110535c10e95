// Package backend selects a kvstore implementation from configuration.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-kb-chat/kvstore"
	"github.com/jrsteele09/go-kb-chat/kvstore/postgres"
	kvstorefake "github.com/jrsteele09/go-kb-chat/kvstore/repofake"
	"github.com/jrsteele09/go-kb-chat/kvstore/sqlite"
	"github.com/jrsteele09/go-kb-chat/kvstore/yamlfile"
)

const (
	DriverYAML     = "yaml"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// CloseFunc releases backend resources. It is never nil.
type CloseFunc func() error

func noopClose() error { return nil }

// Open returns the store for driver. A blank dsn selects a default file inside
// dataFolder for the file based drivers.
func Open(ctx context.Context, driver, dsn, dataFolder string) (kvstore.Store, CloseFunc, error) {
	switch driver {
	case DriverYAML, "":
		if dsn == "" {
			dsn = filepath.Join(dataFolder, "kb-chat.yaml")
		}
		return yamlfile.New(dsn), noopClose, nil

	case DriverSQLite:
		if dsn == "" {
			dsn = filepath.Join(dataFolder, "kb-chat.db")
		}
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, nil, fmt.Errorf("creating %s: %w", filepath.Dir(dsn), err)
			}
		}
		s, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, s.Close, nil

	case DriverPostgres:
		if dsn == "" {
			return nil, nil, fmt.Errorf("postgres store requires a dsn")
		}
		s, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return s, s.Close, nil

	case DriverMemory:
		return kvstorefake.NewFakeKVStore(), noopClose, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", driver)
}
