// Package settings persists user preferences as typed key/value pairs.
//
// Stores have apply semantics: a Set is visible to the next Get at once and
// reaches durable storage in the background. Flush waits for pending writes.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/phrazzld/bootui/internal/config"
)

// Preference keys
const (
	KeyParallelPatching = "parallel_patching_threads"
	KeyUseDarkTheme     = "use_dark_theme"
)

// DefaultPatchingThreads is used until the user picks a thread count.
const DefaultPatchingThreads = 2

// Store is a typed preference store.
type Store interface {
	GetInt(key string, def int) int
	SetInt(key string, value int)
	GetBool(key string, def bool) bool
	SetBool(key string, value bool)
	Flush(ctx context.Context) error
	Close() error
}

// Open returns the store selected by cfg.
func Open(ctx context.Context, cfg config.SettingsConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "pgx":
		store, err := OpenSQL(ctx, cfg.Driver, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown settings driver %q", cfg.Driver)
	}
}

func parseInt(raw string, def int) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func parseBool(raw string, def bool) bool {
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
