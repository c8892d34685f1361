package settings

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/phrazzld/bootui/internal/redact"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLStore is a write-behind Store over a settings table.
type SQLStore struct {
	db     *sql.DB
	upsert string
	logger *slog.Logger

	mu     sync.Mutex
	values map[string]string
	dirty  map[string]string

	// writeMu serializes persist calls.
	writeMu sync.Mutex

	wake      chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ Store = (*SQLStore)(nil)

// OpenSQL opens the database with driver ("sqlite" or "pgx"), migrates it
// and loads every stored preference.
func OpenSQL(ctx context.Context, driver, dsn string, logger *slog.Logger) (*SQLStore, error) {
	var dialect string
	switch driver {
	case "sqlite":
		dialect = "sqlite3"
	case "pgx":
		dialect = "postgres"
	default:
		return nil, fmt.Errorf("unsupported settings driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %s", redact.Error(err))
	}
	if driver == "sqlite" {
		// One connection keeps ":memory:" databases shared and writes serialized.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect settings db: %s", redact.Error(err))
	}

	store, err := NewSQLStore(ctx, db, dialect, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore migrates db and returns a store over it. The store owns db.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect string, logger *slog.Logger) (*SQLStore, error) {
	logger = logger.With("component", "settings_store")

	if err := migrate(ctx, db, dialect, logger); err != nil {
		return nil, err
	}

	upsert := `INSERT INTO settings (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if dialect == "postgres" {
		upsert = `INSERT INTO settings (name, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	}

	s := &SQLStore{
		db:     db,
		upsert: upsert,
		logger: logger,
		values: make(map[string]string),
		dirty:  make(map[string]string),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.writer()
	return s, nil
}

func (s *SQLStore) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM settings`)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return fmt.Errorf("scan setting: %w", err)
		}
		s.values[name] = value
	}
	return rows.Err()
}

func (s *SQLStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *SQLStore) apply(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.dirty[key] = value
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *SQLStore) GetInt(key string, def int) int {
	raw, ok := s.get(key)
	if !ok {
		return def
	}
	return parseInt(raw, def)
}

func (s *SQLStore) SetInt(key string, value int) {
	s.apply(key, strconv.Itoa(value))
}

func (s *SQLStore) GetBool(key string, def bool) bool {
	raw, ok := s.get(key)
	if !ok {
		return def
	}
	return parseBool(raw, def)
}

func (s *SQLStore) SetBool(key string, value bool) {
	s.apply(key, strconv.FormatBool(value))
}

// Flush writes every pending change before returning.
func (s *SQLStore) Flush(ctx context.Context) error {
	return s.persist(ctx)
}

// Close flushes pending changes and closes the database.
func (s *SQLStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		if ferr := s.persist(context.Background()); ferr != nil {
			err = ferr
		}
		if cerr := s.db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close settings db: %w", cerr)
		}
	})
	return err
}

func (s *SQLStore) writer() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
			if err := s.persist(context.Background()); err != nil {
				s.logger.Error("failed to persist settings", "error", redact.Error(err))
			}
		}
	}
}

func (s *SQLStore) persist(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	batch := s.dirty
	s.dirty = make(map[string]string)
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := s.write(ctx, batch); err != nil {
		// Put the batch back unless newer values arrived meanwhile.
		s.mu.Lock()
		for k, v := range batch {
			if _, newer := s.dirty[k]; !newer {
				s.dirty[k] = v
			}
		}
		s.mu.Unlock()
		return err
	}

	s.logger.Debug("settings persisted", "count", len(batch))
	return nil
}

func (s *SQLStore) write(ctx context.Context, batch map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings write: %w", err)
	}
	for k, v := range batch {
		if _, err := tx.ExecContext(ctx, s.upsert, k, v); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write setting %q: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings write: %w", err)
	}
	return nil
}
