// Package storage persists per-browser client state (the stored credential
// token) so that web sessions survive restarts of the dashboard server.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ClientStateRepository stores string values per (session, key).
type ClientStateRepository interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	Put(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID, key string) error
	DeleteSession(ctx context.Context, sessionID string) error
	PurgeStale(ctx context.Context, maxAge time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("Client state database ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	row, err := r.queries.GetClientState(ctx, GetClientStateParams{SessionID: sessionID, Key: key})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get client state %s: %w", key, err)
	}
	return row.Value, true, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, sessionID, key, value string) error {
	err := r.queries.UpsertClientState(ctx, UpsertClientStateParams{
		SessionID: sessionID,
		Key:       key,
		Value:     value,
		UpdatedAt: r.now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("put client state %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, sessionID, key string) error {
	if err := r.queries.DeleteClientState(ctx, DeleteClientStateParams{SessionID: sessionID, Key: key}); err != nil {
		return fmt.Errorf("delete client state %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.queries.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeStale removes every value not written within maxAge.
func (r *SQLiteRepository) PurgeStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := r.queries.DeleteStaleClientState(ctx, r.now().Add(-maxAge).Unix())
	if err != nil {
		return 0, fmt.Errorf("purge stale client state: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Purged stale client state", "count", n)
	}
	return n, nil
}
