package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/walltab/walltab/internal/domain"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	area  TEXT NOT NULL,
	key   TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (area, key)
);`

// SQLiteProvider is a durable StorageProvider persisting every area into a
// single sqlite file. Only the local area is exposed: sqlite has no
// account-level replication, so advertising a sync area would be a lie the
// storage layer is designed to detect.
//
// The change feed reflects writes made through this instance. Other
// processes converge via the cross-context broadcast, not via this feed.
type SQLiteProvider struct {
	logger *zap.Logger
	db     *sql.DB

	mu     sync.Mutex
	events chan domain.ChangeEvent
	closed bool
}

// NewSQLiteProvider opens (and if needed creates) the database at path
func NewSQLiteProvider(logger *zap.Logger, path string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("Storage database opened", zap.String("path", path))

	return &SQLiteProvider{
		logger: logger,
		db:     db,
		events: make(chan domain.ChangeEvent, eventBuffer),
	}, nil
}

// Has reports whether the area is backed by the database
func (p *SQLiteProvider) Has(area domain.StorageArea) bool {
	return area == domain.AreaLocal
}

// Set upserts value under (area, key) and emits a change event
func (p *SQLiteProvider) Set(ctx context.Context, area domain.StorageArea, key, value string) error {
	old, hadOld, err := p.Get(ctx, area, key)
	if err != nil {
		return err
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO kv (area, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (area, key) DO UPDATE SET value = excluded.value`,
		string(area), key, value)
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}

	p.emit(domain.ChangeEvent{
		Area:     area,
		Key:      key,
		OldValue: old,
		NewValue: value,
		HadOld:   hadOld,
		HasNew:   true,
	})
	return nil
}

// Get retrieves the value stored under (area, key)
func (p *SQLiteProvider) Get(ctx context.Context, area domain.StorageArea, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE area = ? AND key = ?`,
		string(area), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, true, nil
}

// Delete removes (area, key) and emits a change event when a row existed
func (p *SQLiteProvider) Delete(ctx context.Context, area domain.StorageArea, key string) error {
	old, hadOld, err := p.Get(ctx, area, key)
	if err != nil {
		return err
	}

	if _, err := p.db.ExecContext(ctx,
		`DELETE FROM kv WHERE area = ? AND key = ?`,
		string(area), key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}

	if hadOld {
		p.emit(domain.ChangeEvent{
			Area:     area,
			Key:      key,
			OldValue: old,
			HadOld:   true,
		})
	}
	return nil
}

// Watch returns the change feed
func (p *SQLiteProvider) Watch() <-chan domain.ChangeEvent {
	return p.events
}

// Close shuts the change feed down and closes the database
func (p *SQLiteProvider) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	p.mu.Unlock()
	return p.db.Close()
}

func (p *SQLiteProvider) emit(ev domain.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.events <- ev:
	default:
		p.logger.Warn("Change feed full, dropping event", zap.String("key", ev.Key))
	}
}
