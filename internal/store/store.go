// Package store provides the SQLite-backed note repository.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vmoreira/plume/internal/store/migrations"
)

// timeLayout is a fixed-width UTC encoding so stored timestamps sort
// lexicographically. The trailing Z is a literal.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// Clock abstracts time retrieval so repository logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts note id generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// DB wraps a sql.DB with note repository operations.
type DB struct {
	conn  *sql.DB
	clock Clock
	ids   IDGenerator
}

// OpenOption configures the store.
type OpenOption func(*DB)

// WithClock replaces the wall clock, for deterministic timestamps in tests.
func WithClock(c Clock) OpenOption {
	return func(db *DB) { db.clock = c }
}

// WithIDGenerator replaces the note id generator.
func WithIDGenerator(g IDGenerator) OpenOption {
	return func(db *DB) { db.ids = g }
}

// Open opens (or creates) the SQLite database and migrates the schema to the
// latest version. Write transactions take the lock immediately so concurrent
// creates serialize at the store instead of failing mid-transaction.
func Open(dsn string, opts ...OpenOption) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := migrations.Up(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	db := &DB{conn: conn, clock: RealClock{}, ids: UUIDGenerator{}}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
