package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	"github.com/kilupskalvis/sitestore/internal/kv/migrations"

	_ "modernc.org/sqlite"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	// changeRetention bounds the change feed; watchers further behind than
	// this many changes miss the oldest ones.
	changeRetention = 1000
)

// SQLite stores pairs in a SQLite file. Several processes may open the same
// file; every write is appended to a change feed that Watch polls.
type SQLite struct {
	db     *sql.DB
	origin string

	// PollInterval is how often Watch checks the change feed.
	PollInterval time.Duration
}

// OpenSQLite opens or creates a SQLite database at the given path and applies
// the embedded schema migrations.
func OpenSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{
		db:           db,
		origin:       uuid.NewString(),
		PollInterval: defaultPollInterval,
	}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to initialise migrate driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	defer func() {
		_ = sourceDriver.Close()
	}()

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

func (s *SQLite) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLite) Set(key, value string) error {
	return s.withChange(key, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value,
		)
		return err
	})
}

func (s *SQLite) Remove(key string) error {
	return s.withChange(key, func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM kv WHERE key = ?", key)
		return err
	})
}

// withChange runs fn and records key in the change feed in one transaction.
func (s *SQLite) withChange(key string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	res, err := tx.Exec("INSERT INTO kv_changes (key, origin) VALUES (?, ?)", key, s.origin)
	if err != nil {
		return fmt.Errorf("record change: %w", err)
	}
	if seq, err := res.LastInsertId(); err == nil && seq > changeRetention {
		if _, err := tx.Exec("DELETE FROM kv_changes WHERE seq <= ?", seq-changeRetention); err != nil {
			return fmt.Errorf("prune changes: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) ForEach(fn func(key, value string) error) error {
	rows, err := s.db.Query("SELECT key, value FROM kv ORDER BY key")
	if err != nil {
		return err
	}
	defer rows.Close()

	pairs := make([][2]string, 0)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		pairs = append(pairs, [2]string{k, v})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, p := range pairs {
		if err := fn(p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}

// Watch polls the change feed and reports keys written by other instances.
// Changes made before Watch was called are not reported.
func (s *SQLite) Watch(ctx context.Context, fn func(key string)) error {
	var last int64
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM kv_changes").Scan(&last); err != nil {
		return fmt.Errorf("read change feed position: %w", err)
	}

	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		next, err := s.pollChanges(ctx, last, fn)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		last = next
	}
}

func (s *SQLite) pollChanges(ctx context.Context, after int64, fn func(key string)) (int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, key, origin FROM kv_changes WHERE seq > ? ORDER BY seq", after)
	if err != nil {
		return after, fmt.Errorf("poll change feed: %w", err)
	}
	defer rows.Close()

	type change struct{ key, origin string }
	var changes []change
	last := after
	for rows.Next() {
		var (
			seq int64
			c   change
		)
		if err := rows.Scan(&seq, &c.key, &c.origin); err != nil {
			return after, err
		}
		changes = append(changes, c)
		last = seq
	}
	if err := rows.Err(); err != nil {
		return after, err
	}

	for _, c := range changes {
		if c.origin != s.origin {
			fn(c.key)
		}
	}
	return last, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
