package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

// DatabaseFile is the SQLite file name created inside the storage directory
const DatabaseFile = "ezkeymap.db"

//go:embed migrations/*.sql
var migrations embed.FS

// SQLite stores blobs in a single kv table
type SQLite struct {
	db *sql.DB
}

// NewSQLite migrates and opens <dir>/ezkeymap.db
func NewSQLite(dir string) (*SQLite, error) {
	if dir == "" {
		return nil, errors.New("sqlite storage requires a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	path := filepath.Join(dir, DatabaseFile)
	if err := runMigrations(path); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLite{db: db}, nil
}

func openDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

func runMigrations(path string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+path)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Load implements Backend
func (s *SQLite) Load(ctx context.Context, key string) ([]byte, Version, error) {
	var (
		data    []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, version FROM kv WHERE key = ?`, key).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NoVersion, ErrNotFound
	}
	if err != nil {
		return nil, NoVersion, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return data, sqliteVersion(version), nil
}

// CompareAndSwap implements Backend
func (s *SQLite) CompareAndSwap(ctx context.Context, key string, data []byte, expected Version) (Version, error) {
	if err := validateKey(key); err != nil {
		return NoVersion, err
	}

	var next int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var current int64
		err := tx.QueryRowContext(ctx, `SELECT version FROM kv WHERE key = ?`, key).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if expected != NoVersion {
				return ErrVersionConflict
			}
			next = 1
			_, err = tx.ExecContext(ctx, `INSERT INTO kv (key, value, version) VALUES (?, ?, ?)`, key, data, next)
			return err
		case err != nil:
			return err
		}

		if sqliteVersion(current) != expected {
			return ErrVersionConflict
		}
		next = current + 1
		_, err = tx.ExecContext(ctx,
			`UPDATE kv SET value = ?, version = ?, updated_at = CURRENT_TIMESTAMP WHERE key = ?`,
			data, next, key)
		return err
	})
	if errors.Is(err, ErrVersionConflict) {
		return NoVersion, err
	}
	if err != nil {
		return NoVersion, fmt.Errorf("failed to store %s: %w", key, err)
	}
	return sqliteVersion(next), nil
}

// Close implements Backend
func (s *SQLite) Close() error {
	return s.db.Close()
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func sqliteVersion(v int64) Version {
	return Version(strconv.FormatInt(v, 10))
}
