package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"storefront/internal/models"
)

// SQLStore keeps every collection as one row of a "collections" table,
// with the record array serialized as JSON text. It serves both SQLite and
// PostgreSQL; queries are rebound to the driver's placeholder style.
type SQLStore struct {
	db  *sqlx.DB
	log logrus.FieldLogger
}

// NewSQLiteStore opens (or creates) a SQLite database file
func NewSQLiteStore(path string, log logrus.FieldLogger) (*SQLStore, error) {
	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	return NewSQLStore(db, log)
}

// NewPostgresStore connects to PostgreSQL using a lib/pq DSN
func NewPostgresStore(dsn string, log logrus.FieldLogger) (*SQLStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	return NewSQLStore(db, log)
}

// NewSQLStore wraps an open database and creates the collections table
func NewSQLStore(db *sqlx.DB, log logrus.FieldLogger) (*SQLStore, error) {
	s := &SQLStore{db: db, log: log}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initSchema creates the collections table
func (s *SQLStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize collections schema: %w", err)
	}
	return nil
}

// ReadCollection implements Store
func (s *SQLStore) ReadCollection(ctx context.Context, name string) ([]models.Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, readErr(name, err)
	}

	var data string
	query := s.db.Rebind(`SELECT data FROM collections WHERE name = ?`)
	err := s.db.QueryRowxContext(ctx, query, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		if err := s.WriteCollection(ctx, name, nil); err != nil {
			return nil, err
		}
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, readErr(name, err)
	}

	if data == "" {
		return []models.Record{}, nil
	}

	records, err := models.DecodeRecords([]byte(data))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"collection": name,
			"error":      err,
		}).Warn("Corrupt collection row, resetting to empty")
		if err := s.WriteCollection(ctx, name, nil); err != nil {
			return nil, err
		}
		return []models.Record{}, nil
	}

	return records, nil
}

// Exists implements Store
func (s *SQLStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, readErr(name, err)
	}

	var one int
	query := s.db.Rebind(`SELECT 1 FROM collections WHERE name = ?`)
	err := s.db.QueryRowxContext(ctx, query, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, readErr(name, err)
	}
	return true, nil
}

// WriteCollection implements Store with a single upsert statement
func (s *SQLStore) WriteCollection(ctx context.Context, name string, records []models.Record) error {
	if err := ValidateName(name); err != nil {
		return writeErr(name, err)
	}

	data, err := models.EncodeRecords(records)
	if err != nil {
		return writeErr(name, err)
	}

	query := s.db.Rebind(`
		INSERT INTO collections (name, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`)
	if _, err := s.db.ExecContext(ctx, query, name, string(data), time.Now().Unix()); err != nil {
		return writeErr(name, err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
