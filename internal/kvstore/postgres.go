package kvstore

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const settingsSchema = `
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// PostgresStore keeps entries in a settings table, one row per key.
type PostgresStore struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresStore creates a PostgresStore over an existing connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// OpenPostgresStore connects to the given DSN, verifies the connection,
// ensures the settings table exists, and returns a store over it.
func OpenPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(settingsSchema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return NewPostgresStore(db), nil
}

// Get returns the value stored under key.
func (s *PostgresStore) Get(key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRow(
		`SELECT value FROM settings WHERE key = $1`,
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set upserts value under key.
func (s *PostgresStore) Set(key, value string) error {
	_, err := s.DB.Exec(
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	return err
}

// Delete removes key. Deleting an absent key is not an error.
func (s *PostgresStore) Delete(key string) error {
	_, err := s.DB.Exec(`DELETE FROM settings WHERE key = $1`, key)
	return err
}
