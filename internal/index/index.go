// Package index keeps a local list of the lookup keys that currently have
// a secret in the credential store. The store API cannot enumerate its own
// entries, so listing needs this sidecar database. It records key names
// only; secret material never touches disk through this program.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Ensure the driver is imported. The name "_" means we only want its side effects (registering the driver).
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a key is not in the index
	ErrNotFound = errors.New("key not found in index")
)

// EnvPath overrides the index location; used by tests and unusual setups.
const EnvPath = "HUSHKEY_INDEX"

// DefaultPath returns the index database location.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "hushkey", "index.db"), nil
}

// Index provides access to the key index database.
type Index struct {
	db *sql.DB
}

// Open opens the index database at path, creating the file and applying
// pending schema migrations as needed.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	// Busy timeout is generally a good idea: ssh can invoke several
	// helpers in quick succession.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open failed: %w", err)
	}

	// Ping to verify the connection is alive immediately after opening.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping failed after open: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Index{db: db}, nil
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.db.Close()
}

// Add records a lookup key. Adding a key that is already present is not an
// error; the index mirrors the store's create-or-overwrite semantics.
func (i *Index) Add(key string) error {
	_, err := i.db.Exec(
		"INSERT INTO keys (key) VALUES (?) ON CONFLICT(key) DO NOTHING",
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to add index key: %w", err)
	}
	return nil
}

// Remove deletes a lookup key from the index.
func (i *Index) Remove(key string) error {
	result, err := i.db.Exec("DELETE FROM keys WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to remove index key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Keys returns all recorded lookup keys in sorted order.
func (i *Index) Keys() ([]string, error) {
	rows, err := i.db.Query("SELECT key FROM keys ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to query index keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan index key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index keys: %w", err)
	}
	return keys, nil
}
