package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store persists the ledger as an opaque blob per canonical pair.
type Store interface {
	// Load returns all stored entries keyed by "canonAuthor|canonSeries".
	Load() (map[string]*Entry, error)

	// Save replaces the stored ledger with the given entries.
	Save(map[string]*Entry) error
}

const ledgerSchema = `
	CREATE TABLE IF NOT EXISTS series_ledger (
		entry_key TEXT PRIMARY KEY NOT NULL,
		data TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

// SQLiteStore implements Store on a local SQLite database, one JSON blob
// per ledger entry.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLiteStore instance.
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{dbPath: dbPath}
}

// Connect opens the database and ensures the ledger table exists.
func (s *SQLiteStore) Connect() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger database: %w", err)
	}
	if _, err := db.Exec(ledgerSchema); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return fmt.Errorf("failed to create ledger table: %w (close: %v)", err, closeErr)
		}
		return fmt.Errorf("failed to create ledger table: %w", err)
	}
	s.db = db
	return nil
}

// Load reads every ledger entry blob.
func (s *SQLiteStore) Load() (map[string]*Entry, error) {
	rows, err := s.db.Query(`SELECT entry_key, data FROM series_ledger`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make(map[string]*Entry)
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		var entry Entry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			// A corrupt blob is skipped rather than failing the whole load.
			continue
		}
		entries[key] = &entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger rows: %w", err)
	}
	return entries, nil
}

// Save replaces all stored entries inside a single transaction.
func (s *SQLiteStore) Save(entries map[string]*Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM series_ledger`); err != nil {
		return fmt.Errorf("failed to clear ledger: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO series_ledger (entry_key, data) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for key, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal ledger entry %q: %w", key, err)
		}
		if _, err := stmt.Exec(key, string(data)); err != nil {
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
