package lots

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Sink receives the engine's final ranked candidate list for persistence.
type Sink interface {
	ReplaceAll(candidates []*Candidate) error
}

// SQLiteSink persists lot candidates to a SQLite table, replacing the full
// set on every run.
type SQLiteSink struct {
	db *sql.DB
	mu sync.Mutex
}

const lotsSchema = `
	CREATE TABLE IF NOT EXISTS lots (
		id TEXT PRIMARY KEY NOT NULL,
		name TEXT NOT NULL,
		strategy TEXT NOT NULL,
		canonical_author TEXT,
		canonical_series TEXT,
		book_isbns TEXT NOT NULL,
		series_have INTEGER,
		series_expected INTEGER,
		is_single_series INTEGER NOT NULL DEFAULT 0,
		estimated_value REAL,
		probability_score REAL,
		probability_label TEXT,
		justification TEXT,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

// OpenSink opens (creating if needed) the lots database.
func OpenSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open lots database: %w", err)
	}
	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to lots database: %w", err), closeErr)
	}
	if _, err := db.Exec(lotsSchema); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to create lots table: %w", err), closeErr)
	}
	return &SQLiteSink{db: db}, nil
}

// ReplaceAll swaps the stored lot set for the given one in a single
// transaction. Duplicate display names get a numeric suffix so the stored
// names stay unique for the front ends.
func (s *SQLiteSink) ReplaceAll(candidates []*Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM lots`); err != nil {
		return fmt.Errorf("failed to clear lots: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO lots (
			id, name, strategy, canonical_author, canonical_series,
			book_isbns, series_have, series_expected, is_single_series,
			estimated_value, probability_score, probability_label, justification
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	seenNames := make(map[string]int)
	for _, c := range candidates {
		name := c.Name
		seenNames[name]++
		if n := seenNames[name]; n > 1 {
			name = fmt.Sprintf("%s (%d)", name, n)
		}

		isbns, err := json.Marshal(c.ISBNs())
		if err != nil {
			return fmt.Errorf("failed to encode lot isbns: %w", err)
		}
		justification, err := json.Marshal(c.Justification)
		if err != nil {
			return fmt.Errorf("failed to encode lot justification: %w", err)
		}

		if _, err := stmt.Exec(
			c.ID, name, string(c.Strategy), c.CanonicalAuthor, c.CanonicalSeries,
			string(isbns), c.SeriesHave, c.SeriesExpected, boolToInt(c.IsSingleSeries),
			c.EstimatedValue, c.ProbabilityScore, c.ProbabilityLabel, string(justification),
		); err != nil {
			return fmt.Errorf("failed to insert lot %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lots: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
