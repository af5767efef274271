package book

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const bookSchema = `
	CREATE TABLE IF NOT EXISTS books (
		isbn TEXT PRIMARY KEY NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		subtitle TEXT NOT NULL DEFAULT '',
		authors TEXT NOT NULL DEFAULT '[]',
		canonical_author TEXT NOT NULL DEFAULT '',
		series_name TEXT NOT NULL DEFAULT '',
		series_index INTEGER NOT NULL DEFAULT 0,
		categories TEXT NOT NULL DEFAULT '[]',
		binding TEXT NOT NULL DEFAULT '',
		page_count INTEGER NOT NULL DEFAULT 0,
		estimated_price REAL NOT NULL DEFAULT 0,
		probability_score REAL NOT NULL DEFAULT 0,
		probability_label TEXT NOT NULL DEFAULT ''
	);
`

// SQLiteCatalog implements CatalogProvider on a local SQLite database.
type SQLiteCatalog struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteCatalog creates a new SQLiteCatalog instance.
func NewSQLiteCatalog(dbPath string) *SQLiteCatalog {
	return &SQLiteCatalog{dbPath: dbPath}
}

// Connect opens the database and ensures the books table exists.
func (c *SQLiteCatalog) Connect() error {
	db, err := sql.Open("sqlite", c.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog database: %w", err)
	}
	if _, err := db.Exec(bookSchema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create books table: %w", err)
	}
	c.db = db
	return nil
}

// ListBooks returns every book in the catalog.
func (c *SQLiteCatalog) ListBooks() ([]Record, error) {
	rows, err := c.db.Query(`
		SELECT isbn, title, subtitle, authors, canonical_author, series_name,
			series_index, categories, binding, page_count, estimated_price,
			probability_score, probability_label
		FROM books
		ORDER BY isbn
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var r Record
		var authors, categories string
		if err := rows.Scan(
			&r.ISBN, &r.Title, &r.Subtitle, &authors, &r.CanonicalAuthor,
			&r.SeriesName, &r.SeriesIndex, &categories, &r.Binding,
			&r.PageCount, &r.EstimatedPrice, &r.ProbabilityScore, &r.ProbabilityLabel,
		); err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		if err := json.Unmarshal([]byte(authors), &r.Authors); err != nil {
			r.Authors = nil
		}
		if err := json.Unmarshal([]byte(categories), &r.Categories); err != nil {
			r.Categories = nil
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read book rows: %w", err)
	}
	return records, nil
}

// Upsert writes a record; used by the cataloguing side and test fixtures,
// the grouping engine itself only reads.
func (c *SQLiteCatalog) Upsert(r Record) error {
	authors, err := json.Marshal(r.Authors)
	if err != nil {
		return fmt.Errorf("failed to marshal authors: %w", err)
	}
	categories, err := json.Marshal(r.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	_, err = c.db.Exec(`
		INSERT OR REPLACE INTO books (
			isbn, title, subtitle, authors, canonical_author, series_name,
			series_index, categories, binding, page_count, estimated_price,
			probability_score, probability_label
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ISBN, r.Title, r.Subtitle, string(authors), r.CanonicalAuthor,
		r.SeriesName, r.SeriesIndex, string(categories), r.Binding,
		r.PageCount, r.EstimatedPrice, r.ProbabilityScore, r.ProbabilityLabel)
	if err != nil {
		return fmt.Errorf("failed to upsert book: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
