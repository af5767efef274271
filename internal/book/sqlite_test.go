package book

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	catalog := NewSQLiteCatalog(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, catalog.Connect())
	t.Cleanup(func() { _ = catalog.Close() })
	return catalog
}

func TestUpsertAndListBooks(t *testing.T) {
	catalog := openTestCatalog(t)

	record := Record{
		ISBN:             "9780441013593",
		Title:            "Dune",
		Authors:          []string{"Frank Herbert"},
		SeriesName:       "Dune",
		SeriesIndex:      1,
		Categories:       []string{"Science Fiction"},
		Binding:          "Paperback",
		PageCount:        604,
		EstimatedPrice:   9.5,
		ProbabilityScore: 72,
		ProbabilityLabel: "High",
	}
	require.NoError(t, catalog.Upsert(record))

	books, err := catalog.ListBooks()
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, record, books[0])
}

func TestUpsertReplacesExisting(t *testing.T) {
	catalog := openTestCatalog(t)

	require.NoError(t, catalog.Upsert(Record{ISBN: "978", Title: "First"}))
	require.NoError(t, catalog.Upsert(Record{ISBN: "978", Title: "Second"}))

	books, err := catalog.ListBooks()
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Second", books[0].Title)
}

func TestListBooksEmptyCatalog(t *testing.T) {
	catalog := openTestCatalog(t)

	books, err := catalog.ListBooks()
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestPrimaryAuthor(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{"single author", Record{Authors: []string{"Frank Herbert"}}, "Frank Herbert"},
		{"joint credit split", Record{Authors: []string{"Neil Gaiman & Terry Pratchett"}}, "Neil Gaiman"},
		{"and credit split", Record{Authors: []string{"Douglas Preston and Lincoln Child"}}, "Douglas Preston"},
		{"empty leading entry skipped", Record{Authors: []string{"", "Jane Author"}}, "Jane Author"},
		{"no authors", Record{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.PrimaryAuthor())
		})
	}
}

func TestAuthorKeyPrefersExplicitCanonical(t *testing.T) {
	r := Record{Authors: []string{"Robert Galbraith"}, CanonicalAuthor: "J. K. Rowling"}
	assert.Equal(t, "rowling", r.AuthorKey())

	r = Record{Authors: []string{"Robert Galbraith"}}
	assert.Equal(t, "robert galbraith", r.AuthorKey())
}

func TestFirstCategory(t *testing.T) {
	assert.Equal(t, "Mystery", Record{Categories: []string{"", "Mystery", "Crime"}}.FirstCategory())
	assert.Empty(t, Record{}.FirstCategory())
}
