// Package book defines the scanned-book record and the catalog provider the
// grouping engine reads from. Records are constructed by the cataloguing
// side of the application and treated as immutable here.
package book

import "lothelper/internal/identity"

// Record is one scanned, owned book.
type Record struct {
	ISBN             string   `json:"isbn"`
	Title            string   `json:"title"`
	Subtitle         string   `json:"subtitle,omitempty"`
	Authors          []string `json:"authors"`
	CanonicalAuthor  string   `json:"canonical_author,omitempty"`
	SeriesName       string   `json:"series_name,omitempty"`
	SeriesIndex      int      `json:"series_index,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	Binding          string   `json:"binding,omitempty"`
	PageCount        int      `json:"page_count,omitempty"`
	EstimatedPrice   float64  `json:"estimated_price"`
	ProbabilityScore float64  `json:"probability_score"`
	ProbabilityLabel string   `json:"probability_label,omitempty"`
}

// PrimaryAuthor returns the first credited author, splitting joint credits
// like "Neil Gaiman & Terry Pratchett" down to the leading name.
func (r Record) PrimaryAuthor() string {
	for _, a := range r.Authors {
		if name := identity.FirstCredited(a); name != "" {
			return name
		}
	}
	return ""
}

// AuthorKey returns the canonical grouping key for the record: the explicit
// canonical author when the cataloguer set one, otherwise derived from the
// first credited name. Empty means "no author" and excludes the book from
// author/series grouping.
func (r Record) AuthorKey() string {
	if r.CanonicalAuthor != "" {
		if key := identity.AuthorKey(r.CanonicalAuthor); key != "" {
			return key
		}
	}
	return identity.AuthorKey(r.PrimaryAuthor())
}

// FirstCategory returns the record's leading genre/category, if any.
func (r Record) FirstCategory() string {
	for _, c := range r.Categories {
		if c != "" {
			return c
		}
	}
	return ""
}

// CatalogProvider supplies the current catalog of owned books; one
// read-only snapshot per engine run.
type CatalogProvider interface {
	ListBooks() ([]Record, error)
}
