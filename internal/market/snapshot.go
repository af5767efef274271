// Package market provides lot-level market signals: median prices and
// listing counts for active and sold listings matching a lot's author,
// series or theme. The engine treats an empty snapshot as "no market signal
// available", never as an error.
package market

import (
	"context"
	"strings"
)

// Snapshot summarizes the market for one lot search. Zero-valued medians
// mean no price signal was available.
type Snapshot struct {
	Queries      []string `json:"queries,omitempty"`
	ActiveMedian float64  `json:"active_median,omitempty"`
	SoldMedian   float64  `json:"sold_median,omitempty"`
	ActiveCount  int      `json:"active_count"`
	SoldCount    int      `json:"sold_count"`
	Source       string   `json:"source,omitempty"`
	FetchedAt    int64    `json:"ts,omitempty"`
}

// HasSignal reports whether the snapshot carries any usable market data.
func (s Snapshot) HasSignal() bool {
	return s.ActiveMedian > 0 || s.SoldMedian > 0 || s.ActiveCount > 0 || s.SoldCount > 0
}

// Provider fetches market snapshots. Implementations handle their own
// caching, rate limiting and credential plumbing; callers get a zero
// Snapshot (not an error) when no signal exists.
type Provider interface {
	SnapshotFor(ctx context.Context, author, series, theme string) (Snapshot, error)
}

// BuildQueries assembles the search queries for a lot, most specific first.
// Duplicates are removed while preserving order.
func BuildQueries(author, series, theme string) []string {
	var queries []string
	seen := make(map[string]bool)
	add := func(q string) {
		q = strings.Join(strings.Fields(q), " ")
		if q != "" && !seen[q] {
			seen[q] = true
			queries = append(queries, q)
		}
	}
	if series != "" {
		add(`"` + series + `" ` + author + ` lot set`)
		add(`"` + series + `" lot set books`)
	}
	if author != "" {
		add(author + " lot set")
		add(author + " book lot")
	}
	if theme != "" {
		add(theme + " lot set books")
	}
	if len(queries) == 0 {
		add("book lot set")
	}
	return queries
}

// CacheKey builds the snapshot cache key for a lot search.
func CacheKey(author, series, theme string) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(author)),
		strings.ToLower(strings.TrimSpace(series)),
		strings.ToLower(strings.TrimSpace(theme)),
	}
	return strings.Join(parts, "|")
}
