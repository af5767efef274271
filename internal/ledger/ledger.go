// Package ledger maintains the persistent mapping from canonical
// (author, series) pairs to known ISBNs and expected volumes. The ledger is
// append-only: entries are created on first observation and updated as new
// ISBNs, volumes or expected titles are learned, never deleted.
package ledger

import (
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"lothelper/internal/identity"
)

func nowUnix() int64 { return time.Now().Unix() }

// VolumeRef is what the ledger knows about a single ISBN within a series.
type VolumeRef struct {
	Volume int    `json:"volume,omitempty"`
	Title  string `json:"title,omitempty"`
}

// Entry is one (canonical_author, canonical_series) ledger record.
type Entry struct {
	CanonicalAuthor string               `json:"canonical_author"`
	CanonicalSeries string               `json:"canonical_series"`
	DisplayAuthor   string               `json:"display_author,omitempty"`
	DisplaySeries   string               `json:"display_series,omitempty"`
	ExpectedVols    map[string]string    `json:"expected_vols"`
	KnownISBNs      map[string]VolumeRef `json:"known_isbns"`
	LastEnriched    int64                `json:"last_enriched,omitempty"`
}

// Route is the result of an ISBN lookup against the ledger index.
type Route struct {
	CanonicalAuthor string
	CanonicalSeries string
	DisplayAuthor   string
	DisplaySeries   string
	Volume          int
	Title           string
	ExpectedCount   int
}

type routeIndex map[string]Route

// Ledger is the in-memory series ledger. Mutations are serialized by a
// single lock; ISBN routing reads an atomically swapped index snapshot so a
// full candidate-generation pass never blocks writers.
type Ledger struct {
	store   Store
	catalog SeriesCatalog

	mu           sync.Mutex
	entries      map[string]*Entry
	dirty        bool
	bootstrapped map[string]bool

	index atomic.Pointer[routeIndex]
}

// New creates an empty ledger backed by store. catalog may be nil when
// bootstrap seeding is not available.
func New(store Store, catalog SeriesCatalog) *Ledger {
	l := &Ledger{
		store:        store,
		catalog:      catalog,
		entries:      make(map[string]*Entry),
		bootstrapped: make(map[string]bool),
	}
	l.swapIndex()
	return l
}

func entryKey(canonAuthor, canonSeries string) string {
	return canonAuthor + "|" + canonSeries
}

// Load replaces the in-memory state with the stored ledger and rebuilds the
// ISBN index. A missing or empty store yields an empty ledger.
func (l *Ledger) Load() error {
	entries, err := l.store.Load()
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*Entry, len(entries))
	for key, entry := range entries {
		if entry == nil {
			continue
		}
		if entry.ExpectedVols == nil {
			entry.ExpectedVols = make(map[string]string)
		}
		if entry.KnownISBNs == nil {
			entry.KnownISBNs = make(map[string]VolumeRef)
		}
		l.entries[key] = entry
	}
	l.dirty = false
	l.swapIndex()
	return nil
}

// SaveIfDirty persists the ledger only when a mutation actually changed
// something since the last load or save.
func (l *Ledger) SaveIfDirty() error {
	l.mu.Lock()
	if !l.dirty {
		l.mu.Unlock()
		return nil
	}
	snapshot := make(map[string]*Entry, len(l.entries))
	for key, entry := range l.entries {
		copied := copyEntry(entry)
		snapshot[key] = &copied
	}
	l.mu.Unlock()

	if err := l.store.Save(snapshot); err != nil {
		return err
	}
	l.mu.Lock()
	l.dirty = false
	l.mu.Unlock()
	return nil
}

// RouteISBN looks up which series an ISBN belongs to. Lock-free: reads the
// current index snapshot, which may be a few moments stale.
func (l *Ledger) RouteISBN(isbn string) (Route, bool) {
	idx := l.index.Load()
	if idx == nil {
		return Route{}, false
	}
	route, ok := (*idx)[isbn]
	return route, ok
}

// AddMapping upserts the ledger entry for (author, series) and records the
// ISBN under it. When a volume number is known and the matching expected
// slot is empty, the expected title is back-filled. A mapping that changes
// nothing leaves the dirty flag untouched. An ISBN previously mapped to a
// different series is moved: last write wins.
func (l *Ledger) AddMapping(isbn, author, series string, volume int, title string, enrichedAt int64) {
	canonAuthor := identity.AuthorKey(author)
	canonSeries := identity.SeriesKey(series)
	if isbn == "" || canonAuthor == "" || canonSeries == "" {
		return
	}
	if volume < 0 {
		volume = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := entryKey(canonAuthor, canonSeries)
	entry := l.ensureEntry(key, canonAuthor, canonSeries, author, series)

	changed := false
	if prev := l.findEntryForISBN(isbn); prev != nil && prev != entry {
		delete(prev.KnownISBNs, isbn)
		changed = true
	}

	record, exists := entry.KnownISBNs[isbn]
	if !exists || record.Volume != volume || record.Title != title {
		entry.KnownISBNs[isbn] = VolumeRef{Volume: volume, Title: title}
		changed = true
	}

	if volume > 0 {
		volKey := strconv.Itoa(volume)
		if entry.ExpectedVols[volKey] == "" && title != "" {
			entry.ExpectedVols[volKey] = title
			changed = true
		}
	}

	if enrichedAt > 0 && entry.LastEnriched != enrichedAt {
		entry.LastEnriched = enrichedAt
		changed = true
	}

	if changed {
		l.dirty = true
		l.swapIndex()
	}
}

// AddExpectedTitles seeds the expected-volume map for (author, series) with
// a known canonical ordering, assigning 1-based volume keys. Existing slots
// are kept; a call that fills no new slot leaves the dirty flag untouched.
func (l *Ledger) AddExpectedTitles(author, series string, titles []string, enrichedAt int64) {
	canonAuthor := identity.AuthorKey(author)
	canonSeries := identity.SeriesKey(series)
	if canonAuthor == "" || canonSeries == "" || len(titles) == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := entryKey(canonAuthor, canonSeries)
	entry := l.ensureEntry(key, canonAuthor, canonSeries, author, series)

	changed := false
	for i, title := range titles {
		volKey := strconv.Itoa(i + 1)
		if _, ok := entry.ExpectedVols[volKey]; !ok {
			entry.ExpectedVols[volKey] = title
			changed = true
		}
	}
	if enrichedAt > 0 && entry.LastEnriched != enrichedAt {
		entry.LastEnriched = enrichedAt
		changed = true
	}

	if changed {
		l.dirty = true
		l.swapIndex()
	}
}

// ExpectedFor returns a copy of the expected-volume map for (author, series).
func (l *Ledger) ExpectedFor(author, series string) map[string]string {
	entry, ok := l.lookup(author, series)
	if !ok {
		return nil
	}
	return entry.ExpectedVols
}

// MissingFor returns expected volume keys not covered by any known ISBN,
// mapped to their expected titles.
func (l *Ledger) MissingFor(author, series string) map[string]string {
	entry, ok := l.lookup(author, series)
	if !ok {
		return nil
	}
	known := make(map[string]bool, len(entry.KnownISBNs))
	for _, ref := range entry.KnownISBNs {
		if ref.Volume > 0 {
			known[strconv.Itoa(ref.Volume)] = true
		}
	}
	missing := make(map[string]string)
	for volKey, title := range entry.ExpectedVols {
		if !known[volKey] {
			missing[volKey] = title
		}
	}
	return missing
}

// Entry returns a copy of the ledger entry for a canonical pair.
func (l *Ledger) Entry(canonAuthor, canonSeries string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[entryKey(canonAuthor, canonSeries)]
	if !ok {
		return Entry{}, false
	}
	return copyEntry(entry), true
}

// EntriesForAuthor returns copies of all entries whose canonical author
// matches the given name, keyed by canonical series.
func (l *Ledger) EntriesForAuthor(author string) map[string]Entry {
	canonAuthor := identity.AuthorKey(author)
	if canonAuthor == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	results := make(map[string]Entry)
	for _, entry := range l.entries {
		if entry.CanonicalAuthor == canonAuthor {
			results[entry.CanonicalSeries] = copyEntry(entry)
		}
	}
	return results
}

// CanonicalAuthors lists every canonical author present in the ledger.
func (l *Ledger) CanonicalAuthors() map[string]bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	authors := make(map[string]bool, len(l.entries))
	for _, entry := range l.entries {
		authors[entry.CanonicalAuthor] = true
	}
	return authors
}

// Bootstrap makes a one-time attempt to seed expected titles for an author
// from the local series catalog. Repeat calls for the same canonical author
// are no-ops, including after failures: permanently unavailable data should
// not be retried every pass.
func (l *Ledger) Bootstrap(author string) bool {
	canonAuthor := identity.AuthorKey(author)
	if canonAuthor == "" || l.catalog == nil {
		return false
	}

	l.mu.Lock()
	if l.bootstrapped[canonAuthor] {
		l.mu.Unlock()
		return false
	}
	l.bootstrapped[canonAuthor] = true
	l.mu.Unlock()

	seriesTitles, err := l.catalog.SeriesForAuthor(author)
	if err != nil {
		slog.Debug("Series catalog lookup failed", "author", author, "error", err)
		return false
	}

	updated := false
	for series, titles := range seriesTitles {
		if len(titles) == 0 {
			continue
		}
		if expected := l.ExpectedFor(author, series); len(expected) > 0 {
			continue
		}
		l.AddExpectedTitles(author, series, titles, nowUnix())
		updated = true
	}
	if updated {
		slog.Debug("Ledger bootstrapped from local catalog", "author", author, "series", len(seriesTitles))
	}
	return updated
}

// MarkEnriched stamps the entry for (author, series) with an enrichment
// timestamp; ts <= 0 means "now".
func (l *Ledger) MarkEnriched(author, series string, ts int64) {
	canonAuthor := identity.AuthorKey(author)
	canonSeries := identity.SeriesKey(series)
	if canonAuthor == "" || canonSeries == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[entryKey(canonAuthor, canonSeries)]
	if !ok {
		return
	}
	if ts <= 0 {
		ts = nowUnix()
	}
	entry.LastEnriched = ts
	l.dirty = true
}

// KnownISBNs lists every ISBN the ledger can route, sorted for stable output.
func (l *Ledger) KnownISBNs() []string {
	idx := l.index.Load()
	if idx == nil {
		return nil
	}
	isbns := make([]string, 0, len(*idx))
	for isbn := range *idx {
		isbns = append(isbns, isbn)
	}
	sort.Strings(isbns)
	return isbns
}

// ---------------------------------------------------------------------------
// internal helpers (callers hold l.mu unless noted)

func (l *Ledger) ensureEntry(key, canonAuthor, canonSeries, displayAuthor, displaySeries string) *Entry {
	entry, ok := l.entries[key]
	if !ok {
		entry = &Entry{
			CanonicalAuthor: canonAuthor,
			CanonicalSeries: canonSeries,
			ExpectedVols:    make(map[string]string),
			KnownISBNs:      make(map[string]VolumeRef),
		}
		l.entries[key] = entry
	}
	if entry.DisplayAuthor == "" && displayAuthor != "" {
		entry.DisplayAuthor = displayAuthor
	}
	if entry.DisplaySeries == "" && displaySeries != "" {
		entry.DisplaySeries = displaySeries
	}
	return entry
}

func (l *Ledger) findEntryForISBN(isbn string) *Entry {
	for _, entry := range l.entries {
		if _, ok := entry.KnownISBNs[isbn]; ok {
			return entry
		}
	}
	return nil
}

func (l *Ledger) lookup(author, series string) (Entry, bool) {
	canonAuthor := identity.AuthorKey(author)
	canonSeries := identity.SeriesKey(series)
	if canonAuthor == "" || canonSeries == "" {
		return Entry{}, false
	}
	return l.Entry(canonAuthor, canonSeries)
}

// swapIndex publishes a fresh ISBN index snapshot. Caller holds l.mu (or is
// the constructor, before the ledger is shared).
func (l *Ledger) swapIndex() {
	idx := make(routeIndex)
	for _, entry := range l.entries {
		for isbn, ref := range entry.KnownISBNs {
			idx[isbn] = Route{
				CanonicalAuthor: entry.CanonicalAuthor,
				CanonicalSeries: entry.CanonicalSeries,
				DisplayAuthor:   entry.DisplayAuthor,
				DisplaySeries:   entry.DisplaySeries,
				Volume:          ref.Volume,
				Title:           ref.Title,
				ExpectedCount:   len(entry.ExpectedVols),
			}
		}
	}
	l.index.Store(&idx)
}

func copyEntry(entry *Entry) Entry {
	copied := *entry
	copied.ExpectedVols = make(map[string]string, len(entry.ExpectedVols))
	for k, v := range entry.ExpectedVols {
		copied.ExpectedVols[k] = v
	}
	copied.KnownISBNs = make(map[string]VolumeRef, len(entry.KnownISBNs))
	for k, v := range entry.KnownISBNs {
		copied.KnownISBNs[k] = v
	}
	return copied
}
