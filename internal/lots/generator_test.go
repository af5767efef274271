package lots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lothelper/internal/book"
	"lothelper/internal/ledger"
)

// memStore keeps the ledger in memory for tests.
type memStore struct {
	saved map[string]*ledger.Entry
}

func (s *memStore) Load() (map[string]*ledger.Entry, error) { return s.saved, nil }
func (s *memStore) Save(entries map[string]*ledger.Entry) error {
	s.saved = entries
	return nil
}

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	catalog, err := ledger.NewLocalCatalog("")
	require.NoError(t, err)
	l := ledger.New(&memStore{}, catalog)
	require.NoError(t, l.Load())
	return l
}

var potterTitles = []string{
	"Harry Potter and the Philosopher's Stone",
	"Harry Potter and the Chamber of Secrets",
	"Harry Potter and the Prisoner of Azkaban",
	"Harry Potter and the Goblet of Fire",
	"Harry Potter and the Order of the Phoenix",
	"Harry Potter and the Half-Blood Prince",
	"Harry Potter and the Deathly Hallows",
}

func potterBook(isbn string, volume int) book.Record {
	return book.Record{
		ISBN:             isbn,
		Title:            potterTitles[volume-1],
		Authors:          []string{"J. K. Rowling"},
		SeriesName:       "Harry Potter",
		SeriesIndex:      volume,
		EstimatedPrice:   8,
		ProbabilityScore: 60,
	}
}

// Four Harry Potter volumes plus two unrelated books under a comma-form
// spelling of the same author.
func rowlingCatalog() []book.Record {
	return []book.Record{
		potterBook("9780001", 1),
		potterBook("9780002", 2),
		potterBook("9780004", 4),
		potterBook("9780005", 5),
		{
			ISBN:             "9780100",
			Title:            "The Casual Vacancy",
			Authors:          []string{"Rowling, J. K."},
			EstimatedPrice:   6,
			ProbabilityScore: 40,
		},
		{
			ISBN:             "9780101",
			Title:            "Very Good Lives",
			Authors:          []string{"Rowling, J. K."},
			EstimatedPrice:   5,
			ProbabilityScore: 40,
		},
	}
}

func TestGenerateRowlingCatalog(t *testing.T) {
	led := newTestLedger(t)
	led.AddExpectedTitles("J. K. Rowling", "Harry Potter", potterTitles, 0)

	gen := &Generator{Ledger: led}
	candidates, coverages := gen.Generate(rowlingCatalog())

	// Both spellings collapse to one author group: one series candidate and
	// one author candidate.
	require.Len(t, candidates, 2)

	var series, author *Candidate
	for _, c := range candidates {
		switch c.Strategy {
		case StrategySeries:
			series = c
		case StrategyAuthor:
			author = c
		}
	}
	require.NotNil(t, series)
	require.NotNil(t, author)

	assert.Equal(t, "rowling", series.CanonicalAuthor)
	assert.Equal(t, "harry potter", series.CanonicalSeries)
	assert.Equal(t, 4, series.SeriesHave)
	assert.Equal(t, 7, series.SeriesExpected)
	assert.True(t, series.IsSingleSeries)
	assert.Len(t, series.Books, 4)

	assert.Len(t, author.Books, 6)
	assert.False(t, author.IsSingleSeries)
	assert.Equal(t, "harry potter", author.CanonicalSeries)

	require.Len(t, coverages, 1)
	assert.Equal(t, 4, coverages[0].Have)
	assert.Equal(t, 7, coverages[0].Expected)

	missing := led.MissingFor("J. K. Rowling", "Harry Potter")
	assert.Len(t, missing, 3)
	assert.Contains(t, missing, "3")
	assert.Contains(t, missing, "6")
	assert.Contains(t, missing, "7")
}

func TestGenerateRoutesKnownISBNs(t *testing.T) {
	led := newTestLedger(t)
	// The ledger already knows this ISBN; the book record itself has no
	// series metadata.
	led.AddMapping("9780050", "Jane Author", "Alpha Saga", 2, "Alpha Two", 0)

	books := []book.Record{
		{ISBN: "9780050", Title: "Alpha Two", Authors: []string{"Jane Author"}},
		{ISBN: "9780051", Title: "Alpha Three", Authors: []string{"Jane Author"}, SeriesName: "Alpha Saga", SeriesIndex: 3},
	}

	gen := &Generator{Ledger: led}
	candidates, _ := gen.Generate(books)

	var series *Candidate
	for _, c := range candidates {
		if c.Strategy == StrategySeries {
			series = c
		}
	}
	require.NotNil(t, series)
	assert.Len(t, series.Books, 2)
	assert.Equal(t, 2, series.SeriesHave)
}

func TestGenerateAdoptsBookByExpectedTitle(t *testing.T) {
	led := newTestLedger(t)
	led.AddExpectedTitles("J. K. Rowling", "Harry Potter", potterTitles, 0)

	// The third book carries the title of a seeded volume but no series
	// metadata and no ledger route.
	books := []book.Record{
		potterBook("9780001", 1),
		potterBook("9780002", 2),
		{
			ISBN:             "9780404",
			Title:            "Harry Potter and the Goblet of Fire",
			Authors:          []string{"J. K. Rowling"},
			EstimatedPrice:   8,
			ProbabilityScore: 60,
		},
	}

	gen := &Generator{Ledger: led}
	candidates, _ := gen.Generate(books)

	var series *Candidate
	for _, c := range candidates {
		if c.Strategy == StrategySeries {
			series = c
		}
	}
	require.NotNil(t, series)
	assert.Len(t, series.Books, 3)
	assert.Equal(t, 3, series.SeriesHave)

	// The adoption is written back into the ledger.
	route, ok := led.RouteISBN("9780404")
	require.True(t, ok)
	assert.Equal(t, "harry potter", route.CanonicalSeries)
	assert.Equal(t, 4, route.Volume)
}

func TestGenerateInfersVolumeFromTitle(t *testing.T) {
	led := newTestLedger(t)

	books := []book.Record{
		{ISBN: "9780060", Title: "Wool #1", Authors: []string{"Hugh Howey"}, SeriesName: "Silo"},
		{ISBN: "9780061", Title: "Shift", Subtitle: "Book 2", Authors: []string{"Hugh Howey"}, SeriesName: "Silo"},
	}

	gen := &Generator{Ledger: led}
	gen.Generate(books)

	route, ok := led.RouteISBN("9780060")
	require.True(t, ok)
	assert.Equal(t, 1, route.Volume)

	route, ok = led.RouteISBN("9780061")
	require.True(t, ok)
	assert.Equal(t, 2, route.Volume)
}

func TestGenerateInfersVolumeFromExpectedTitle(t *testing.T) {
	led := newTestLedger(t)
	led.AddExpectedTitles("Jane Author", "Trilogy", []string{"First Light", "Second Dawn", "Third Dusk"}, 0)

	books := []book.Record{
		{ISBN: "9780070", Title: "Second Dawn: A Novel", Authors: []string{"Jane Author"}, SeriesName: "Trilogy"},
		{ISBN: "9780071", Title: "Third Dusk", Authors: []string{"Jane Author"}, SeriesName: "Trilogy"},
	}

	gen := &Generator{Ledger: led}
	gen.Generate(books)

	route, ok := led.RouteISBN("9780070")
	require.True(t, ok)
	assert.Equal(t, 2, route.Volume)
}

func TestGenerateSkipsAuthorlessBooks(t *testing.T) {
	led := newTestLedger(t)

	books := []book.Record{
		{ISBN: "9780080", Title: "Anonymous Work"},
		{ISBN: "9780081", Title: "Initials Only", Authors: []string{"J. K."}},
	}

	gen := &Generator{Ledger: led}
	candidates, coverages := gen.Generate(books)
	assert.Empty(t, candidates)
	assert.Empty(t, coverages)
}

func TestGenerateSingleBookSeriesYieldsCoverageOnly(t *testing.T) {
	led := newTestLedger(t)
	led.AddExpectedTitles("Jane Author", "Trilogy", []string{"One", "Two", "Three"}, 0)

	books := []book.Record{
		{ISBN: "9780090", Title: "One", Authors: []string{"Jane Author"}, SeriesName: "Trilogy", SeriesIndex: 1, ProbabilityScore: 50},
	}

	gen := &Generator{Ledger: led}
	candidates, coverages := gen.Generate(books)

	assert.Empty(t, candidates)
	require.Len(t, coverages, 1)
	assert.Equal(t, 1, coverages[0].Have)
	assert.Equal(t, 3, coverages[0].Expected)
	assert.Len(t, coverages[0].Missing, 2)
}

func TestCategoryGrouper(t *testing.T) {
	books := []book.Record{
		{ISBN: "1", Categories: []string{"Mystery"}},
		{ISBN: "2", Categories: []string{"Mystery"}},
		{ISBN: "3", Categories: []string{"Mystery"}},
		{ISBN: "4", Categories: []string{"Romance"}},
		{ISBN: "5"},
	}

	candidates := CategoryGrouper{}.Group(books)
	require.Len(t, candidates, 1)
	assert.Equal(t, StrategyGenre, candidates[0].Strategy)
	assert.Equal(t, "Mystery Lot", candidates[0].Name)
	assert.Equal(t, "Mystery", candidates[0].Theme)
	assert.Len(t, candidates[0].Books, 3)

	// A lower floor admits the two-book genre as well.
	candidates = CategoryGrouper{MinBooks: 1}.Group(books)
	assert.Len(t, candidates, 2)
}
