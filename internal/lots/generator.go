package lots

import (
	"log/slog"
	"strconv"

	"lothelper/internal/book"
	"lothelper/internal/identity"
	"lothelper/internal/ledger"
)

// Coverage is the per-(author, series) ownership picture the generator
// builds as a side product. It includes single-book series, which never
// become primary candidates but can still back an incomplete-series one.
type Coverage struct {
	CanonicalAuthor string
	DisplayAuthor   string
	CanonicalSeries string
	DisplaySeries   string
	Books           []book.Record
	Have            int
	Expected        int
	Missing         map[string]string
}

// Generator groups the catalog into raw author and series candidates,
// consulting the ledger for series membership and writing back volume
// numbers it manages to infer along the way.
type Generator struct {
	Ledger *ledger.Ledger
}

type seriesGroup struct {
	canonSeries   string
	displaySeries string
	books         []book.Record
	volumes       map[int]bool
	votes         int
}

type authorGroup struct {
	canonAuthor   string
	displayAuthor string
	books         []book.Record
	series        []*seriesGroup
	bySeries      map[string]*seriesGroup
}

// Generate builds raw candidates from the catalog, plus the coverage list
// the filter needs for incomplete-series synthesis. Books with no
// resolvable author are skipped; they stay unlotted.
func (g *Generator) Generate(books []book.Record) ([]*Candidate, []Coverage) {
	groups := g.groupByAuthor(books)

	var candidates []*Candidate
	var coverages []Coverage
	for _, ag := range groups {
		g.Ledger.Bootstrap(ag.displayAuthor)
		g.resolveSeries(ag)

		for _, sg := range ag.series {
			have, expected := g.coverageFor(ag, sg)
			coverages = append(coverages, Coverage{
				CanonicalAuthor: ag.canonAuthor,
				DisplayAuthor:   ag.displayAuthor,
				CanonicalSeries: sg.canonSeries,
				DisplaySeries:   sg.displaySeries,
				Books:           sg.books,
				Have:            have,
				Expected:        expected,
				Missing:         g.Ledger.MissingFor(ag.displayAuthor, sg.displaySeries),
			})

			if len(sg.books) < 2 {
				continue
			}
			cand := newCandidate(StrategySeries, seriesLotName(sg.displaySeries, ag.displayAuthor), sg.books)
			cand.CanonicalAuthor = ag.canonAuthor
			cand.DisplayAuthor = ag.displayAuthor
			cand.CanonicalSeries = sg.canonSeries
			cand.DisplaySeries = sg.displaySeries
			cand.SeriesHave = have
			cand.SeriesExpected = expected
			cand.IsSingleSeries = true
			candidates = append(candidates, cand)
		}

		if len(ag.books) < 2 {
			continue
		}
		cand := newCandidate(StrategyAuthor, authorLotName(ag.displayAuthor), ag.books)
		cand.CanonicalAuthor = ag.canonAuthor
		cand.DisplayAuthor = ag.displayAuthor
		if dominant := g.dominantSeries(ag); dominant != nil {
			cand.CanonicalSeries = dominant.canonSeries
			cand.DisplaySeries = dominant.displaySeries
			cand.SeriesHave, cand.SeriesExpected = g.coverageFor(ag, dominant)
		}
		cand.IsSingleSeries = len(ag.series) == 1 && len(ag.series[0].books) == len(ag.books)
		candidates = append(candidates, cand)
	}
	return candidates, coverages
}

// groupByAuthor buckets books by canonical author key, preserving
// first-seen author order and catalog order within each bucket.
func (g *Generator) groupByAuthor(books []book.Record) []*authorGroup {
	var order []*authorGroup
	byKey := make(map[string]*authorGroup)
	for _, b := range books {
		key := b.AuthorKey()
		if key == "" {
			continue
		}
		ag, ok := byKey[key]
		if !ok {
			ag = &authorGroup{
				canonAuthor:   key,
				displayAuthor: b.PrimaryAuthor(),
				bySeries:      make(map[string]*seriesGroup),
			}
			byKey[key] = ag
			order = append(order, ag)
		}
		ag.books = append(ag.books, b)
	}
	return order
}

// resolveSeries assigns each of the group's books to a series: a ledger
// route wins, then the book's own series metadata, then a title match
// against the ledger's expected volumes. Volume numbers missing from any
// source are inferred from the title and written back.
func (g *Generator) resolveSeries(ag *authorGroup) {
	for _, b := range ag.books {
		canonSeries, displaySeries, volume := "", "", 0

		if route, ok := g.Ledger.RouteISBN(b.ISBN); ok && route.CanonicalAuthor == ag.canonAuthor {
			canonSeries = route.CanonicalSeries
			displaySeries = route.DisplaySeries
			volume = route.Volume
		} else if b.SeriesName != "" {
			canonSeries = identity.SeriesKey(b.SeriesName)
			displaySeries = b.SeriesName
			volume = b.SeriesIndex
		} else if canon, display, vol, adopted := g.adoptByExpectedTitle(ag, b); adopted {
			canonSeries = canon
			displaySeries = display
			volume = vol
			slog.Debug("Adopted book into series by expected title",
				"isbn", b.ISBN, "series", display, "volume", vol)
		}
		if canonSeries == "" {
			continue
		}
		if displaySeries == "" {
			displaySeries = b.SeriesName
		}

		if volume == 0 {
			volume = g.inferVolume(ag.displayAuthor, displaySeries, b)
		}
		g.Ledger.AddMapping(b.ISBN, ag.displayAuthor, displaySeries, volume, b.Title, 0)

		sg, ok := ag.bySeries[canonSeries]
		if !ok {
			sg = &seriesGroup{
				canonSeries:   canonSeries,
				displaySeries: displaySeries,
				volumes:       make(map[int]bool),
			}
			ag.bySeries[canonSeries] = sg
			ag.series = append(ag.series, sg)
		}
		sg.books = append(sg.books, b)
		sg.votes++
		if volume > 0 {
			sg.volumes[volume] = true
		}
	}
}

// adoptByExpectedTitle matches a book with no route and no series metadata
// against the ledger's expected titles for its author. A hit adopts the
// book into that series so the mapping gets written back.
func (g *Generator) adoptByExpectedTitle(ag *authorGroup, b book.Record) (string, string, int, bool) {
	titleKey := identity.TitleKey(b.Title)
	if titleKey == "" {
		return "", "", 0, false
	}
	for canonSeries, entry := range g.Ledger.EntriesForAuthor(ag.displayAuthor) {
		for volKey, expected := range entry.ExpectedVols {
			if identity.TitleKey(expected) != titleKey {
				continue
			}
			volume, err := strconv.Atoi(volKey)
			if err != nil || volume < 0 {
				volume = 0
			}
			display := entry.DisplaySeries
			if display == "" {
				display = canonSeries
			}
			return canonSeries, display, volume, true
		}
	}
	return "", "", 0, false
}

// inferVolume tries the title and subtitle volume patterns, then falls back
// to matching the title against the ledger's expected titles for the series.
func (g *Generator) inferVolume(author, series string, b book.Record) int {
	if v := identity.ParseVolumeHint(b.Title); v > 0 {
		return v
	}
	if v := identity.ParseVolumeHint(b.Subtitle); v > 0 {
		return v
	}

	titleKey := identity.TitleKey(b.Title)
	if titleKey == "" {
		return 0
	}
	for volKey, expected := range g.Ledger.ExpectedFor(author, series) {
		if identity.TitleKey(expected) != titleKey {
			continue
		}
		v, err := strconv.Atoi(volKey)
		if err != nil || v <= 0 {
			continue
		}
		slog.Debug("Inferred volume from expected title", "isbn", b.ISBN, "series", series, "volume", v)
		return v
	}
	return 0
}

// coverageFor computes owned versus expected volumes for one series group:
// distinct owned volumes when any were determined, book count otherwise.
func (g *Generator) coverageFor(ag *authorGroup, sg *seriesGroup) (have, expected int) {
	have = len(sg.volumes)
	if have == 0 {
		have = len(sg.books)
	}
	expected = len(g.Ledger.ExpectedFor(ag.displayAuthor, sg.displaySeries))
	return have, expected
}

// dominantSeries is the series with the most member books in the group,
// first seen winning ties.
func (g *Generator) dominantSeries(ag *authorGroup) *seriesGroup {
	var best *seriesGroup
	for _, sg := range ag.series {
		if best == nil || sg.votes > best.votes {
			best = sg
		}
	}
	return best
}
