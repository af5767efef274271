// Package lots builds, filters and scores lot candidates: proposed groups
// of owned books that are worth more sold together than individually.
package lots

import (
	"fmt"

	"github.com/google/uuid"

	"lothelper/internal/book"
)

// Strategy is the grouping dimension that produced a candidate.
type Strategy string

const (
	StrategyAuthor Strategy = "author"
	StrategySeries Strategy = "series"
	StrategyGenre  Strategy = "genre"
)

// Candidate is a proposed group of books considered for joint sale. The
// generator creates it, the filter may rename or drop it, and enrichment
// fills in the market-derived value and score.
type Candidate struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Strategy         Strategy      `json:"strategy"`
	Books            []book.Record `json:"books"`
	CanonicalAuthor  string        `json:"canonical_author,omitempty"`
	DisplayAuthor    string        `json:"display_author,omitempty"`
	CanonicalSeries  string        `json:"canonical_series,omitempty"`
	DisplaySeries    string        `json:"display_series,omitempty"`
	Theme            string        `json:"theme,omitempty"`
	SeriesHave       int           `json:"series_have,omitempty"`
	SeriesExpected   int           `json:"series_expected,omitempty"`
	IsSingleSeries   bool          `json:"is_single_series"`
	EstimatedValue   float64       `json:"estimated_value"`
	ProbabilityScore float64       `json:"probability_score"`
	ProbabilityLabel string        `json:"probability_label"`
	Justification    []string      `json:"justification"`
}

func newCandidate(strategy Strategy, name string, books []book.Record) *Candidate {
	return &Candidate{
		ID:       uuid.NewString(),
		Name:     name,
		Strategy: strategy,
		Books:    books,
	}
}

// ISBNs returns the candidate's member ISBNs in book order.
func (c *Candidate) ISBNs() []string {
	isbns := make([]string, 0, len(c.Books))
	for _, b := range c.Books {
		isbns = append(isbns, b.ISBN)
	}
	return isbns
}

// Contains reports whether the candidate includes the given ISBN.
func (c *Candidate) Contains(isbn string) bool {
	for _, b := range c.Books {
		if b.ISBN == isbn {
			return true
		}
	}
	return false
}

// coverageRatio is series_have over series_expected, 0 when expected is
// unknown.
func (c *Candidate) coverageRatio() float64 {
	if c.SeriesExpected <= 0 {
		return 0
	}
	return float64(c.SeriesHave) / float64(c.SeriesExpected)
}

func seriesLotName(displaySeries, displayAuthor string) string {
	if displayAuthor == "" {
		return displaySeries
	}
	return fmt.Sprintf("%s — %s", displaySeries, displayAuthor)
}

func authorLotName(displayAuthor string) string {
	return fmt.Sprintf("%s Collection", displayAuthor)
}

func incompleteLotName(displaySeries string) string {
	return fmt.Sprintf("Incomplete %s", displaySeries)
}

func genreLotName(genre string) string {
	return fmt.Sprintf("%s Lot", genre)
}

// averageProbability is the mean member probability score on the 0-100
// scale, 0 for an empty member list.
func averageProbability(books []book.Record) float64 {
	if len(books) == 0 {
		return 0
	}
	total := 0.0
	for _, b := range books {
		total += b.ProbabilityScore
	}
	return total / float64(len(books))
}

func sumEstimatedPrices(books []book.Record) float64 {
	total := 0.0
	for _, b := range books {
		total += b.EstimatedPrice
	}
	return total
}
