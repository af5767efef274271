package lots

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"lothelper/internal/book"
	"lothelper/internal/ledger"
	"lothelper/internal/market"
	"lothelper/internal/scoring"
)

// skeletonBump is the confidence nudge a freshly grouped lot gets over its
// members' average before any market data arrives.
const skeletonBump = 8

// DefaultMinValue is the minimum summed estimated value a candidate needs
// to be emitted at all; cheaper groups are not worth listing as a lot.
const DefaultMinValue = 10.0

// Pipeline runs the full grouping engine: the cheap skeleton build
// (generate, fill placeholder estimates, filter) and the expensive market
// enrichment, separated so that a single-book change only re-enriches the
// candidates that contain it.
type Pipeline struct {
	Catalog  book.CatalogProvider
	Ledger   *ledger.Ledger
	Market   market.Provider
	Genres   GenreGrouper
	MinValue float64
}

// BuildSkeletons generates, pre-estimates and filters candidates without
// touching the market provider. Safe to call repeatedly; it is the cheap
// half of the pipeline. Candidates whose summed estimated value stays under
// the configured minimum are not emitted, including synthesized
// incomplete-series ones.
func (p *Pipeline) BuildSkeletons() ([]*Candidate, error) {
	books, err := p.Catalog.ListBooks()
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}

	gen := &Generator{Ledger: p.Ledger}
	candidates, coverages := gen.Generate(books)
	if p.Genres != nil {
		candidates = append(candidates, p.Genres.Group(books)...)
	}
	kept := candidates[:0]
	for _, c := range candidates {
		p.fillSkeleton(c)
		if c.EstimatedValue < p.minLotValue() {
			slog.Debug("Dropped lot below minimum value", "lot", c.Name, "value", c.EstimatedValue)
			continue
		}
		kept = append(kept, c)
	}

	// The filter synthesizes incomplete-series candidates; those face the
	// same minimum.
	final := Filter(kept, coverages)
	out := final[:0]
	for _, c := range final {
		if c.EstimatedValue < p.minLotValue() {
			slog.Debug("Dropped lot below minimum value", "lot", c.Name, "value", c.EstimatedValue)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (p *Pipeline) minLotValue() float64 {
	if p.MinValue > 0 {
		return p.MinValue
	}
	return DefaultMinValue
}

// fillSkeleton sets the placeholder value and probability a candidate
// carries until enrichment replaces them.
func (p *Pipeline) fillSkeleton(c *Candidate) {
	c.EstimatedValue = sumEstimatedPrices(c.Books)
	c.ProbabilityScore = averageProbability(c.Books) + skeletonBump
	if c.ProbabilityScore > 100 {
		c.ProbabilityScore = 100
	}
	c.ProbabilityLabel = scoring.ClassifyProbability(c.ProbabilityScore)
	c.Justification = []string{fmt.Sprintf("%d books grouped by %s", len(c.Books), c.Strategy)}
}

// Enrich fetches a market snapshot for each candidate and replaces the
// skeleton estimates with scored ones. A missing or failed snapshot is
// normal: the candidate keeps structural-only scoring. Only context
// cancellation aborts the pass.
func (p *Pipeline) Enrich(ctx context.Context, candidates []*Candidate) error {
	if p.Market == nil {
		return nil
	}
	for _, c := range candidates {
		if err := p.enrichOne(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) enrichOne(ctx context.Context, c *Candidate) error {
	snapshot, err := p.Market.SnapshotFor(ctx, c.DisplayAuthor, c.DisplaySeries, c.Theme)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("enrichment cancelled: %w", ctx.Err())
		}
		slog.Debug("Market snapshot unavailable", "lot", c.Name, "error", err)
		snapshot = market.Snapshot{}
	}

	p.applyScore(c, scoring.Score(snapshot, p.scoringInput(c)))

	if c.Strategy == StrategySeries && c.DisplaySeries != "" {
		p.Ledger.MarkEnriched(c.DisplayAuthor, c.DisplaySeries, 0)
	}
	return nil
}

// ApplyManualComps re-scores one candidate with a manually sourced sold
// median in place of the market medians, noting the source in its
// justification.
func (p *Pipeline) ApplyManualComps(ctx context.Context, c *Candidate, median float64, note string) error {
	snapshot := market.Snapshot{}
	if p.Market != nil {
		s, err := p.Market.SnapshotFor(ctx, c.DisplayAuthor, c.DisplaySeries, c.Theme)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("manual comps cancelled: %w", ctx.Err())
			}
			slog.Debug("Market snapshot unavailable for manual comps", "lot", c.Name, "error", err)
		} else {
			snapshot = s
		}
	}
	p.applyScore(c, scoring.ScoreWithManualComps(snapshot, p.scoringInput(c), median, note))
	return nil
}

func (p *Pipeline) scoringInput(c *Candidate) scoring.Input {
	return scoring.Input{
		Books:          c.Books,
		IsSingleSeries: c.IsSingleSeries,
		SeriesHave:     c.SeriesHave,
		SeriesExpected: c.SeriesExpected,
	}
}

func (p *Pipeline) applyScore(c *Candidate, result scoring.Result) {
	if result.PriceBaseline > 0 {
		c.EstimatedValue = result.PriceBaseline
	}
	c.ProbabilityScore = math.Round(result.Score * 100)
	c.ProbabilityLabel = result.Label
	c.Justification = result.Reasons
}

// BuildAll runs the full pipeline: skeletons plus enrichment for every
// candidate, returning the ranked final list.
func (p *Pipeline) BuildAll(ctx context.Context) ([]*Candidate, error) {
	candidates, err := p.BuildSkeletons()
	if err != nil {
		return nil, err
	}
	if err := p.Enrich(ctx, candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// RefreshISBN rebuilds the skeleton set and re-enriches only the candidates
// containing the changed ISBN. Candidates untouched by the change keep
// their skeleton estimates; callers persisting the result typically merge
// it with previously enriched data.
func (p *Pipeline) RefreshISBN(ctx context.Context, isbn string) ([]*Candidate, error) {
	candidates, err := p.BuildSkeletons()
	if err != nil {
		return nil, err
	}
	var affected []*Candidate
	for _, c := range candidates {
		if c.Contains(isbn) {
			affected = append(affected, c)
		}
	}
	if err := p.Enrich(ctx, affected); err != nil {
		return nil, err
	}
	slog.Debug("Refreshed candidates for ISBN", "isbn", isbn, "affected", len(affected), "total", len(candidates))
	return candidates, nil
}
