// Package scoring turns a lot candidate's market snapshot and structure
// into a single confidence score, label and human-readable reasons. All
// functions are pure.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"lothelper/internal/book"
	"lothelper/internal/market"
)

// Weights of the scoring terms. The sell-through proxy dominates: a lot
// that moves is worth more than a pretty one.
const (
	weightSellThrough = 0.35
	weightCohesion    = 0.25
	weightComplete    = 0.15
	weightSize        = 0.10
	weightConsistency = 0.10
	weightShipping    = 0.20
)

// Result is the scorer's verdict for one candidate.
type Result struct {
	Score         float64
	Label         string
	Reasons       []string
	PriceBaseline float64
	ActiveMedian  float64
	SoldMedian    float64
	SellThrough   float64
}

// Input bundles the structural facts about a candidate that scoring needs.
type Input struct {
	Books          []book.Record
	IsSingleSeries bool
	SeriesHave     int
	SeriesExpected int
}

// Score combines market signals with structural signals into a confidence
// score in roughly [0,1] and a High/Medium/Low label. A snapshot without
// price data degrades to structural-only scoring with a zero baseline.
func Score(snapshot market.Snapshot, in Input) Result {
	baseline := snapshot.SoldMedian
	if baseline == 0 {
		baseline = snapshot.ActiveMedian
	}

	sellThrough := float64(snapshot.SoldCount) / math.Max(1, float64(snapshot.SoldCount+snapshot.ActiveCount))

	cohesion := 0.7
	if in.IsSingleSeries {
		cohesion = 1.0
	}

	completeness := 0.0
	if in.SeriesExpected > 0 {
		completeness = float64(in.SeriesHave) / float64(in.SeriesExpected)
	}

	total := len(in.Books)
	sizeBonus := sizeBonusFor(total)

	shippingBase := baseline
	if shippingBase == 0 {
		shippingBase = 10
	}
	shippingPenalty := clamp((estimateShippingLbs(in.Books)*0.75)/math.Max(10, shippingBase), 0, 0.5)

	consistency := 1 - relSpread(snapshot.ActiveMedian, snapshot.SoldMedian)

	score := weightSellThrough*sellThrough +
		weightCohesion*cohesion +
		weightComplete*completeness +
		weightSize*sizeBonus +
		weightConsistency*consistency -
		weightShipping*shippingPenalty
	score = math.Round(score*100) / 100

	lotKind := "Author lot"
	if in.IsSingleSeries {
		lotKind = "Series lot"
	}
	baselineReason := "No price baseline"
	if baseline > 0 {
		baselineReason = fmt.Sprintf("Price baseline $%.2f", baseline)
	}
	reasons := []string{
		fmt.Sprintf("Sell-through proxy %d%% (%d sold vs %d active)",
			int(math.Round(sellThrough*100)), snapshot.SoldCount, snapshot.ActiveCount),
		fmt.Sprintf("%s, completeness %d%%", lotKind, int(completeness*100)),
		fmt.Sprintf("Size %d (bonus %.1f)", total, sizeBonus),
		fmt.Sprintf("Price consistency %.2f; shipping penalty %.2f", consistency, shippingPenalty),
		baselineReason,
	}

	return Result{
		Score:         score,
		Label:         LabelForScore(score),
		Reasons:       reasons,
		PriceBaseline: baseline,
		ActiveMedian:  snapshot.ActiveMedian,
		SoldMedian:    snapshot.SoldMedian,
		SellThrough:   math.Round(sellThrough*1000) / 1000,
	}
}

// ScoreWithManualComps re-scores a candidate with a manually sourced sold
// median substituted for both market medians, prepending the manual note to
// the reasons unless an identical line already leads them.
func ScoreWithManualComps(snapshot market.Snapshot, in Input, manualMedian float64, note string) Result {
	if manualMedian > 0 {
		snapshot.SoldMedian = manualMedian
		snapshot.ActiveMedian = manualMedian
	}
	result := Score(snapshot, in)
	if note != "" && !containsLine(result.Reasons, note) {
		result.Reasons = append([]string{note}, result.Reasons...)
	}
	return result
}

// LabelForScore maps a [0,1] confidence score to its label.
func LabelForScore(score float64) string {
	switch {
	case score >= 0.70:
		return "High"
	case score >= 0.45:
		return "Medium"
	default:
		return "Low"
	}
}

// ClassifyProbability maps a 0-100 probability score to its label, using
// the same thresholds the cataloguing side applies to single books.
func ClassifyProbability(score float64) string {
	switch {
	case score >= 70:
		return "High"
	case score >= 45:
		return "Medium"
	default:
		return "Low"
	}
}

func sizeBonusFor(total int) float64 {
	switch {
	case total >= 3 && total <= 8:
		return 1.0
	case total == 2 || (total >= 9 && total <= 12):
		return 0.8
	case total > 12:
		return 0.6
	default:
		return 0.5
	}
}

// estimateShippingLbs estimates total shipping weight: 1 lb per hardcover,
// half a pound for thick paperbacks, a third of a pound otherwise.
func estimateShippingLbs(books []book.Record) float64 {
	weight := 0.0
	for _, b := range books {
		switch {
		case strings.Contains(strings.ToLower(b.Binding), "hard"):
			weight += 1.0
		case b.PageCount >= 350:
			weight += 0.5
		default:
			weight += 0.35
		}
	}
	return weight
}

// relSpread measures the relative spread between the two medians; 0 when
// fewer than two prices are present.
func relSpread(a, b float64) float64 {
	var xs []float64
	for _, v := range []float64{a, b} {
		if v > 0 {
			xs = append(xs, v)
		}
	}
	if len(xs) < 2 {
		return 0
	}
	lo, hi := math.Min(xs[0], xs[1]), math.Max(xs[0], xs[1])
	midpoint := (hi + lo) / 2
	if midpoint == 0 {
		return 0
	}
	return (hi - lo) / midpoint
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func containsLine(lines []string, line string) bool {
	for _, l := range lines {
		if l == line {
			return true
		}
	}
	return false
}
