package lots

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"lothelper/internal/scoring"
)

// coverageFloor is the completeness ratio at which a series candidate is
// considered strong enough to make an author-wide lot redundant.
const coverageFloor = 0.5

// incompleteBump is the confidence nudge an incomplete-series candidate
// gets over its members' average: the missing-volume list itself is
// actionable information for a buyer hunting specific volumes.
const incompleteBump = 5

const maxMissingListed = 8

// Filter resolves overlapping candidates into a final non-redundant set:
// author lots dominated by strong series lots are dropped, incomplete
// series get their own synthesized candidate, and the survivors are ranked
// by probability then value.
func Filter(candidates []*Candidate, coverages []Coverage) []*Candidate {
	strongSeries := make(map[string]int)
	for _, c := range candidates {
		if c.Strategy != StrategySeries || !c.IsSingleSeries {
			continue
		}
		if c.SeriesExpected > 0 && c.coverageRatio() >= coverageFloor {
			strongSeries[c.CanonicalAuthor]++
		}
	}

	var survivors []*Candidate
	surviving := make(map[string]bool)
	for _, c := range candidates {
		if c.Strategy == StrategyAuthor && strongSeries[c.CanonicalAuthor] >= 2 {
			slog.Debug("Author lot suppressed by series lots",
				"author", c.DisplayAuthor, "series_lots", strongSeries[c.CanonicalAuthor])
			continue
		}
		survivors = append(survivors, c)
		if c.Strategy == StrategySeries && c.CanonicalSeries != "" {
			surviving[c.CanonicalAuthor+"|"+c.CanonicalSeries] = true
		}
	}

	for _, cov := range coverages {
		if cand := synthesizeIncomplete(cov, surviving); cand != nil {
			survivors = append(survivors, cand)
		}
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		if survivors[i].ProbabilityScore != survivors[j].ProbabilityScore {
			return survivors[i].ProbabilityScore > survivors[j].ProbabilityScore
		}
		return survivors[i].EstimatedValue > survivors[j].EstimatedValue
	})
	return survivors
}

// synthesizeIncomplete builds an "Incomplete {series}" candidate for a
// partially owned series, or nil when the series is fully owned, unknown,
// or already claimed by a surviving series candidate.
func synthesizeIncomplete(cov Coverage, surviving map[string]bool) *Candidate {
	if cov.Have == 0 {
		return nil
	}
	partial := cov.Expected > 0 && cov.Have < cov.Expected
	if !partial && !(cov.Expected == 0 && len(cov.Missing) > 0) {
		return nil
	}
	if surviving[cov.CanonicalAuthor+"|"+cov.CanonicalSeries] {
		return nil
	}

	cand := newCandidate(StrategySeries, incompleteLotName(cov.DisplaySeries), cov.Books)
	cand.CanonicalAuthor = cov.CanonicalAuthor
	cand.DisplayAuthor = cov.DisplayAuthor
	cand.CanonicalSeries = cov.CanonicalSeries
	cand.DisplaySeries = cov.DisplaySeries
	cand.SeriesHave = cov.Have
	cand.SeriesExpected = cov.Expected
	cand.IsSingleSeries = true
	cand.EstimatedValue = sumEstimatedPrices(cov.Books)
	cand.ProbabilityScore = averageProbability(cov.Books) + incompleteBump
	if cand.ProbabilityScore > 100 {
		cand.ProbabilityScore = 100
	}
	cand.ProbabilityLabel = scoring.ClassifyProbability(cand.ProbabilityScore)
	cand.Justification = []string{
		fmt.Sprintf("Owned %d of %s volumes", cov.Have, expectedLabel(cov.Expected)),
		"Missing: " + formatMissing(cov.Missing),
	}
	return cand
}

func expectedLabel(expected int) string {
	if expected <= 0 {
		return "an unknown number of"
	}
	return strconv.Itoa(expected)
}

// formatMissing lists the missing volumes in volume order, capped with an
// ellipsis marker when the list runs long.
func formatMissing(missing map[string]string) string {
	if len(missing) == 0 {
		return "unknown volumes"
	}
	keys := make([]string, 0, len(missing))
	for k := range missing {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aerr := strconv.Atoi(keys[i])
		b, berr := strconv.Atoi(keys[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})

	out := ""
	for i, k := range keys {
		if i == maxMissingListed {
			out += ", …"
			break
		}
		if i > 0 {
			out += ", "
		}
		if title := missing[k]; title != "" {
			out += fmt.Sprintf("#%s %s", k, title)
		} else {
			out += "#" + k
		}
	}
	return out
}
