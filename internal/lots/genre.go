package lots

import "lothelper/internal/book"

// GenreGrouper is a pluggable strategy producing genre-themed candidates
// with the same shape as the author and series strategies.
type GenreGrouper interface {
	Group(books []book.Record) []*Candidate
}

// CategoryGrouper groups books by their leading catalog category.
type CategoryGrouper struct {
	// MinBooks is the smallest group worth emitting; zero means 3. Genre
	// lots are weaker than author or series lots, so the floor is higher.
	MinBooks int
}

// Group emits one genre candidate per category with enough books,
// preserving first-seen category order.
func (c CategoryGrouper) Group(books []book.Record) []*Candidate {
	min := c.MinBooks
	if min <= 0 {
		min = 3
	}

	var order []string
	byGenre := make(map[string][]book.Record)
	for _, b := range books {
		genre := b.FirstCategory()
		if genre == "" {
			continue
		}
		if _, ok := byGenre[genre]; !ok {
			order = append(order, genre)
		}
		byGenre[genre] = append(byGenre[genre], b)
	}

	var candidates []*Candidate
	for _, genre := range order {
		members := byGenre[genre]
		if len(members) < min {
			continue
		}
		cand := newCandidate(StrategyGenre, genreLotName(genre), members)
		cand.Theme = genre
		candidates = append(candidates, cand)
	}
	return candidates
}
