// Package identity normalizes noisy author and series names into stable
// comparison keys and scores how likely two spellings refer to the same
// identity. All functions are pure; callers hold any state.
package identity

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name suffixes ignored when building canonical keys.
var authorSuffixes = map[string]bool{
	"jr":  true,
	"sr":  true,
	"ii":  true,
	"iii": true,
	"iv":  true,
	"v":   true,
	"phd": true,
	"md":  true,
	"esq": true,
}

var (
	// Punctuation scrub keeps the comma so "Last, First" can be detected.
	punctRe    = regexp.MustCompile(`[^\p{L}\p{N}\s,]`)
	wsRe       = regexp.MustCompile(`\s+`)
	coAuthorRe = regexp.MustCompile(`(?i)\s+(?:and|&|with)\s+`)

	accentStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

func stripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}

// FirstCredited returns the first author from a credit string that may join
// several names with "and", "&" or "with". The canonicalizer itself handles
// one name at a time.
func FirstCredited(credit string) string {
	parts := coAuthorRe.Split(credit, 2)
	if len(parts) == 0 {
		return strings.TrimSpace(credit)
	}
	return strings.TrimSpace(parts[0])
}

// splitLastFirst tokenizes a name, reordering "Last, First Middle" to
// "first middle last" when a comma form is present.
func splitLastFirst(name string) []string {
	if idx := strings.Index(name, ","); idx >= 0 {
		last := strings.TrimSpace(name[:idx])
		rest := strings.TrimSpace(name[idx+1:])
		if last != "" && rest != "" {
			last = punctRe.ReplaceAllString(last, " ")
			rest = punctRe.ReplaceAllString(rest, " ")
			tokens := strings.Fields(strings.ToLower(rest))
			return append(tokens, strings.Fields(strings.ToLower(last))...)
		}
	}
	clean := punctRe.ReplaceAllString(name, " ")
	return strings.Fields(strings.ToLower(clean))
}

// AuthorKey computes a canonical grouping key for an author name:
// diacritic-insensitive, case-insensitive, punctuation ignored,
// "Last, First Middle" reordered, single-letter initials and common
// suffixes (Jr, Sr, II-V, PhD, MD, Esq) dropped, whitespace collapsed.
// An empty or all-initial name yields "" and must be treated as "no author".
func AuthorKey(name string) string {
	if name == "" {
		return ""
	}
	tokens := splitLastFirst(stripAccents(name))

	// Hyphens and underscores survive the punctuation scrub as part of
	// letter runs in some locales; split them out before filtering.
	var split []string
	for _, t := range tokens {
		t = strings.ReplaceAll(t, ",", " ")
		t = strings.ReplaceAll(t, "_", " ")
		t = strings.ReplaceAll(t, "-", " ")
		split = append(split, strings.Fields(t)...)
	}

	kept := split[:0]
	for _, t := range split {
		if len([]rune(t)) == 1 {
			continue
		}
		if authorSuffixes[t] {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return ""
	}
	return collapseSpaces(strings.Join(kept, " "))
}

// AuthorKeyPair returns the canonical key along with a title-cased display
// form suitable for labels. A name that canonicalizes to "" falls back to
// its trimmed input for display.
func AuthorKeyPair(name string) (key, display string) {
	key = AuthorKey(name)
	if key == "" {
		return "", strings.TrimSpace(name)
	}
	words := strings.Split(key, " ")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return key, strings.Join(words, " ")
}

// Similarity scores two author names in [0,1] using a normalized edit
// distance over their canonical keys. Matching surnames boost the score to
// at least 0.85 when either key has two or fewer tokens, else 0.90:
// surname agreement is a strong identity signal even when given names are
// spelled as initials on one side.
func Similarity(a, b string) float64 {
	ka, kb := AuthorKey(a), AuthorKey(b)
	if ka == "" || kb == "" {
		return 0
	}
	score := editRatio(ka, kb)
	ta, tb := strings.Fields(ka), strings.Fields(kb)
	if ta[len(ta)-1] == tb[len(tb)-1] {
		if len(ta) <= 2 || len(tb) <= 2 {
			score = max(score, 0.85)
		} else {
			score = max(score, 0.90)
		}
	}
	return min(score, 1.0)
}

func editRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// Match is a scored candidate from ProbableMatches.
type Match struct {
	Name  string
	Score float64
}

// ProbableMatches ranks candidates against a query author name, keeping
// those scoring at least threshold. Results are sorted by score descending,
// then name ascending; limit < 0 means unlimited.
func ProbableMatches(query string, candidates []string, threshold float64, limit int) []Match {
	if AuthorKey(query) == "" {
		return nil
	}
	best := make(map[string]float64)
	for _, cand := range candidates {
		score := Similarity(query, cand)
		if score < threshold {
			continue
		}
		if prev, ok := best[cand]; !ok || score > prev {
			best[cand] = score
		}
	}
	matches := make([]Match, 0, len(best))
	for name, score := range best {
		matches = append(matches, Match{Name: name, Score: score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Name < matches[j].Name
	})
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// ClusterAuthors groups raw author spellings by canonical key, then merges
// groups that share a surname and score at least mergeThreshold, preferring
// the shortest key as the representative. The result maps representative
// key to the raw spellings it absorbed, for human review.
func ClusterAuthors(candidates []string, mergeThreshold float64) map[string][]string {
	groups := make(map[string][]string)
	for _, cand := range candidates {
		key := AuthorKey(cand)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], cand)
	}
	if len(groups) == 0 {
		return groups
	}

	bySurname := make(map[string][]string)
	for key := range groups {
		tokens := strings.Fields(key)
		last := tokens[len(tokens)-1]
		bySurname[last] = append(bySurname[last], key)
	}

	for surname, keys := range bySurname {
		if len(keys) < 2 {
			continue
		}
		// Shortest key first, so "rowling" absorbs "joanne rowling".
		sort.Slice(keys, func(i, j int) bool {
			li, lj := len(strings.Fields(keys[i])), len(strings.Fields(keys[j]))
			if li != lj {
				return li < lj
			}
			return len(keys[i]) < len(keys[j])
		})
		canonical := keys[0]
		for _, other := range keys[1:] {
			if _, ok := groups[other]; !ok {
				continue
			}
			if _, ok := groups[canonical]; !ok {
				continue
			}
			similar := Similarity(canonical, other) >= mergeThreshold
			contains := canonical == surname || strings.Contains(other, canonical)
			if similar || contains {
				for _, name := range groups[other] {
					if !containsString(groups[canonical], name) {
						groups[canonical] = append(groups[canonical], name)
					}
				}
				delete(groups, other)
			}
		}
	}
	return groups
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
