package identity

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	seriesSuffixRe = regexp.MustCompile(`(?i)\b(series|novels|books|collection|box set|set|saga)\b`)
	alnumScrubRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	articleRe      = regexp.MustCompile(`^(the|a|an)\s+`)
	subtitleCutRe  = regexp.MustCompile(`[:\-(]`)

	volumePatterns = []*regexp.Regexp{
		regexp.MustCompile(`#\s*(\d{1,3})`),
		regexp.MustCompile(`(?i)\bbook\s*(\d{1,3})\b`),
		regexp.MustCompile(`(?i)\bvol(?:ume)?\.?\s*(\d{1,3})\b`),
		regexp.MustCompile(`(?i)\bpart\s*(\d{1,3})\b`),
		regexp.MustCompile(`(?i)\((\d{1,3})(?:st|nd|rd|th)?\s*(?:book|novel)?\)`),
	}
)

// SeriesKey computes a canonical comparison key for a series name. Marketing
// suffixes like "series", "box set" or "saga" are dropped so that
// "The Dark Tower Series" and "Dark Tower" collide.
func SeriesKey(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(stripAccents(name)))
	if lowered == "" {
		return ""
	}
	lowered = seriesSuffixRe.ReplaceAllString(lowered, "")
	lowered = alnumScrubRe.ReplaceAllString(lowered, " ")
	return collapseSpaces(lowered)
}

// TitleKey normalizes a book title for expected-volume matching: the
// subtitle (after ":", "-" or "(") is cut, a leading article dropped, and
// punctuation scrubbed.
func TitleKey(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(stripAccents(title)))
	if lowered == "" {
		return ""
	}
	if loc := subtitleCutRe.FindStringIndex(lowered); loc != nil {
		lowered = lowered[:loc[0]]
	}
	lowered = articleRe.ReplaceAllString(strings.TrimSpace(lowered), "")
	lowered = alnumScrubRe.ReplaceAllString(lowered, " ")
	return collapseSpaces(lowered)
}

// ParseVolumeHint extracts a positive volume number from free text such as
// "#3", "Book 3", "Vol. 3", "Part 3" or "(3rd)". Returns 0 when no volume
// can be inferred; callers treat that as "no volume found".
func ParseVolumeHint(text string) int {
	if text == "" {
		return 0
	}
	for _, pattern := range volumePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, err := strconv.Atoi(m[1])
		if err != nil || value <= 0 {
			continue
		}
		return value
	}
	return 0
}
