package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeriesKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Harry Potter", "harry potter"},
		{"series suffix dropped", "The Dark Tower Series", "the dark tower"},
		{"box set suffix dropped", "Dune Box Set", "dune"},
		{"saga suffix dropped", "The Twilight Saga", "the twilight"},
		{"punctuation scrubbed", "Hitchhiker's Guide", "hitchhiker s guide"},
		{"accents stripped", "Les Misérables", "les miserables"},
		{"whitespace collapsed", "  A   Song of  Ice ", "a song of ice"},
		{"empty", "", ""},
		{"suffix collision", "Dark Tower", "dark tower"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeriesKey(tt.input))
		})
	}
}

func TestSeriesKeySuffixVariantsCollide(t *testing.T) {
	assert.Equal(t, SeriesKey("Dark Tower"), SeriesKey("Dark Tower Series"))
	assert.Equal(t, SeriesKey("Jack Ryan"), SeriesKey("Jack Ryan Novels"))
}

func TestTitleKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "The Hobbit", "hobbit"},
		{"subtitle after colon cut", "Dune: The Graphic Novel", "dune"},
		{"subtitle after dash cut", "Foundation - Special Edition", "foundation"},
		{"parenthetical cut", "It (Movie Tie-In)", "it"},
		{"leading article dropped", "A Game of Thrones", "game of thrones"},
		{"accents stripped", "Café Society", "cafe society"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleKey(tt.input))
		})
	}
}

func TestParseVolumeHint(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"hash number", "Dresden Files #12", 12},
		{"hash with space", "Discworld # 7", 7},
		{"book n", "Mistborn Book 3", 3},
		{"book n case insensitive", "mistborn BOOK 2", 2},
		{"vol dot", "Sandman Vol. 4", 4},
		{"volume word", "Sandman Volume 10", 10},
		{"part n", "The Stand Part 2", 2},
		{"ordinal parenthetical", "The Subtle Knife (2nd Book)", 2},
		{"bare parenthetical", "Wool (3)", 3},
		{"no hint", "The Shining", 0},
		{"zero rejected", "Broken #0", 0},
		{"four digits rejected", "Catalog #1234 overflow", 123},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVolumeHint(tt.input))
		})
	}
}
