package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		vals []float64
		want float64
	}{
		{"empty", nil, 0},
		{"all non-positive", []float64{0, -5}, 0},
		{"single value", []float64{19.99}, 19.99},
		{"two values", []float64{10, 20}, 15},
		{"odd count", []float64{5, 10, 20}, 10},
		{"rounded to cents", []float64{10.111, 10.112}, 10.11},
		{"negative values dropped", []float64{-1, 0, 12, 18}, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Median(tt.vals), 0.001)
		})
	}
}

func TestMedianWinsorizesOutliers(t *testing.T) {
	// A $999 signed copy among normal listings must not drag the median up.
	withOutlier := Median([]float64{10, 11, 12, 13, 14, 999})
	without := Median([]float64{11, 12, 13, 14})
	assert.InDelta(t, 12.5, withOutlier, 0.001)
	assert.InDelta(t, 12.5, without, 0.001)
}

func TestWinsorizeKeepsSmallSamples(t *testing.T) {
	assert.Equal(t, []float64{5, 10}, winsorize([]float64{10, 5}, 0.10))
	assert.Len(t, winsorize([]float64{1, 2, 3}, 0.10), 1)
}

func TestBuildQueries(t *testing.T) {
	tests := []struct {
		name   string
		author string
		series string
		theme  string
		want   []string
	}{
		{
			name:   "series and author",
			author: "Stephen King",
			series: "Dark Tower",
			want: []string{
				`"Dark Tower" Stephen King lot set`,
				`"Dark Tower" lot set books`,
				"Stephen King lot set",
				"Stephen King book lot",
			},
		},
		{
			name:   "author only",
			author: "Stephen King",
			want:   []string{"Stephen King lot set", "Stephen King book lot"},
		},
		{
			name:  "theme only",
			theme: "cozy mystery",
			want:  []string{"cozy mystery lot set books"},
		},
		{
			name: "nothing falls back to generic",
			want: []string{"book lot set"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQueries(tt.author, tt.series, tt.theme))
		})
	}
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "stephen king|dark tower|", CacheKey(" Stephen King ", "Dark Tower", ""))
	assert.Equal(t, CacheKey("A", "B", "C"), CacheKey("a", "b", "c"))
}

func TestSnapshotHasSignal(t *testing.T) {
	assert.False(t, Snapshot{}.HasSignal())
	assert.True(t, Snapshot{SoldCount: 3}.HasSignal())
	assert.True(t, Snapshot{ActiveMedian: 12.5}.HasSignal())
}
