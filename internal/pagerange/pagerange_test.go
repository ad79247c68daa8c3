package pagerange

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptySelectsAll(t *testing.T) {
	got, err := Parse("", 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)

	got, err = Parse("   ", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestParseSinglesAndRanges(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		total int
		want  []int
	}{
		{"single page", "3", 10, []int{2}},
		{"comma list", "1,2,5", 10, []int{0, 1, 4}},
		{"range", "3-5", 10, []int{2, 3, 4}},
		{"mixed with overlap", "1,2,3-5,4", 10, []int{0, 1, 2, 3, 4}},
		{"whitespace inside", " 1, 3 - 4 ", 10, []int{0, 2, 3}},
		{"unsorted input sorts", "9,1,5", 10, []int{0, 4, 8}},
		{"trailing comma", "2,", 10, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.expr, tt.total)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRangeClamping(t *testing.T) {
	// end clamps to the last page
	got, err := Parse("3-5", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, got)

	// start clamps to the first page
	got, err = Parse("0-2", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got)

	// fully out of range contributes nothing
	got, err = Parse("8-9", 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseSingleOutOfRangeDropped(t *testing.T) {
	// single numbers are dropped, not clamped
	got, err := Parse("99", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Parse("0", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	// the valid part of a list still contributes
	got, err = Parse("2,99", 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestParseInvalidTokens(t *testing.T) {
	for _, expr := range []string{"abc", "1,abc", "a-3", "3-b", "1..3"} {
		_, err := Parse(expr, 10)
		require.Error(t, err, "expr %q", expr)
		var ire *InvalidRangeError
		require.True(t, errors.As(err, &ire))
		assert.Contains(t, err.Error(), ire.Token)
	}
}

func TestParseInvalidNamesOffendingToken(t *testing.T) {
	_, err := Parse("abc", 10)
	var ire *InvalidRangeError
	require.ErrorAs(t, err, &ire)
	assert.Equal(t, "abc", ire.Token)
}

func TestParseResultProperties(t *testing.T) {
	exprs := []string{"", "1-100", "7,3,3,7", "1,1-2,2-3", "50-60,10"}
	for _, expr := range exprs {
		got, err := Parse(expr, 42)
		require.NoError(t, err)
		seen := map[int]bool{}
		last := -1
		for _, idx := range got {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, 42)
			assert.False(t, seen[idx], "duplicate index %d for %q", idx, expr)
			assert.Greater(t, idx, last, "not ascending for %q", expr)
			seen[idx] = true
			last = idx
		}
	}
}

func TestCounts(t *testing.T) {
	odd, even := Counts([]int{0, 1, 2, 3, 4, 5})
	assert.Equal(t, 3, odd)
	assert.Equal(t, 3, even)

	odd, even = Counts([]int{0, 2, 4})
	assert.Equal(t, 3, odd)
	assert.Equal(t, 0, even)

	odd, even = Counts(nil)
	assert.Zero(t, odd)
	assert.Zero(t, even)
}
