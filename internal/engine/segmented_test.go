package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileSegmentsFourWorkers(t *testing.T) {
	segs := tileSegments(0, 1048576, 4)
	require.Len(t, segs, 4)
	assert.Equal(t, []segment{
		{start: 0, end: 262143},
		{start: 262144, end: 524287},
		{start: 524288, end: 786431},
		{start: 786432, end: 1048575},
	}, segs)
}

func TestTileSegmentsCoverWithoutOverlap(t *testing.T) {
	cases := []struct {
		from, total int64
		n           int
	}{
		{0, 1, 1},
		{0, 1, 32},
		{0, 7, 3},
		{0, 1000000, 4},
		{500000, 1000000, 2},
		{999999, 1000000, 8},
		{0, 1048576, 5},
	}
	for _, tc := range cases {
		segs := tileSegments(tc.from, tc.total, tc.n)
		require.NotEmpty(t, segs, "from=%d total=%d n=%d", tc.from, tc.total, tc.n)

		// Contiguous from `from` to total-1, no gaps, no overlap.
		next := tc.from
		for _, seg := range segs {
			assert.Equal(t, next, seg.start, "gap or overlap at %d (from=%d total=%d n=%d)", seg.start, tc.from, tc.total, tc.n)
			assert.GreaterOrEqual(t, seg.end, seg.start)
			next = seg.end + 1
		}
		assert.Equal(t, tc.total, next, "union must end at total (from=%d total=%d n=%d)", tc.from, tc.total, tc.n)
		assert.LessOrEqual(t, len(segs), tc.n)
	}
}

func TestTileSegmentsTail(t *testing.T) {
	segs := tileSegments(500000, 1000000, 2)
	require.Len(t, segs, 2)
	assert.Equal(t, segment{start: 500000, end: 749999}, segs[0])
	assert.Equal(t, segment{start: 750000, end: 999999}, segs[1])
}

func TestTileSegmentsDegenerate(t *testing.T) {
	assert.Nil(t, tileSegments(100, 100, 4), "nothing left to tile")
	assert.Nil(t, tileSegments(200, 100, 4), "past the end")
	assert.Nil(t, tileSegments(0, 0, 4), "empty interval")
}
