package bachmodem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestInterleaveKnown(t *testing.T) {
	// 6 bits, width 3: rows are {a b c} {d e f}; column order is a d b e c f.
	var in = []byte{1, 0, 1, 0, 1, 0}
	var out = interleave(in, 3)
	assert.Equal(t, []byte{1, 0, 0, 1, 1, 0}, out)
}

func TestInterleavePadsPartialRows(t *testing.T) {
	var out = interleave([]byte{1, 1, 1, 1, 1}, 4)
	assert.Len(t, out, 8, "5 bits at width 4 pad up to 2 full rows")
}

func TestInterleaveBijection(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var width = rapid.IntRange(1, 32).Draw(t, "width")
		var n = rapid.IntRange(1, 512).Draw(t, "n")
		var bits = make([]byte, n)
		for i := range bits {
			bits[i] = byte(rapid.IntRange(0, 1).Draw(t, "bit"))
		}

		var back = deinterleave(interleave(bits, width), width, n)
		require.Equal(t, bits, back)
	})
}

func TestDeinterleaveLLRsMatchesBitPath(t *testing.T) {
	// The soft path must apply exactly the permutation the bit path does.
	rapid.Check(t, func(t *rapid.T) {
		var width = rapid.IntRange(1, 24).Draw(t, "width")
		var n = rapid.IntRange(1, 256).Draw(t, "n")

		var llrs = make([]float64, n)
		for i := range n {
			llrs[i] = float64(i)
		}

		// Interleave a position-tagged soft vector by hand, apply the
		// inverse, and check every value lands back on its own index.
		var shuffled = make([]float64, ((n+width-1)/width)*width)
		var pos = 0
		var rows = (n + width - 1) / width
		for col := range width {
			for row := range rows {
				var idx = row*width + col
				if idx < n {
					shuffled[pos] = llrs[idx]
				}
				pos++
			}
		}

		var back = deinterleaveLLRs(shuffled, width, n)
		require.Equal(t, llrs, back)
	})
}
