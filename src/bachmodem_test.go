package bachmodem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaveletUnitEnergy(t *testing.T) {
	// Every tone's pulse must integrate to unit energy so matched
	// filter outputs are comparable across tones.
	for _, ts := range []float64{0.1, 2.0} {
		var table = newWaveletTable(ts)
		for tone := range NumTones {
			var w = table.wavelet(tone)
			var energy = 0.0
			for n := range w.Re {
				energy += w.Re[n]*w.Re[n] + w.Im[n]*w.Im[n]
			}
			energy /= SampleRate
			assert.InDelta(t, 1.0, energy, 1e-3, "tone %d at Ts=%v", tone, ts)
		}
	}
}

func TestWaveletSymbolLength(t *testing.T) {
	assert.Equal(t, 800, newWaveletTable(0.1).samplesPerSym)
	assert.Equal(t, 16000, newWaveletTable(2.0).samplesPerSym)
}

func TestWaveletEnvelopePeaksMidSymbol(t *testing.T) {
	var table = newWaveletTable(0.1)
	var w = table.wavelet(0)

	var peak = 0
	var peakVal = 0.0
	for n := range w.Re {
		var mag = w.Re[n]*w.Re[n] + w.Im[n]*w.Im[n]
		if mag > peakVal {
			peak = n
			peakVal = mag
		}
	}

	// The envelope is symmetric about (Ns-1)/2.
	assert.InDelta(t, float64(len(w.Re)-1)/2.0, float64(peak), 1.5)
}

func TestHopPatternIsPermutation(t *testing.T) {
	var seen [NumTones]bool
	for _, tone := range hopPattern {
		require.False(t, seen[tone], "tone %d appears twice", tone)
		seen[tone] = true
	}
}

func TestFlourishTonesArePermutation(t *testing.T) {
	var seen [NumTones]bool
	for _, tone := range flourishTones {
		require.False(t, seen[tone], "tone %d appears twice", tone)
		seen[tone] = true
	}
}

func TestBachScaleAscends(t *testing.T) {
	for i := 1; i < NumTones; i++ {
		assert.Greater(t, bachScale[i], bachScale[i-1])
	}
	assert.InDelta(t, 261.63, bachScale[0], 1e-9)
	assert.InDelta(t, 1174.66, bachScale[NumTones-1], 1e-9)
}

func TestSweepLengths(t *testing.T) {
	var table = newWaveletTable(0.1)

	assert.Equal(t, 10*NumTones*table.samplesPerSym, len(table.preamble(10)))
	assert.Equal(t, table.preambleLen(10), len(table.preamble(10)))
	assert.Equal(t, table.flourishLen(), len(table.flourish()))
	assert.Equal(t, table.postambleLen(), len(table.postamble()))
}
