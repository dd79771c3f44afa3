package bachmodem

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVRoundTripPreservesShape(t *testing.T) {
	// Quantization and peak normalization change the scale, not the
	// shape: the read-back waveform must be near-perfectly correlated
	// with the original.
	var sig = make([]float64, 8000)
	for i := range sig {
		sig[i] = 3.0 * math.Sin(2*math.Pi*523.25*float64(i)/SampleRate)
	}

	var path = filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, WriteWAVFile(path, sig, 0.9))

	var back, err = ReadWAVFile(path)
	require.NoError(t, err)
	require.Len(t, back, len(sig))

	var dot, na, nb float64
	var peak = 0.0
	for i := range sig {
		dot += sig[i] * back[i]
		na += sig[i] * sig[i]
		nb += back[i] * back[i]
		if a := math.Abs(back[i]); a > peak {
			peak = a
		}
	}
	assert.Greater(t, dot/math.Sqrt(na*nb), 0.9999)
	assert.InDelta(t, 0.9, peak, 0.01, "peak normalized to the ceiling")
}

func TestWriteWAVRejectsBadCeiling(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "never.wav")
	assert.Error(t, WriteWAVFile(path, []float64{0}, 0))
	assert.Error(t, WriteWAVFile(path, []float64{0}, 1.5))
}

func TestWriteWAVAllZeroInput(t *testing.T) {
	// Silence must not divide by a zero peak.
	var path = filepath.Join(t.TempDir(), "silence.wav")
	require.NoError(t, WriteWAVFile(path, make([]float64, 100), 0.9))

	var back, err = ReadWAVFile(path)
	require.NoError(t, err)
	for _, s := range back {
		assert.Zero(t, s)
	}
}

func TestReadWAVMissingFile(t *testing.T) {
	var _, err = ReadWAVFile(filepath.Join(t.TempDir(), "nope.wav"))
	assert.Error(t, err)
}
