package bachmodem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testModem(t *testing.T, mutate func(*Config)) *Modem {
	t.Helper()

	var cfg = DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	var m, err = NewModem(cfg)
	require.NoError(t, err)
	return m
}

func TestPhaseTableInvariant(t *testing.T) {
	// The transmitted phase difference at the differential lag must be
	// exactly 0 or pi, and the reference block is all zero phase.
	var m = testModem(t, nil)

	rapid.Check(t, func(t *rapid.T) {
		var n = rapid.IntRange(1, 200).Draw(t, "n")
		var bits = make([]byte, n)
		for i := range bits {
			bits[i] = byte(rapid.IntRange(0, 1).Draw(t, "bit"))
		}

		var _, phases = m.modulate(bits, false, false)
		require.Len(t, phases, DifferentialLag+n)

		for k := range DifferentialLag {
			require.Zero(t, phases[k])
		}
		for k, b := range bits {
			var diff = phases[DifferentialLag+k] - phases[k]
			require.InDelta(t, math.Pi*float64(b), diff, 1e-9)
		}
	})
}

func TestModulateSampleArithmetic(t *testing.T) {
	// The emitted length must match the slot arithmetic the receiver
	// uses, to the sample, flourishes included.
	var m = testModem(t, func(c *Config) {
		c.FlourishInterval = 10
	})

	for _, n := range []int{1, 9, 10, 11, 64, 256} {
		var bits = make([]byte, n)
		var samples, _ = m.modulate(bits, true, true)
		assert.Len(t, samples, m.repetitionSamples(n), "n=%d", n)
	}
}

func TestFlourishCount(t *testing.T) {
	var m = testModem(t, func(c *Config) {
		c.FlourishInterval = 64
	})

	assert.Equal(t, 0, m.flourishCount(1))
	assert.Equal(t, 0, m.flourishCount(64))
	assert.Equal(t, 1, m.flourishCount(65))
	assert.Equal(t, 3, m.flourishCount(256))

	var off = testModem(t, nil)
	assert.Equal(t, 0, off.flourishCount(1000), "disabled interval never flourishes")
}

func TestDataToneHopCycle(t *testing.T) {
	// Between two uses of the same tone exactly one full hop cycle
	// elapses, and each cycle visits all sixteen tones.
	for k := range 64 {
		assert.Equal(t, dataTone(k), dataTone(k+NumTones))
	}

	var seen [NumTones]bool
	for k := range NumTones {
		seen[dataTone(k)] = true
	}
	for tone, ok := range seen {
		assert.True(t, ok, "tone %d never used", tone)
	}
}

func TestRepetitionFrame(t *testing.T) {
	var rep = make([]float64, 1000)
	for i := range rep {
		rep[i] = 1.0
	}

	var framed = repetitionFrame(rep, 3, 0.5)
	assert.Len(t, framed, 3*1000+2*int(0.5*SampleRate))

	// Gap regions are silent.
	assert.Zero(t, framed[1000])
	assert.Zero(t, framed[1000+int(0.5*SampleRate)-1])
	assert.Equal(t, 1.0, framed[1000+int(0.5*SampleRate)])

	assert.Len(t, repetitionFrame(rep, 1, 5.0), 1000, "single repetition has no gap")
}
