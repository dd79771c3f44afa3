package bachmodem

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPolarCodeConstruction(t *testing.T) {
	var code, err = newPolarCode(256, 128)
	require.NoError(t, err)

	assert.Len(t, code.infoSet, 128)
	assert.Equal(t, 120, code.payloadBits())

	var frozenCount = 0
	for _, f := range code.frozen {
		if f {
			frozenCount++
		}
	}
	assert.Equal(t, 128, frozenCount)

	// Ascending info positions, no duplicates.
	for i := 1; i < len(code.infoSet); i++ {
		assert.Greater(t, code.infoSet[i], code.infoSet[i-1])
	}

	// Deterministic construction: both ends must derive the same plan.
	var again, _ = newPolarCode(256, 128)
	assert.Equal(t, code.infoSet, again.infoSet)

	// The last position is the most polarized "good" channel; it must
	// always be an information position.
	assert.False(t, code.frozen[255])
	// Position 0 is the most degraded channel and must be frozen.
	assert.True(t, code.frozen[0])
}

func TestPolarCodeRejectsBadParameters(t *testing.T) {
	var _, err = newPolarCode(100, 50)
	assert.Error(t, err, "non power of two length")

	_, err = newPolarCode(256, 8)
	assert.Error(t, err, "nothing left after the CRC")

	_, err = newPolarCode(256, 256)
	assert.Error(t, err, "no frozen bits")
}

func TestPolarCleanRoundTrip(t *testing.T) {
	var code, err = newPolarCode(256, 128)
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		var payload = make([]byte, code.payloadBits())
		for i := range payload {
			payload[i] = byte(rapid.IntRange(0, 1).Draw(t, "bit"))
		}

		var coded, encErr = code.encode(payload)
		require.NoError(t, encErr)
		require.Len(t, coded, 256)

		// Noiseless LLRs: large magnitude, correct sign.
		var llrs = make([]float64, len(coded))
		for i, x := range coded {
			llrs[i] = 20.0 * (1.0 - 2.0*float64(x))
		}

		var decoded, crcOK = code.decode(llrs, 8)
		require.True(t, crcOK)
		require.Equal(t, payload, decoded)
	})
}

func TestPolarRoundTripAWGN(t *testing.T) {
	// 4 dB Es/N0 is comfortably above the code's waterfall; allow a
	// single unlucky block out of the trial batch.
	var code, err = newPolarCode(256, 128)
	require.NoError(t, err)

	var rng = rand.New(rand.NewSource(42))
	var esn0 = math.Pow(10.0, 4.0/10.0)
	var sigma = math.Sqrt(1.0 / (2.0 * esn0))

	var trials = 30
	if testing.Short() {
		trials = 5
	}

	var failures = 0
	for range trials {
		var payload = make([]byte, code.payloadBits())
		for i := range payload {
			payload[i] = byte(rng.Intn(2))
		}

		var coded, _ = code.encode(payload)
		var llrs = make([]float64, len(coded))
		for i, x := range coded {
			var s = 1.0 - 2.0*float64(x)
			var y = s + sigma*rng.NormFloat64()
			llrs[i] = 2.0 * y / (sigma * sigma)
		}

		var decoded, crcOK = code.decode(llrs, 8)
		if !crcOK || !assert.ObjectsAreEqual(payload, decoded) {
			failures++
		}
	}

	assert.LessOrEqual(t, failures, 1, "block error rate far above expectation at 4 dB")
}

func TestPolarDecodeAlwaysReturns(t *testing.T) {
	// Total erasure: every LLR zero.  Decode must still produce a
	// payload-sized best effort rather than fail.
	var code, err = newPolarCode(256, 128)
	require.NoError(t, err)

	var decoded, _ = code.decode(make([]float64, 256), 8)
	assert.Len(t, decoded, code.payloadBits())
}

func TestPolarTransformInvolution(t *testing.T) {
	// G_N over GF(2) is its own inverse.
	rapid.Check(t, func(t *rapid.T) {
		var u = make([]byte, 64)
		for i := range u {
			u[i] = byte(rapid.IntRange(0, 1).Draw(t, "bit"))
		}

		var x = append([]byte(nil), u...)
		polarTransform(x)
		polarTransform(x)
		require.Equal(t, u, x)
	})
}

func TestSoftplus(t *testing.T) {
	assert.InDelta(t, math.Log(2), softplus(0), 1e-12)
	assert.InDelta(t, 50.0, softplus(50), 1e-9, "saturates to identity")
	assert.InDelta(t, 0.0, softplus(-50), 1e-9)
}
