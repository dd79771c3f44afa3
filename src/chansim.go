package bachmodem

/*------------------------------------------------------------------
 *
 * Purpose:	Channel simulation for receiver testing.
 *
 * Description:	Controlled, reproducible impairments: additive white
 *		Gaussian noise at a chosen SNR, Watterson-style
 *		multipath with slowly fading taps, and head silence for
 *		timing-offset tests.  Only the test suite and the
 *		bachsim driver use this; the modem itself never does.
 *
 *		Every fading oscillator starts from a randomized phase.
 *		Starting them all at zero lines the fade nulls up with
 *		the preamble and the receiver never acquires.
 *
 *------------------------------------------------------------------*/

import (
	"math"
	"math/rand"
)

// SignalPower is the mean square of a waveform.
func SignalPower(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum = 0.0
	for _, s := range samples {
		sum += s * s
	}
	return sum / float64(len(samples))
}

/*------------------------------------------------------------------
 *
 * Name:	AddNoise
 *
 * Purpose:	Add white Gaussian noise scaled for a target SNR in dB,
 *		measured against the waveform's mean square power.
 *
 *------------------------------------------------------------------*/

func AddNoise(samples []float64, snrDB float64, rng *rand.Rand) []float64 {
	var power = SignalPower(samples)
	var sigma = math.Sqrt(power / math.Pow(10.0, snrDB/10.0))

	var out = make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s + sigma*rng.NormFloat64()
	}
	return out
}

// ChannelTap is one propagation path of a simulated multipath channel.
type ChannelTap struct {
	DelayMs   float64 // Excess delay of this path.
	Gain      float64 // Linear amplitude.
	DopplerHz float64 // Fading rate; 0 means a static path.
}

/*------------------------------------------------------------------
 *
 * Name:	ApplyMultipath
 *
 * Purpose:	Pass a waveform through a set of delayed, slowly
 *		fading taps.
 *
 * Description:	Each tap contributes gain * cos(2*pi*doppler*t + phi0)
 *		times the delayed signal, phi0 drawn at random per tap.
 *		A tap with zero Doppler is static: gain times the
 *		delayed signal, with no fade factor.
 *
 *------------------------------------------------------------------*/

func ApplyMultipath(samples []float64, taps []ChannelTap, rng *rand.Rand) []float64 {
	if len(taps) == 0 {
		return append([]float64(nil), samples...)
	}

	var maxDelay = 0
	for _, tap := range taps {
		if d := int(tap.DelayMs * SampleRate / 1000.0); d > maxDelay {
			maxDelay = d
		}
	}

	var out = make([]float64, len(samples)+maxDelay)
	for _, tap := range taps {
		var delay = int(tap.DelayMs * SampleRate / 1000.0)
		var phase0 = rng.Float64() * 2.0 * math.Pi
		var omega = 2.0 * math.Pi * tap.DopplerHz / SampleRate

		for n, s := range samples {
			var fade = 1.0
			if tap.DopplerHz != 0 {
				fade = math.Cos(omega*float64(n) + phase0)
			}
			out[n+delay] += tap.Gain * fade * s
		}
	}

	return out
}

// PrependSilence shifts a waveform right by n zero samples.
func PrependSilence(samples []float64, n int) []float64 {
	var out = make([]float64, n+len(samples))
	copy(out[n:], samples)
	return out
}
