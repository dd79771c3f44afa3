// Package bachmodem is a narrowband audio-band modem for weak-signal HF radio.
//
// Byte messages are encoded into a musical waveform sampled at 8 kHz and
// decoded back out of it, surviving additive noise and multipath fading down
// to extreme negative SNR.  The transmit chain is
//
//	bytes -> bits -> polar encode -> interleave -> FH-DPSK modulate -> repetition frame
//
// and the receive chain is its mirror image: preamble acquisition, matched
// filtering, RAKE combining across multipath, coherent combining across
// repetitions, differential decoding, de-interleaving, and polar list
// decoding.
package bachmodem

import (
	"math"
	"os"

	"github.com/charmbracelet/log"
)

/*
 * Fixed physical-layer constants.  Both ends of a link are built from the
 * same values; nothing here is negotiated on the air.
 */

const SampleRate = 8000 // Audio samples per second.

const NumTones = 16 // Size of the Bach scale and of one hop cycle.

// DifferentialLag is the symbol distance between two uses of the same tone.
// Phase is encoded differentially at this lag, so each tone carries its own
// phase reference and slow per-tone channel rotation cancels out.
const DifferentialLag = 16

// bachScale holds the 16 C-major note frequencies from C4 through D6, in Hz.
// The tone index used throughout the package is an index into this table.
var bachScale = [NumTones]float64{
	261.63,  // C4
	293.66,  // D4
	329.63,  // E4
	349.23,  // F4
	392.00,  // G4
	440.00,  // A4
	493.88,  // B4
	523.25,  // C5
	587.33,  // D5
	659.25,  // E5
	698.46,  // F5
	783.99,  // G5
	880.00,  // A5
	987.77,  // B5
	1046.50, // C6
	1174.66, // D6
}

// hopPattern is the melodic hop permutation.  hopPattern[k%16] selects the
// tone transmitted at symbol index k within a cycle.
var hopPattern = [NumTones]int{0, 7, 4, 12, 2, 9, 5, 14, 1, 8, 3, 11, 6, 13, 10, 15}

// flourishTones steps through the scale by fourths, a true permutation of
// the 16 tones that does not correlate with the ascending preamble arpeggio.
var flourishTones = [NumTones]int{0, 3, 6, 9, 12, 15, 2, 5, 8, 11, 14, 1, 4, 7, 10, 13}

// postambleCycles descending arpeggio repetitions closing each transmission.
const postambleCycles = 2

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "bachmodem",
})

// SetLogLevel adjusts the package logger.  Drivers map their --debug flag
// onto this.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

/*------------------------------------------------------------------
 *
 * The wavelet generator.
 *
 * Every symbol is a Morlet pulse: a Gaussian envelope times a complex
 * exponential at one of the Bach tones.  The envelope width is a sixth
 * of the symbol duration and the amplitude normalizes the pulse to unit
 * energy, so matched-filter outputs are directly comparable across
 * tones.
 *
 *------------------------------------------------------------------*/

// Wavelet is one Morlet pulse as paired real and imaginary sample arrays,
// both of length samples-per-symbol.
type Wavelet struct {
	Re []float64
	Im []float64
}

// waveletTable holds the 16 precomputed wavelets for one symbol duration.
// Sweep waveforms are assembled from them on each call, not stored.  It is
// immutable once built; a Modem builds exactly one.
type waveletTable struct {
	symbolDuration float64
	samplesPerSym  int
	wavelets       [NumTones]Wavelet
}

/*------------------------------------------------------------------
 *
 * Name:	newWaveletTable
 *
 * Purpose:	Generate the Morlet wavelet for each Bach tone.
 *
 * Inputs:	symbolDuration	- Seconds per symbol (0.1 baseline,
 *				  2.0 deep-space).
 *
 * Description:	The time grid is symmetric about zero,
 *		t = (n - (Ns-1)/2) / Fs, so the pulse peaks mid-symbol.
 *		With width s = Ts/6 and amplitude A = (s*sqrt(pi))^(-1/2)
 *		the integral of |psi|^2 dt is exactly 1.
 *
 *------------------------------------------------------------------*/

func newWaveletTable(symbolDuration float64) *waveletTable {
	var ns = int(math.Round(symbolDuration * SampleRate))
	var t = &waveletTable{
		symbolDuration: symbolDuration,
		samplesPerSym:  ns,
	}

	var s = symbolDuration / 6.0
	var amp = 1.0 / math.Sqrt(s*math.Sqrt(math.Pi))
	var center = float64(ns-1) / 2.0

	for tone := range NumTones {
		var re = make([]float64, ns)
		var im = make([]float64, ns)
		var omega = 2.0 * math.Pi * bachScale[tone]

		for n := range ns {
			var tSec = (float64(n) - center) / SampleRate
			var envelope = amp * math.Exp(-0.5*(tSec/s)*(tSec/s))
			re[n] = envelope * math.Cos(omega*tSec)
			im[n] = envelope * math.Sin(omega*tSec)
		}

		t.wavelets[tone] = Wavelet{Re: re, Im: im}
	}

	return t
}

// wavelet returns the precomputed pulse for a tone index.
func (t *waveletTable) wavelet(tone int) Wavelet {
	return t.wavelets[tone]
}

/*------------------------------------------------------------------
 *
 * Name:	sweep
 *
 * Purpose:	Concatenate the real parts of wavelets for a tone
 *		sequence.  Preamble, flourish and postamble are all
 *		sweeps; only the tone order differs.
 *
 *------------------------------------------------------------------*/

func (t *waveletTable) sweep(tones []int) []float64 {
	var out = make([]float64, 0, len(tones)*t.samplesPerSym)
	for _, tone := range tones {
		out = append(out, t.wavelets[tone].Re...)
	}
	return out
}

// preambleTones returns the ascending arpeggio 0..15 repeated for the
// configured number of cycles.
func preambleTones(cycles int) []int {
	var tones = make([]int, 0, cycles*NumTones)
	for range cycles {
		for i := range NumTones {
			tones = append(tones, i)
		}
	}
	return tones
}

// postambleTones returns the descending arpeggio 15..0 repeated.
func postambleTones() []int {
	var tones = make([]int, 0, postambleCycles*NumTones)
	for range postambleCycles {
		for i := NumTones - 1; i >= 0; i-- {
			tones = append(tones, i)
		}
	}
	return tones
}

// preamble assembles the synchronization sweep for the given cycle count.
func (t *waveletTable) preamble(cycles int) []float64 {
	return t.sweep(preambleTones(cycles))
}

// flourish assembles one in-payload arpeggio sweep.
func (t *waveletTable) flourish() []float64 {
	return t.sweep(flourishTones[:])
}

// postamble assembles the closing sweep.
func (t *waveletTable) postamble() []float64 {
	return t.sweep(postambleTones())
}

// flourishLen and postambleLen are used for slot arithmetic on both ends.

func (t *waveletTable) flourishLen() int {
	return NumTones * t.samplesPerSym
}

func (t *waveletTable) postambleLen() int {
	return postambleCycles * NumTones * t.samplesPerSym
}

func (t *waveletTable) preambleLen(cycles int) int {
	return cycles * NumTones * t.samplesPerSym
}
