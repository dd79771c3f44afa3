package bachmodem

/*------------------------------------------------------------------
 *
 * Purpose:	Diversity combining: multipath fingers within a
 *		repetition, then repetitions across the transmission.
 *
 * Description:	HF skywave arrives over several ray paths with
 *		different delays.  Each resolvable path ("finger") is
 *		demodulated separately, then the per-symbol complex
 *		correlations are co-phased and summed before the
 *		differential decoder ever runs - a classic RAKE.
 *
 *		Across repetitions the same idea applies one level up:
 *		repetition 0 is the phase reference, every other
 *		repetition is rotated onto it by the angle of the
 *		correlation inner product, and the rotated sequences
 *		are summed with SNR weights.  The combined sequence is
 *		decoded once, not per copy.
 *
 *------------------------------------------------------------------*/

import (
	"math"
	"math/cmplx"
)

// rakeFinger is one resolvable propagation path: a delay relative to
// the detected preamble position and the complex amplitude estimated
// from the preamble correlation at that delay.
type rakeFinger struct {
	delay int
	amp   complex128
}

/*------------------------------------------------------------------
 *
 * Name:	extractFingers
 *
 * Purpose:	Find up to MaxRakeFingers multipath components around
 *		one detected preamble.
 *
 * Description:	Iterative peak extraction on the preamble correlation
 *		magnitude: take the argmax, record (delay, amplitude),
 *		suppress a guard region so the same path is not counted
 *		twice, repeat.  Fingers below RakeMinRelAmp of the
 *		strongest are discarded; the survivors come back sorted
 *		by decreasing magnitude with the strongest first.
 *
 *------------------------------------------------------------------*/

func (m *Modem) extractFingers(sig []float64, det syncDetection) []rakeFinger {
	var spread = int(m.cfg.RakeDelaySpreadMs * SampleRate / 1000.0)
	if m.cfg.MaxRakeFingers <= 1 || spread <= 0 {
		return []rakeFinger{{delay: 0, amp: det.amp}}
	}

	var lo = det.pos - spread
	var hi = det.pos + spread + 1
	var corr = crossCorrelateWindow(sig, m.preambleTmpl, lo, hi)
	if len(corr) == 0 {
		return []rakeFinger{{delay: 0, amp: det.amp}}
	}
	if lo < 0 {
		lo = 0
	}

	var guard = m.cfg.RakeGuardSamples
	if guard < 1 {
		guard = 1
	}

	var taken = make([]bool, len(corr))
	var fingers []rakeFinger

	for len(fingers) < m.cfg.MaxRakeFingers {
		var peak = -1
		var peakMag = 0.0
		for i, c := range corr {
			if mag := cmplx.Abs(c); !taken[i] && mag > peakMag {
				peak = i
				peakMag = mag
			}
		}
		if peak < 0 || peakMag == 0 {
			break
		}

		fingers = append(fingers, rakeFinger{delay: lo + peak - det.pos, amp: corr[peak]})

		for i := peak - guard; i <= peak+guard; i++ {
			if i >= 0 && i < len(taken) {
				taken[i] = true
			}
		}
	}

	if len(fingers) == 0 {
		return []rakeFinger{{delay: 0, amp: det.amp}}
	}

	// Strongest first; drop fingers too weak relative to it.
	var strongest = cmplx.Abs(fingers[0].amp)
	var kept = fingers[:1]
	for _, f := range fingers[1:] {
		if cmplx.Abs(f.amp) >= m.cfg.RakeMinRelAmp*strongest {
			kept = append(kept, f)
		}
	}

	return kept
}

/*------------------------------------------------------------------
 *
 * Name:	rakeCombine
 *
 * Purpose:	Demodulate one repetition along each finger and combine
 *		the per-symbol correlations.
 *
 * Description:	Equal-gain uses co-phased unit weights conj(a)/|a|;
 *		maximum-ratio weights each finger by its amplitude,
 *		conj(a)/sum|a|^2.  Co-phasing is required either way -
 *		summing rotated correlations raw would let strong paths
 *		cancel each other.
 *
 *------------------------------------------------------------------*/

func (m *Modem) rakeCombine(sig []float64, det syncDetection, fingers []rakeFinger, nbits int) []complex128 {
	var total = 0.0
	for _, f := range fingers {
		var a = cmplx.Abs(f.amp)
		total += a * a
	}

	var combined = make([]complex128, DifferentialLag+nbits)

	for _, f := range fingers {
		var mag = cmplx.Abs(f.amp)
		if mag == 0 {
			continue
		}

		var w complex128
		if m.cfg.MaximumRatio && total > 0 {
			w = cmplx.Conj(f.amp) / complex(total, 0)
		} else {
			w = cmplx.Conj(f.amp) / complex(mag, 0)
		}

		var corr = m.demodSymbols(sig, det.pos+f.delay, nbits)
		for j, c := range corr {
			combined[j] += w * c
		}
	}

	return combined
}

/*------------------------------------------------------------------
 *
 * Name:	combineRepetitions
 *
 * Purpose:	Coherently sum per-symbol correlation sequences from
 *		several repetitions.
 *
 * Inputs:	reps	- one correlation sequence per surviving
 *			  repetition, equal lengths.
 *		snrs	- per-repetition SNR estimates in dB, used as
 *			  maximum-ratio weights.
 *
 * Description:	Repetition 0 is the phase reference.  Each later copy
 *		is rotated by the conjugate phase of its inner product
 *		with the reference before summation.
 *
 *------------------------------------------------------------------*/

func combineRepetitions(reps [][]complex128, snrs []float64) []complex128 {
	if len(reps) == 0 {
		return nil
	}
	if len(reps) == 1 {
		return reps[0]
	}

	var ref = reps[0]
	var out = make([]complex128, len(ref))

	for r, seq := range reps {
		var rot = complex(1, 0)
		if r > 0 {
			var inner complex128
			for j, c := range seq {
				inner += c * cmplx.Conj(ref[j])
			}
			if inner != 0 {
				rot = cmplx.Conj(inner) / complex(cmplx.Abs(inner), 0)
			}
		}

		var w = repWeight(snrs, r)
		for j, c := range seq {
			out[j] += complex(w, 0) * rot * c
		}
	}

	return out
}

// repWeight is the linear-SNR maximum-ratio weight for repetition r.
// Estimates are clamped so one optimistic reading cannot drown the
// other copies.
func repWeight(snrs []float64, r int) float64 {
	if r >= len(snrs) || math.IsInf(snrs[r], 0) || math.IsNaN(snrs[r]) {
		return 1.0
	}
	var db = snrs[r]
	if db > 30 {
		db = 30
	}
	if db < -30 {
		db = -30
	}
	return math.Pow(10.0, db/10.0)
}

// sumLLRs is the non-coherent fallback: per-repetition soft bits
// scaled by repWeight and summed, roughly 3 dB worse than coherent
// combining.
func sumLLRs(repLLRs [][]float64, snrs []float64) []float64 {
	if len(repLLRs) == 0 {
		return nil
	}

	var out = make([]float64, len(repLLRs[0]))
	for r, llrs := range repLLRs {
		var w = repWeight(snrs, r)
		for i, v := range llrs {
			out[i] += w * v
		}
	}
	return out
}
