package bachmodem

/*------------------------------------------------------------------
 *
 * Purpose:	Preamble acquisition.
 *
 * Description:	The receiver knows nothing about timing; it finds each
 *		repetition by cross-correlating the known preamble
 *		sweep against the capture and picking peaks.  The
 *		template is the analytic (complex) preamble so the
 *		correlation magnitude is a smooth envelope and the
 *		complex value at the peak doubles as a path amplitude
 *		estimate for the RAKE stage.
 *
 *		Correlation runs at the full 8 kHz rate.  Decimating
 *		first would alias the top of the scale (D6 at about
 *		1175 Hz is already above the Nyquist of a
 *		decimate-by-4 stream) and destroy the peak.
 *
 *		A peak is accepted only if its magnitude clears the
 *		configured floor and it stands a configured ratio above
 *		the local median, which keeps noise spikes from locking
 *		the receiver onto nothing.
 *
 *------------------------------------------------------------------*/

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
)

// syncDetection is one located preamble instance.
type syncDetection struct {
	pos       int        // Sample index of the preamble start.
	amp       complex128 // Correlation value at the peak.
	snrDB     float64    // Estimated from peak vs. off-peak correlation noise.
	peakRatio float64    // Peak magnitude over local median magnitude.
}

// analyticSweep builds the complex matched template for a tone
// sequence: real part as transmitted, imaginary part its quadrature.
func (t *waveletTable) analyticSweep(tones []int) []complex128 {
	var out = make([]complex128, 0, len(tones)*t.samplesPerSym)
	for _, tone := range tones {
		var w = t.wavelets[tone]
		for n := range t.samplesPerSym {
			out = append(out, complex(w.Re[n], w.Im[n]))
		}
	}
	return out
}

func (t *waveletTable) preambleTemplate(cycles int) []complex128 {
	return t.analyticSweep(preambleTones(cycles))
}

func (t *waveletTable) postambleTemplate() []complex128 {
	return t.analyticSweep(postambleTones())
}

// findPostamble locates the closing sweep at or after searchStart.
// Used in uncoded mode, where the data symbol count is recovered from
// the waveform itself instead of a decoded length header.  Returns -1
// if the region is too short.
func (m *Modem) findPostamble(sig []float64, searchStart int) int {
	if searchStart < 0 || searchStart >= len(sig) {
		return -1
	}

	var corr = crossCorrelate(sig[searchStart:], m.postambleTmpl)
	if len(corr) == 0 {
		return -1
	}

	var best = 0
	var bestMag = 0.0
	for i, c := range corr {
		if mag := cmplx.Abs(c); mag > bestMag {
			best = i
			bestMag = mag
		}
	}

	return searchStart + best
}

/*------------------------------------------------------------------
 *
 * Name:	crossCorrelate
 *
 * Purpose:	Full cross-correlation of a complex template against a
 *		real capture, corr[d] = sum_m conj(tmpl[m]) * sig[d+m].
 *
 * Description:	Computed in the frequency domain; a deep-space capture
 *		runs to millions of samples and the direct form is
 *		quadratic.  The inverse transform from gonum is
 *		unnormalized, hence the 1/nfft scale.
 *
 *------------------------------------------------------------------*/

func crossCorrelate(sig []float64, tmpl []complex128) []complex128 {
	var n = len(sig)
	var m = len(tmpl)
	if n < m {
		return nil
	}

	var nfft = 1
	for nfft < n+m {
		nfft <<= 1
	}

	var a = make([]complex128, nfft)
	for i, v := range sig {
		a[i] = complex(v, 0)
	}
	var b = make([]complex128, nfft)
	copy(b, tmpl)

	var fft = fourier.NewCmplxFFT(nfft)
	var sa = fft.Coefficients(nil, a)
	var sb = fft.Coefficients(nil, b)
	for i := range sa {
		sa[i] *= cmplx.Conj(sb[i])
	}

	var c = fft.Sequence(nil, sa)
	var scale = complex(1.0/float64(nfft), 0)
	var out = make([]complex128, n-m+1)
	for i := range out {
		out[i] = c[i] * scale
	}
	return out
}

// crossCorrelateWindow is the direct form restricted to lags
// [start, end).  Used for the short searches around known positions
// (RAKE finger extraction) where an FFT would be wasted effort.
func crossCorrelateWindow(sig []float64, tmpl []complex128, start int, end int) []complex128 {
	if start < 0 {
		start = 0
	}
	if max := len(sig) - len(tmpl) + 1; end > max {
		end = max
	}
	if end <= start {
		return nil
	}

	var out = make([]complex128, end-start)
	for d := start; d < end; d++ {
		var sumRe, sumIm float64
		for m, tv := range tmpl {
			var s = sig[d+m]
			sumRe += real(tv) * s
			sumIm -= imag(tv) * s // conj(tmpl)
		}
		out[d-start] = complex(sumRe, sumIm)
	}
	return out
}

/*------------------------------------------------------------------
 *
 * Name:	synchronize
 *
 * Purpose:	Locate up to maxCount preamble instances in a capture.
 *
 * Returns:	Accepted detections in capture order, plus the full
 *		correlation buffer.  The RAKE stage does not use the
 *		buffer; it correlates its own window around each
 *		detection.
 *
 * Description:	The per-repetition burst length depends on the message
 *		length, which the receiver does not know yet, so
 *		instances are found by iterative peak extraction with a
 *		preamble-length guard suppressed around each hit rather
 *		than by stride prediction.
 *
 *------------------------------------------------------------------*/

func (m *Modem) synchronize(sig []float64, maxCount int) ([]syncDetection, []complex128) {
	var corr = crossCorrelate(sig, m.preambleTmpl)
	if len(corr) == 0 {
		return nil, nil
	}

	var mags = make([]float64, len(corr))
	for i, c := range corr {
		mags[i] = cmplx.Abs(c)
	}

	var preLen = m.wavelets.preambleLen(m.cfg.PreambleCycles)
	var guard = m.wavelets.samplesPerSym // Around a peak: still signal, not noise.

	var detections []syncDetection
	var suppressed = make([]bool, len(mags))

	for len(detections) < maxCount {
		var peak = -1
		var peakMag = 0.0
		for i, v := range mags {
			if !suppressed[i] && v > peakMag {
				peak = i
				peakMag = v
			}
		}
		if peak < 0 || peakMag <= m.cfg.SyncThreshold {
			break
		}

		var det = m.qualifyPeak(mags, peak, guard, preLen)
		det.amp = corr[peak]

		// Suppress the whole burst's preamble around this peak so the
		// next iteration finds a different repetition, not a sidelobe.
		for i := peak - preLen; i < peak+preLen; i++ {
			if i >= 0 && i < len(mags) {
				suppressed[i] = true
			}
		}

		if det.peakRatio < m.cfg.SyncPeakRatio {
			logger.Debug("sync: rejected correlation peak", "pos", peak, "ratio", det.peakRatio)
			continue
		}

		detections = append(detections, det)
	}

	// Repetitions of the same transmission arrive at comparable
	// strength; a "preamble" far weaker than the strongest hit is a
	// sidelobe or a noise spike, not another copy.
	var strongest = 0.0
	for _, d := range detections {
		if a := cmplx.Abs(d.amp); a > strongest {
			strongest = a
		}
	}
	var kept = detections[:0]
	for _, d := range detections {
		if cmplx.Abs(d.amp) >= 0.4*strongest {
			kept = append(kept, d)
		} else {
			logger.Debug("sync: dropped weak detection", "pos", d.pos)
		}
	}
	detections = kept

	sort.Slice(detections, func(a, b int) bool {
		return detections[a].pos < detections[b].pos
	})

	return detections, corr
}

// qualifyPeak estimates SNR and the peak-to-median ratio from the
// correlation magnitudes local to one peak.
func (m *Modem) qualifyPeak(mags []float64, peak int, guard int, window int) syncDetection {
	var lo = peak - window
	if lo < 0 {
		lo = 0
	}
	var hi = peak + window
	if hi > len(mags) {
		hi = len(mags)
	}

	var outside = make([]float64, 0, hi-lo)
	var sumSq = 0.0
	for i := lo; i < hi; i++ {
		if i >= peak-guard && i <= peak+guard {
			continue
		}
		outside = append(outside, mags[i])
		sumSq += mags[i] * mags[i]
	}

	var det = syncDetection{pos: peak, snrDB: math.Inf(1), peakRatio: math.Inf(1)}
	if len(outside) == 0 {
		return det
	}

	var noiseVar = sumSq / float64(len(outside))
	var peakMag = mags[peak]
	if noiseVar > 0 {
		det.snrDB = 10.0 * math.Log10(peakMag*peakMag/noiseVar)
	}

	sort.Float64s(outside)
	var median = outside[len(outside)/2]
	if median > 0 {
		det.peakRatio = peakMag / median
	}

	return det
}
