package bachmodem

/*------------------------------------------------------------------
 *
 * Purpose:	WAV file boundary.
 *
 * Description:	The on-disk contract is fixed: 8000 Hz, 16-bit signed
 *		PCM, mono.  On the way out the waveform's peak is
 *		normalized to the configured ceiling before
 *		quantization; on the way in 16-bit samples become
 *		floats in [-1, 1].  Anything that is not an 8 kHz
 *		16-bit mono file is rejected rather than resampled.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

/*------------------------------------------------------------------
 *
 * Name:	WriteWAVFile
 *
 * Purpose:	Quantize a waveform and write it as a mono 16-bit WAV.
 *
 * Inputs:	peakCeiling	- Target peak magnitude after
 *				  normalization, in (0, 1].
 *
 *------------------------------------------------------------------*/

func WriteWAVFile(path string, samples []float64, peakCeiling float64) error {
	if peakCeiling <= 0 || peakCeiling > 1.0 {
		return fmt.Errorf("peak ceiling %v out of (0, 1]", peakCeiling)
	}

	var peak = 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	var scale = 1.0
	if peak > 0 {
		scale = peakCeiling / peak
	}

	var data = make([]int, len(samples))
	for i, s := range samples {
		var v = int(math.Round(s * scale * 32767.0))
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		data[i] = v
	}

	var f, err = os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	var enc = wav.NewEncoder(f, SampleRate, 16, 1, 1)
	var buf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing %s: %w", path, err)
	}

	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	ReadWAVFile
 *
 * Purpose:	Load a capture as normalized floats.
 *
 * Errors:	Wrong sample rate, bit depth or channel count is a
 *		caller problem, not something to paper over with
 *		resampling.
 *
 *------------------------------------------------------------------*/

func ReadWAVFile(path string) ([]float64, error) {
	var f, err = os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var dec = wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}

	var buf, readErr = dec.FullPCMBuffer()
	if readErr != nil {
		return nil, fmt.Errorf("reading %s: %w", path, readErr)
	}

	if dec.SampleRate != SampleRate {
		return nil, fmt.Errorf("%s: sample rate %d, want %d", path, dec.SampleRate, SampleRate)
	}
	if dec.BitDepth != 16 {
		return nil, fmt.Errorf("%s: bit depth %d, want 16", path, dec.BitDepth)
	}
	if dec.NumChans != 1 {
		return nil, fmt.Errorf("%s: %d channels, want mono", path, dec.NumChans)
	}

	var out = make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float64(v) / 32768.0
	}
	return out, nil
}
