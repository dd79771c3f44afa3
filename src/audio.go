package bachmodem

/*------------------------------------------------------------------
 *
 * Purpose:	Sound device boundary.
 *
 * Description:	Playback and capture through the default PortAudio
 *		device, used by the drivers when a transmission goes to
 *		a radio instead of a file.  Strictly synchronous: the
 *		core never touches the device, it hands a finished
 *		buffer over or receives one.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

const audioFramesPerBuffer = 1024

// AudioInit must be called once before any device use.
func AudioInit() error {
	return portaudio.Initialize()
}

// AudioTerm releases PortAudio.
func AudioTerm() error {
	return portaudio.Terminate()
}

/*------------------------------------------------------------------
 *
 * Name:	PlaySamples
 *
 * Purpose:	Play a waveform on the default output device and block
 *		until it has been fully handed to the driver.
 *
 *------------------------------------------------------------------*/

func PlaySamples(samples []float64) error {
	var buf = make([]float32, audioFramesPerBuffer)

	var stream, err = portaudio.OpenDefaultStream(0, 1, float64(SampleRate), audioFramesPerBuffer, buf)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}
	defer stream.Stop() //nolint:errcheck

	for pos := 0; pos < len(samples); pos += audioFramesPerBuffer {
		for i := range buf {
			if pos+i < len(samples) {
				buf[i] = float32(samples[pos+i])
			} else {
				buf[i] = 0
			}
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("writing to output stream: %w", err)
		}
	}

	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	CaptureSamples
 *
 * Purpose:	Record the given number of seconds from the default
 *		input device.
 *
 *------------------------------------------------------------------*/

func CaptureSamples(seconds float64) ([]float64, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("capture duration %v must be positive", seconds)
	}

	var want = int(seconds * SampleRate)
	var buf = make([]float32, audioFramesPerBuffer)

	var stream, err = portaudio.OpenDefaultStream(1, 0, float64(SampleRate), audioFramesPerBuffer, buf)
	if err != nil {
		return nil, fmt.Errorf("opening input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("starting input stream: %w", err)
	}
	defer stream.Stop() //nolint:errcheck

	var out = make([]float64, 0, want)
	for len(out) < want {
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from input stream: %w", err)
		}
		for _, v := range buf {
			out = append(out, float64(v))
		}
	}

	return out[:want], nil
}
