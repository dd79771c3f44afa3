package main

/*------------------------------------------------------------------
 *
 * Name:	bachgen
 *
 * Purpose:	Encode a byte message into a BachModem waveform and
 *		write it to a .WAV file or play it on the sound device.
 *
 * Examples:	bachgen -m "CQ CQ DE N0CALL" -o cq.wav
 *
 *		bachgen -m "Hi" --repetitions 15 --gap 5 -o weak.wav
 *
 *		echo "hello" | bachgen -f - --play --ptt serial:/dev/ttyUSB0:RTS
 *
 *------------------------------------------------------------------*/

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	bachmodem "github.com/doismellburning/bachmodem/src"
)

func main() {
	var message = pflag.StringP("message", "m", "", "Message text to transmit.")
	var inputFile = pflag.StringP("file", "f", "", "Read the message from a file, '-' for stdin.")
	var output = pflag.StringP("output", "o", "", "Output .WAV file.")
	var play = pflag.Bool("play", false, "Play on the default sound device instead of (or as well as) writing a file.")
	var pttSpec = pflag.String("ptt", "", "Key the transmitter while playing, e.g. serial:/dev/ttyUSB0:RTS or gpio:gpiochip0:17.")
	var configFile = pflag.StringP("config", "c", "", "YAML configuration file.")
	var deepSpace = pflag.Bool("deep-space", false, "Use the 2.0 s deep-space symbol profile.")
	var repetitions = pflag.IntP("repetitions", "N", 0, "Override the number of payload repetitions.")
	var gapSeconds = pflag.Float64P("gap", "g", -1, "Override the listening gap between repetitions, seconds.")
	var flourish = pflag.Int("flourish", -1, "Override the flourish interval in symbols, 0 disables.")
	var debug = pflag.BoolP("debug", "d", false, "Debug output.")
	pflag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
		bachmodem.SetLogLevel(log.DebugLevel)
	}

	var cfg = bachmodem.DefaultConfig()
	if *deepSpace {
		cfg = bachmodem.DeepSpaceConfig()
	}
	if *configFile != "" {
		var err error
		cfg, err = bachmodem.LoadConfig(*configFile)
		if err != nil {
			log.Fatal("Bad configuration", "err", err)
		}
	}
	if *repetitions > 0 {
		cfg.Repetitions = *repetitions
	}
	if *gapSeconds >= 0 {
		cfg.GapSeconds = *gapSeconds
	}
	if *flourish >= 0 {
		cfg.FlourishInterval = *flourish
	}

	var msg = []byte(*message)
	if *inputFile != "" {
		var err error
		msg, err = readMessage(*inputFile)
		if err != nil {
			log.Fatal("Cannot read message", "file", *inputFile, "err", err)
		}
	}
	if len(msg) == 0 {
		log.Fatal("Nothing to send.  Use -m or -f.")
	}

	if *output == "" && !*play {
		log.Fatal("No destination.  Use -o and/or --play.")
	}

	var modem, err = bachmodem.NewModem(cfg)
	if err != nil {
		log.Fatal("Cannot build modem", "err", err)
	}

	var samples, encErr = modem.Encode(msg)
	if encErr != nil {
		log.Fatal("Encoding failed", "err", encErr)
	}
	log.Info("Encoded message",
		"bytes", len(msg),
		"samples", len(samples),
		"seconds", float64(len(samples))/bachmodem.SampleRate)

	if *output != "" {
		if err := bachmodem.WriteWAVFile(*output, samples, cfg.PeakCeiling); err != nil {
			log.Fatal("Cannot write WAV", "file", *output, "err", err)
		}
		log.Info("Wrote waveform", "file", *output)
	}

	if *play {
		playWaveform(samples, *pttSpec)
	}
}

func readMessage(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func playWaveform(samples []float64, pttSpec string) {
	if err := bachmodem.AudioInit(); err != nil {
		log.Fatal("Cannot initialize audio", "err", err)
	}
	defer bachmodem.AudioTerm() //nolint:errcheck

	var ptt, err = bachmodem.OpenPTT(pttSpec)
	if err != nil {
		log.Fatal("Cannot open PTT", "err", err)
	}
	defer ptt.Close() //nolint:errcheck

	if err := ptt.Set(true); err != nil {
		log.Fatal("Cannot key transmitter", "err", err)
	}

	var playErr = bachmodem.PlaySamples(samples)

	if err := ptt.Set(false); err != nil {
		log.Error("Cannot unkey transmitter", "err", err)
	}
	if playErr != nil {
		log.Fatal("Playback failed", "err", playErr)
	}
}
