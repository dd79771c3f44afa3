package main

/*------------------------------------------------------------------
 *
 * Name:	bachrx
 *
 * Purpose:	Decode a BachModem waveform from a .WAV file or the
 *		sound device and print the recovered message.
 *
 * Examples:	bachrx cq.wav
 *
 *		bachrx --capture 60
 *
 *		bachrx weak.wav --repetitions 15 --log /var/log/bachmodem
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	bachmodem "github.com/doismellburning/bachmodem/src"
)

func main() {
	var capture = pflag.Float64("capture", 0, "Record this many seconds from the sound device instead of reading a file.")
	var configFile = pflag.StringP("config", "c", "", "YAML configuration file.")
	var deepSpace = pflag.Bool("deep-space", false, "Use the 2.0 s deep-space symbol profile.")
	var repetitions = pflag.IntP("repetitions", "N", 0, "Override the expected number of payload repetitions.")
	var flourish = pflag.Int("flourish", -1, "Override the flourish interval in symbols, 0 disables.")
	var logPath = pflag.StringP("log", "l", "", "Receive log: a CSV file, or a directory for daily files.")
	var timeFormat = pflag.StringP("time-format", "T", "", "strftime pattern for receive log timestamps.")
	var serialOut = pflag.String("serial-out", "", "Also write decoded messages to this serial device.")
	var serialBaud = pflag.Int("serial-baud", 9600, "Speed for --serial-out.")
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
	if *flourish >= 0 {
		cfg.FlourishInterval = *flourish
	}

	var samples []float64
	switch {
	case *capture > 0:
		if err := bachmodem.AudioInit(); err != nil {
			log.Fatal("Cannot initialize audio", "err", err)
		}
		defer bachmodem.AudioTerm() //nolint:errcheck

		var err error
		samples, err = bachmodem.CaptureSamples(*capture)
		if err != nil {
			log.Fatal("Capture failed", "err", err)
		}

	case pflag.NArg() == 1:
		var err error
		samples, err = bachmodem.ReadWAVFile(pflag.Arg(0))
		if err != nil {
			log.Fatal("Cannot read WAV", "err", err)
		}

	default:
		log.Fatal("Give exactly one .WAV file, or use --capture.")
	}

	var modem, err = bachmodem.NewModem(cfg)
	if err != nil {
		log.Fatal("Cannot build modem", "err", err)
	}

	var result = modem.Decode(samples)

	var rxlog, logErr = bachmodem.OpenRxLog(*logPath, *timeFormat)
	if logErr != nil {
		log.Fatal("Cannot open receive log", "err", logErr)
	}
	defer rxlog.Close()
	rxlog.Write(result)

	if result.SyncFailed {
		log.Error("No preamble found; nothing decoded.")
		os.Exit(1)
	}

	for i, pos := range result.PreamblePositions {
		log.Info("Preamble", "repetition", i, "sample", pos, "snrDB", fmt.Sprintf("%.1f", result.SNRdB[i]))
	}
	if result.PartialDecode {
		log.Warn("Partial decode: some repetitions or trailing blocks were missing.")
	}
	if result.CRCFailed {
		log.Warn("CRC failed: message is the best-effort guess, treat with suspicion.")
	}

	fmt.Printf("%s\n", result.Bytes)

	if *serialOut != "" {
		var port, serErr = bachmodem.SerialOpen(*serialOut, *serialBaud)
		if serErr != nil {
			log.Fatal("Cannot open serial output", "err", serErr)
		}
		defer bachmodem.SerialClose(port)

		if err := bachmodem.SerialWrite(port, append(result.Bytes, '\n')); err != nil {
			log.Error("Serial output failed", "err", err)
		}
	}

	if result.CRCFailed {
		os.Exit(1)
	}
}
