package bachmodem

/*------------------------------------------------------------------
 *
 * Purpose:	Modem configuration.
 *
 * Description:	Everything here must be agreed out-of-band: the two
 *		ends of a link never negotiate parameters on the air,
 *		they are simply configured identically.  Profiles for
 *		the 0.1 s baseline and the 2.0 s deep-space symbol
 *		durations are provided; a YAML file can override any
 *		field.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SymbolDuration float64 `yaml:"symbol_duration"` // Seconds per symbol.
	PreambleCycles int     `yaml:"preamble_cycles"` // Arpeggio cycles in the preamble.

	PolarEnabled  bool `yaml:"polar_enabled"` // Uncoded mode is for testing and diagnostics only.
	PolarN        int  `yaml:"polar_n"`
	PolarK        int  `yaml:"polar_k"`
	PolarListSize int  `yaml:"polar_list_size"`

	InterleaverWidth int `yaml:"interleaver_width"`

	FlourishInterval int `yaml:"flourish_interval"` // Symbols between flourishes, 0 disables.

	Repetitions int     `yaml:"repetitions"`
	GapSeconds  float64 `yaml:"gap_seconds"` // Listening gap between repetitions.

	PeakCeiling float64 `yaml:"peak_ceiling"` // WAV peak normalization target, <= 1.0.

	SyncThreshold float64 `yaml:"sync_threshold"`  // Correlation magnitude floor.
	SyncPeakRatio float64 `yaml:"sync_peak_ratio"` // Peak over local median, rejects noise locks.

	MaxRakeFingers    int     `yaml:"max_rake_fingers"`
	RakeDelaySpreadMs float64 `yaml:"rake_delay_spread_ms"` // Multipath search window.
	RakeGuardSamples  int     `yaml:"rake_guard_samples"`   // Minimum finger separation.
	RakeMinRelAmp     float64 `yaml:"rake_min_rel_amp"`     // Drop fingers below this fraction of the strongest.

	MaximumRatio bool `yaml:"maximum_ratio"` // Finger weights: maximum-ratio vs equal-gain.
	Coherent     bool `yaml:"coherent"`      // Repetition combining: coherent vs LLR summation.
}

// DefaultConfig is the 0.1 s baseline profile.
func DefaultConfig() Config {
	return Config{
		SymbolDuration:    0.1,
		PreambleCycles:    10,
		PolarEnabled:      true,
		PolarN:            256,
		PolarK:            128,
		PolarListSize:     8,
		InterleaverWidth:  16,
		FlourishInterval:  0,
		Repetitions:       1,
		GapSeconds:        1.0,
		PeakCeiling:       0.9,
		SyncThreshold:     0.0,
		SyncPeakRatio:     6.0,
		MaxRakeFingers:    3,
		RakeDelaySpreadMs: 6.0,
		RakeGuardSamples:  40,
		RakeMinRelAmp:     0.3,
		MaximumRatio:      true,
		Coherent:          true,
	}
}

// DeepSpaceConfig stretches every symbol to 2.0 s for extreme weak-signal
// work.  One preamble arpeggio already lasts half a minute, so fewer
// cycles are needed for acquisition.
func DeepSpaceConfig() Config {
	var c = DefaultConfig()
	c.SymbolDuration = 2.0
	c.PreambleCycles = 2
	c.Repetitions = 5
	c.GapSeconds = 5.0
	return c
}

/*------------------------------------------------------------------
 *
 * Name:	Validate
 *
 * Purpose:	Reject configurations the waveform arithmetic cannot
 *		support before any buffer is sized from them.
 *
 *------------------------------------------------------------------*/

func (c *Config) Validate() error {
	if c.SymbolDuration <= 0 {
		return fmt.Errorf("symbol_duration %v must be positive", c.SymbolDuration)
	}
	if c.PreambleCycles < 1 {
		return fmt.Errorf("preamble_cycles %d must be at least 1", c.PreambleCycles)
	}
	if c.PolarN <= 0 || c.PolarN&(c.PolarN-1) != 0 {
		return fmt.Errorf("polar_n %d must be a power of two", c.PolarN)
	}
	if c.PolarK <= polarCRCBits || c.PolarK >= c.PolarN {
		return fmt.Errorf("polar_k %d must be in (%d, %d)", c.PolarK, polarCRCBits, c.PolarN)
	}
	if c.PolarK-polarCRCBits < messageHeaderBytes*8 {
		return fmt.Errorf("polar_k %d leaves no room for the message header", c.PolarK)
	}
	if c.PolarListSize < 1 {
		return fmt.Errorf("polar_list_size %d must be at least 1", c.PolarListSize)
	}
	if c.InterleaverWidth < 1 {
		return fmt.Errorf("interleaver_width %d must be at least 1", c.InterleaverWidth)
	}
	if c.FlourishInterval < 0 {
		return fmt.Errorf("flourish_interval %d must not be negative", c.FlourishInterval)
	}
	if c.Repetitions < 1 {
		return fmt.Errorf("repetitions %d must be at least 1", c.Repetitions)
	}
	if c.GapSeconds < 0 {
		return fmt.Errorf("gap_seconds %v must not be negative", c.GapSeconds)
	}
	if c.PeakCeiling <= 0 || c.PeakCeiling > 1.0 {
		return fmt.Errorf("peak_ceiling %v must be in (0, 1]", c.PeakCeiling)
	}
	if c.MaxRakeFingers < 1 {
		return fmt.Errorf("max_rake_fingers %d must be at least 1", c.MaxRakeFingers)
	}
	return nil
}

// LoadConfig reads a YAML file over the default profile, so a file only
// needs the fields it changes.
func LoadConfig(path string) (Config, error) {
	var c = DefaultConfig()

	var data, err = os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}

	return c, nil
}
