// Package config implements the CLI surface : a handful of
// case-insensitive positional keywords plus a small set of ancillary flags,
// with optional YAML defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/openacousticdevices/audiomoth-recorder/internal/heterodyne"
)

// MaxSampleRate is the rate HIGHSAMPLERATE/HSR unlocks for non-preferred
// microphones.
const MaxSampleRate = 384000

var validSampleRates = []int{8000, 16000, 32000, 48000, 96000, 192000, 250000, 384000}
var validAutosaveMinutes = []int{0, 1, 5, 10, 60}

// Options is the parsed result of the CLI surface.
type Options struct {
	DestinationDir       string
	HighSampleRate       bool
	UseUTC               bool
	AutosaveMinutes      int
	Monitor              bool
	HeterodyneEnabled    bool
	HeterodyneFrequency  int
	RequestedSampleRate  int
	Verbose              bool
}

// fileDefaults mirrors the subset of Options that may be supplied by an
// optional YAML defaults file; CLI arguments always take precedence.
type fileDefaults struct {
	DestinationDir      string `yaml:"destination_dir"`
	HighSampleRate       *bool `yaml:"high_sample_rate"`
	UseUTC               *bool `yaml:"utc"`
	AutosaveMinutes      *int  `yaml:"autosave_minutes"`
	Monitor              *bool `yaml:"monitor"`
	HeterodyneFrequency  *int  `yaml:"heterodyne_hz"`
	RequestedSampleRate  *int  `yaml:"sample_rate"`
}

func defaultOptions() Options {
	return Options{
		DestinationDir:      ".",
		AutosaveMinutes:     0,
		RequestedSampleRate: 0,
	}
}

// Parse interprets args (excluding the program name) 
// Returns an error for anything that should exit 1 at startup. Ancillary
// flags (--verbose, --config, --help) are parsed via pflag first; the
// remaining positional tokens are scanned against the domain grammar.
func Parse(args []string) (Options, error) {
	flags := pflag.NewFlagSet("audiomoth-recorder", pflag.ContinueOnError)

	verbose := flags.BoolP("verbose", "v", false, "Enable debug-level logging.")
	configPath := flags.StringP("config", "c", "", "Path to an optional YAML defaults file.")
	help := flags.BoolP("help", "h", false, "Display this help text and exit.")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "audiomoth-recorder [options] [directory] [HSR|HIGHSAMPLERATE] [UTC] [AUTOSAVE n] [MONITOR] [HETERODYNE hz] [samplerate]\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return Options{}, err
	}

	if *help {
		flags.Usage()
		return Options{}, errHelpRequested
	}

	opts := defaultOptions()
	opts.Verbose = *verbose

	if *configPath != "" {
		if err := applyDefaultsFile(&opts, *configPath); err != nil {
			return Options{}, fmt.Errorf("reading config file %q: %w", *configPath, err)
		}
	}

	if err := applyPositional(&opts, flags.Args()); err != nil {
		return Options{}, err
	}

	return opts, nil
}

var errHelpRequested = fmt.Errorf("help requested")

// ErrHelpRequested reports whether err was produced because --help was
// passed, so the caller can exit 0 rather than 1.
func ErrHelpRequested(err error) bool { return err == errHelpRequested }

func applyDefaultsFile(opts *Options, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var defaults fileDefaults
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return err
	}

	if defaults.DestinationDir != "" {
		opts.DestinationDir = defaults.DestinationDir
	}
	if defaults.HighSampleRate != nil {
		opts.HighSampleRate = *defaults.HighSampleRate
	}
	if defaults.UseUTC != nil {
		opts.UseUTC = *defaults.UseUTC
	}
	if defaults.AutosaveMinutes != nil {
		opts.AutosaveMinutes = *defaults.AutosaveMinutes
	}
	if defaults.Monitor != nil {
		opts.Monitor = *defaults.Monitor
	}
	if defaults.HeterodyneFrequency != nil {
		opts.HeterodyneEnabled = true
		opts.HeterodyneFrequency = *defaults.HeterodyneFrequency
	}
	if defaults.RequestedSampleRate != nil {
		opts.RequestedSampleRate = *defaults.RequestedSampleRate
	}

	return nil
}

func applyPositional(opts *Options, tokens []string) error {
	haveDestination := false

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		upper := strings.ToUpper(tok)

		switch upper {
		case "HSR", "HIGHSAMPLERATE":
			opts.HighSampleRate = true
			continue
		case "UTC":
			opts.UseUTC = true
			continue
		case "MONITOR":
			opts.Monitor = true
			continue
		case "AUTOSAVE":
			i++
			if i >= len(tokens) {
				return fmt.Errorf("AUTOSAVE requires a minute count")
			}
			minutes, err := strconv.Atoi(tokens[i])
			if err != nil {
				return fmt.Errorf("AUTOSAVE minute count %q is not an integer", tokens[i])
			}
			if !contains(validAutosaveMinutes, minutes) {
				return fmt.Errorf("AUTOSAVE %d is not one of %v", minutes, validAutosaveMinutes)
			}
			opts.AutosaveMinutes = minutes
			continue
		case "HETERODYNE":
			i++
			if i >= len(tokens) {
				return fmt.Errorf("HETERODYNE requires a carrier frequency in Hz")
			}
			hz, err := strconv.Atoi(tokens[i])
			if err != nil {
				return fmt.Errorf("HETERODYNE frequency %q is not an integer", tokens[i])
			}
			if hz < heterodyne.MinimumFrequency {
				return fmt.Errorf("HETERODYNE frequency %d is below the minimum of %d", hz, heterodyne.MinimumFrequency)
			}
			opts.HeterodyneEnabled = true
			opts.HeterodyneFrequency = hz
			continue
		}

		if rate, err := strconv.Atoi(tok); err == nil {
			if !contains(validSampleRates, rate) {
				return fmt.Errorf("sample rate %d is not one of %v", rate, validSampleRates)
			}
			opts.RequestedSampleRate = rate
			continue
		}

		if haveDestination {
			return fmt.Errorf("unrecognised argument %q", tok)
		}
		info, err := os.Stat(tok)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("destination directory %q does not exist", tok)
		}
		opts.DestinationDir = tok
		haveDestination = true
	}

	if opts.HeterodyneEnabled && opts.RequestedSampleRate != 0 && opts.HeterodyneFrequency >= opts.RequestedSampleRate/2 {
		return fmt.Errorf("HETERODYNE frequency %d must be below half the sample rate (%d)", opts.HeterodyneFrequency, opts.RequestedSampleRate/2)
	}

	return nil
}

func contains(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
