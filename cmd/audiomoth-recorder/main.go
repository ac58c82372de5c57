// Command audiomoth-recorder is a continuous acoustic capture daemon: it
// records from a preferred AudioMoth USB microphone (or any default input
// device) into minute-aligned WAV files, with optional UTC naming, high
// sample rate capture, live monitor playback, and heterodyne demodulation.
package main

import (
	"fmt"
	"os"

	"github.com/openacousticdevices/audiomoth-recorder/internal/config"
	"github.com/openacousticdevices/audiomoth-recorder/internal/lifecycle"
	"github.com/openacousticdevices/audiomoth-recorder/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := config.Parse(args)
	if err != nil {
		if config.ErrHelpRequested(err) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "audiomoth-recorder:", err)
		return 1
	}

	logging.Init(opts.Verbose)
	log := logging.Root()

	log.Info("starting", "destination", opts.DestinationDir, "autosave_minutes", opts.AutosaveMinutes)

	controller := lifecycle.New(log, opts)
	if err := controller.Run(); err != nil {
		logging.Error(log, "fatal startup error", "err", err)
		return 1
	}

	return 0
}
