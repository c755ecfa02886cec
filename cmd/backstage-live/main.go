// Command backstage-live runs the native audio engine against a real (or
// default) capture device and prints its frame state to the terminal,
// matching the teacher's cmd/direwolf pattern of a thin flag-parsing shell
// around a long-running engine.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/audiomoth/backstage"
	"github.com/audiomoth/backstage/internal/config"
)

func main() {
	// --config has to be known before the rest of the flags can be
	// registered (its value picks the baseline RegisterFlags defaults
	// override), so it's read in a throwaway pre-parse that tolerates the
	// flags it doesn't recognise yet, then re-declared on the real
	// FlagSet below so the full parse validates every flag in one pass.
	pre := pflag.NewFlagSet("backstage-live-pre", pflag.ContinueOnError)
	pre.ParseErrorsWhitelist = pflag.ParseErrorsWhitelist{UnknownFlags: true}
	configPath := pre.String("config", "", "path to a YAML configuration file")
	_ = pre.Parse(os.Args[1:])

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "backstage-live:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	fs := pflag.NewFlagSet("backstage-live", pflag.ContinueOnError)
	fs.String("config", *configPath, "path to a YAML configuration file")
	monitor := fs.String("monitor", "off", "monitor mode: off, playthrough or heterodyne")
	config.RegisterFlags(fs, &cfg)
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "backstage-live:", err)
		os.Exit(1)
	}

	switch *monitor {
	case "playthrough":
		cfg.Monitor = backstage.MonitorPlaythrough
	case "heterodyne":
		cfg.Monitor = backstage.MonitorHeterodyne
	default:
		cfg.Monitor = backstage.MonitorOff
	}

	engine := backstage.New(cfg)
	result := engine.Initialise()
	if !result.Success {
		fmt.Fprintln(os.Stderr, "backstage-live: initialise failed")
		os.Exit(1)
	}
	defer engine.Shutdown()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			return
		case <-ticker.C:
			frame := engine.GetFrame()
			if frame.RedrawRequired {
				fmt.Printf("device=%q rate=%d/%d old-moth=%v sim=%v count=%d\n",
					frame.DeviceName, frame.CurrentSampleRate, frame.MaximumSampleRate,
					frame.OldAudiomothFound, frame.SimulationRunning, frame.AudioCount)
			}
		}
	}
}
