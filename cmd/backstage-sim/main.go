// Command backstage-sim drives the engine against a bundle of pre-recorded
// WAV clips instead of a live capture device, for demoing or exercising the
// Supervisor and autosave paths without AudioMoth hardware attached.
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
	// See backstage-live/main.go: --config is resolved in a tolerant
	// pre-parse so the full parse below can validate every flag, including
	// the ones config.RegisterFlags adds, in a single pass.
	pre := pflag.NewFlagSet("backstage-sim-pre", pflag.ContinueOnError)
	pre.ParseErrorsWhitelist = pflag.ParseErrorsWhitelist{UnknownFlags: true}
	configPath := pre.String("config", "", "path to a YAML configuration file")
	_ = pre.Parse(os.Args[1:])

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "backstage-sim:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	fs := pflag.NewFlagSet("backstage-sim", pflag.ContinueOnError)
	fs.String("config", *configPath, "path to a YAML configuration file")
	clipIndex := fs.Int("clip", 0, "index of the simulation clip to play, per --list")
	list := fs.Bool("list", false, "print the available simulation clips and exit")
	config.RegisterFlags(fs, &cfg)
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "backstage-sim:", err)
		os.Exit(1)
	}

	if cfg.SimulationAssetPath == "" {
		fmt.Fprintln(os.Stderr, "backstage-sim: --simulation-path is required")
		os.Exit(1)
	}

	engine := backstage.New(cfg)

	descriptions, err := engine.GetSimulationInfo(cfg.SimulationAssetPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "backstage-sim:", err)
		os.Exit(1)
	}

	if *list {
		for i, d := range descriptions {
			fmt.Printf("%d: %s\n", i, d)
		}
		return
	}

	if *clipIndex < 0 || *clipIndex >= len(descriptions) {
		fmt.Fprintf(os.Stderr, "backstage-sim: clip index %d out of range (0..%d)\n", *clipIndex, len(descriptions)-1)
		os.Exit(1)
	}

	result := engine.Initialise()
	if !result.Success {
		fmt.Fprintln(os.Stderr, "backstage-sim: initialise failed")
		os.Exit(1)
	}
	defer engine.Shutdown()

	engine.SetSimulation(true, *clipIndex)

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
				fmt.Printf("sim=%v rate=%d count=%d\n", frame.SimulationRunning, frame.CurrentSampleRate, frame.AudioCount)
			}
		}
	}
}
