// Package config implements backstage's ambient configuration layer: a
// small on-disk YAML default file, loaded once at startup, with CLI flags
// that override individual fields. This mirrors the teacher's
// src/config.go "load once at startup, mutate via later calls" shape, but
// the option surface here is the one the host API actually exposes:
// destination directory, autosave interval, requested sample rate, monitor
// mode and the local-time display flag.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// MonitorMode mirrors the host API's monitor enumeration (spec.md §6).
type MonitorMode int

const (
	MonitorOff MonitorMode = iota
	MonitorPlaythrough
	MonitorHeterodyne
)

// Config holds the small set of settings backstage loads at startup and
// that the host can subsequently override through the live host API.
type Config struct {
	FileDestination      string      `yaml:"file_destination"`
	AutoSaveMinutes      int32       `yaml:"autosave_minutes"`
	RequestedSampleRate  int32       `yaml:"requested_sample_rate"`
	HighDefaultSampleRate bool       `yaml:"high_default_sample_rate"`
	Monitor              MonitorMode `yaml:"-"`
	MonitorFrequencyHz   int32       `yaml:"monitor_frequency_hz"`
	LocalTime            bool        `yaml:"local_time"`
	SimulationAssetPath  string      `yaml:"simulation_asset_path"`
}

// Default returns the configuration backstage boots with when no on-disk
// file is present: autosave disabled, 48kHz requested rate, monitor off.
func Default() Config {
	return Config{
		AutoSaveMinutes:     0,
		RequestedSampleRate: 48000,
		Monitor:             MonitorOff,
		MonitorFrequencyHz:  45000,
		LocalTime:           false,
	}
}

// Load reads a YAML configuration file, falling back to Default values for
// any field the file does not set. A missing file is not an error: it
// simply yields Default().
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// RegisterFlags binds CLI flags on fs that override cfg's fields, matching
// the teacher's cmd/ entrypoints which all build a pflag.FlagSet and parse
// it over a baseline config (cmd/direwolf/main.go, src/atest.go).
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.FileDestination, "destination", cfg.FileDestination, "directory autosave and clip recordings are written to")
	fs.Int32Var(&cfg.AutoSaveMinutes, "autosave-minutes", cfg.AutoSaveMinutes, "autosave file duration in minutes (0 disables)")
	fs.Int32Var(&cfg.RequestedSampleRate, "sample-rate", cfg.RequestedSampleRate, "requested capture sample rate in Hz")
	fs.BoolVar(&cfg.HighDefaultSampleRate, "high-default-rate", cfg.HighDefaultSampleRate, "use 384kHz as the default max sample rate instead of 48kHz")
	fs.Int32Var(&cfg.MonitorFrequencyHz, "heterodyne-frequency", cfg.MonitorFrequencyHz, "heterodyne carrier frequency in Hz")
	fs.BoolVar(&cfg.LocalTime, "local-time", cfg.LocalTime, "display timestamps in local time instead of UTC")
	fs.StringVar(&cfg.SimulationAssetPath, "simulation-path", cfg.SimulationAssetPath, "directory of WAV files used for simulation playback")
}
