package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Default_DisablesAutosaveAndMonitor(t *testing.T) {
	var cfg = Default()

	assert.Zero(t, cfg.AutoSaveMinutes)
	assert.Equal(t, MonitorOff, cfg.Monitor)
	assert.EqualValues(t, 48000, cfg.RequestedSampleRate)
}

func Test_Load_MissingFileReturnsDefault(t *testing.T) {
	var cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func Test_Load_ReadsYamlFields(t *testing.T) {
	var dir = t.TempDir()
	var path = filepath.Join(dir, "config.yaml")

	var contents = "file_destination: /recordings\nautosave_minutes: 5\nrequested_sample_rate: 192000\nlocal_time: true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	var cfg, err = Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/recordings", cfg.FileDestination)
	assert.EqualValues(t, 5, cfg.AutoSaveMinutes)
	assert.EqualValues(t, 192000, cfg.RequestedSampleRate)
	assert.True(t, cfg.LocalTime)
}

func Test_RegisterFlags_OverridesConfigFields(t *testing.T) {
	var cfg = Default()
	var fs = pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, &cfg)

	require.NoError(t, fs.Parse([]string{"--sample-rate=384000", "--high-default-rate", "--destination=/tmp/out"}))

	assert.EqualValues(t, 384000, cfg.RequestedSampleRate)
	assert.True(t, cfg.HighDefaultSampleRate)
	assert.Equal(t, "/tmp/out", cfg.FileDestination)
}
