package simulation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiomoth/backstage/internal/wavfile"
)

func writeTestClip(t *testing.T, dir, name string, sampleRate uint32, samples []int16) string {
	t.Helper()

	var header = wavfile.NewHeader()
	header.SetDetails(sampleRate, int64(len(samples)))

	var path = filepath.Join(dir, name)
	require.True(t, wavfile.WriteFile(header, path, samples, nil))

	return path
}

func Test_Describe_ListsWavFilesSortedWithoutExtension(t *testing.T) {
	var dir = t.TempDir()
	writeTestClip(t, dir, "bat_call.wav", 384000, []int16{1, 2, 3})
	writeTestClip(t, dir, "aardvark.wav", 384000, []int16{1})

	var descriptions, err = Describe(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"aardvark", "bat_call"}, descriptions)
}

func Test_Load_ReadsSamplesAndSampleRate(t *testing.T) {
	var dir = t.TempDir()
	var samples = []int16{100, -200, 300, -400}
	writeTestClip(t, dir, "clip.wav", 48000, samples)

	var clip, err = Load(dir, 0)
	require.NoError(t, err)

	assert.Equal(t, "clip", clip.Description)
	assert.EqualValues(t, 48000, clip.SampleRate)
	assert.Equal(t, samples, clip.Samples)
}

func Test_Load_OutOfRangeIndexFails(t *testing.T) {
	var dir = t.TempDir()
	writeTestClip(t, dir, "clip.wav", 48000, []int16{1})

	_, err := Load(dir, 5)
	assert.Error(t, err)
}

func Test_Describe_IgnoresNonWavFiles(t *testing.T) {
	var dir = t.TempDir()
	writeTestClip(t, dir, "clip.wav", 48000, []int16{1})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("notes"), 0o644))

	var descriptions, err = Describe(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"clip"}, descriptions)
}
