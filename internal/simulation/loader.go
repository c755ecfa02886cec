// Package simulation implements the simulated-device driver of spec.md
// §4.7: a preloaded mono 16-bit WAV file replayed into the capture
// callback at the cadence a real device would deliver it, paced by
// playback lag feedback. Grounded on simulator.c in
// _examples/original_source/backstage, which is a small self-contained
// scan for the "data" chunk rather than a full RIFF parser, and on the
// same pacing loop shape as backstage.c's simulationThreadBody.
package simulation

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Clip holds one simulation bundle entry: its display description and its
// preloaded mono 16-bit samples.
type Clip struct {
	Description string
	Path        string
	SampleRate  int32
	Samples     []int16
}

// Describe lists the WAV files beneath assetPath, sorted by name, without
// loading their sample data; this backs get_simulation_info, which only
// needs descriptions for the host's selection UI.
func Describe(assetPath string) ([]string, error) {
	entries, err := os.ReadDir(assetPath)
	if err != nil {
		return nil, fmt.Errorf("read simulation asset path %s: %w", assetPath, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}

	sort.Strings(names)

	return names, nil
}

// Load reads the index'th WAV file beneath assetPath (in the same sorted
// order Describe returns) into memory.
func Load(assetPath string, index int) (Clip, error) {
	entries, err := os.ReadDir(assetPath)
	if err != nil {
		return Clip{}, fmt.Errorf("read simulation asset path %s: %w", assetPath, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.TrimSuffix(names[i], filepath.Ext(names[i])) < strings.TrimSuffix(names[j], filepath.Ext(names[j]))
	})

	if index < 0 || index >= len(names) {
		return Clip{}, fmt.Errorf("simulation index %d out of range (%d available)", index, len(names))
	}

	path := filepath.Join(assetPath, names[index])

	samples, sampleRate, err := readWav(path)
	if err != nil {
		return Clip{}, err
	}

	return Clip{
		Description: strings.TrimSuffix(names[index], filepath.Ext(names[index])),
		Path:        path,
		SampleRate:  sampleRate,
		Samples:     samples,
	}, nil
}

// readWav is a minimal mono 16-bit PCM WAV reader: it scans the RIFF
// chunk list for "fmt " (to recover the sample rate) and "data" (the
// sample payload), ignoring any other chunk (LIST/INFO comments, padding,
// etc). It deliberately does not validate the full RIFF structure, matching
// simulator.c's own narrow scan-for-chunks approach.
func readWav(path string) ([]int16, int32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read simulation wav %s: %w", path, err)
	}

	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("%s is not a RIFF/WAVE file", path)
	}

	var sampleRate int32
	var samples []int16

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size >= 16 {
				sampleRate = int32(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			}
		case "data":
			samples = make([]int16, size/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(data[body+2*i : body+2*i+2]))
			}
		}

		offset = body + size
		if size%2 == 1 {
			offset++
		}
	}

	if samples == nil {
		return nil, 0, fmt.Errorf("%s has no data chunk", path)
	}
	if sampleRate == 0 {
		return nil, 0, fmt.Errorf("%s has no fmt chunk", path)
	}

	return samples, sampleRate, nil
}
