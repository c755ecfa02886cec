package backstage

import (
	"math"

	"github.com/audiomoth/backstage/internal/device"
	"github.com/audiomoth/backstage/internal/heterodyne"
)

const playbackSampleRateHz = 48000

// startPlaybackDevice opens and starts the fixed 48kHz monitoring output
// device, used whenever the host enables playthrough or heterodyne
// monitoring.
func (e *Engine) startPlaybackDevice() {
	e.playbackMu.Lock()
	if e.playbackDevice != nil {
		e.playbackMu.Unlock()
		return
	}

	dev := device.NewPortAudioPlayback(e.onPlaybackData)
	e.playbackDevice = dev
	e.playbackReadIndex = e.writeIndex
	e.playbackMu.Unlock()

	if err := dev.Open(playbackSampleRateHz, playbackSampleRateHz/100); err != nil {
		e.logComponent("playback").Warn("open playback device", "error", err)
		return
	}

	if err := dev.Start(); err != nil {
		e.logComponent("playback").Warn("start playback device", "error", err)
	}
}

// stopPlaybackDevice halts and releases the monitoring output device.
func (e *Engine) stopPlaybackDevice() {
	e.playbackMu.Lock()
	dev := e.playbackDevice
	e.playbackDevice = nil
	e.playbackMu.Unlock()

	if dev == nil {
		return
	}

	_ = dev.Stop()
	_ = dev.Close()
}

// onPlaybackData is the data callback handed to the monitoring playback
// AudioDevice. It runs the lag-regulated interpolator of spec.md §4.2
// against the live ring cursor and publishes lag/starvation feedback for
// the simulation driver to read.
func (e *Engine) onPlaybackData(out []int16) {
	e.audioBufferMu.Lock()
	writeIndex := e.writeIndex
	e.audioBufferMu.Unlock()

	e.deviceMu.Lock()
	currentRate := e.deviceState.CurrentRate
	e.deviceMu.Unlock()

	if currentRate == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}

	e.playbackMu.Lock()
	readIndex := e.playbackReadIndex
	mixer := e.mixer
	interpolator := e.interpolator
	e.playbackMu.Unlock()

	result := interpolator.Process(e.audioBuffer, writeIndex, readIndex, currentRate, mixer, out)

	e.playbackMu.Lock()
	e.playbackReadIndex = result.ReadIndex
	if result.BufferLag < e.minimumPlaybackBufferLag {
		e.minimumPlaybackBufferLag = result.BufferLag
	}
	e.playbackBufferCount += result.BufferCountIncrement
	e.playbackMu.Unlock()
}

// takeAndResetMinimumLag latches the minimum playback buffer lag observed
// since the last call and resets the running minimum back to its "nothing
// observed yet" sentinel, mirroring simulationThreadBody's once-a-second
// "bufferLag = minimumPlaybackBufferLag; minimumPlaybackBufferLag =
// INT32_MAX" pair. Called once per second by the simulation driver so each
// second paces against that second's own minimum rather than the lowest
// lag ever observed.
func (e *Engine) takeAndResetMinimumLag() int32 {
	e.playbackMu.Lock()
	defer e.playbackMu.Unlock()
	lag := e.minimumPlaybackBufferLag
	e.minimumPlaybackBufferLag = math.MaxInt32
	return lag
}

// takeBurstTicks reads and zeroes the starvation-triggered burst counter,
// matching playback_buffer_count's single-consumer drain in
// simulationThreadBody.
func (e *Engine) takeBurstTicks() int32 {
	e.playbackMu.Lock()
	defer e.playbackMu.Unlock()
	n := e.playbackBufferCount
	e.playbackBufferCount = 0
	return n
}

// rebuildMixer (re)creates the heterodyne mixer for the current monitor
// frequency and sample rate, or clears it when heterodyne monitoring is
// not requested.
func (e *Engine) rebuildMixer(sampleRate int32) {
	e.monitorMu.Lock()
	mode := e.monitorMode
	freq := e.monitorFreq
	e.monitorMu.Unlock()

	e.playbackMu.Lock()
	defer e.playbackMu.Unlock()

	if mode != MonitorHeterodyne || sampleRate == 0 {
		e.mixer = nil
		return
	}

	if e.mixer == nil {
		e.mixer = heterodyne.NewMixer(uint32(sampleRate), freq)
		return
	}

	e.mixer.UpdateFrequencies(uint32(sampleRate), freq)
}

// monitorActive reports whether the current monitor mode requires the
// playback device to be running at all.
func (e *Engine) monitorActive() bool {
	e.monitorMu.Lock()
	defer e.monitorMu.Unlock()
	return e.monitorMode != MonitorOff
}
