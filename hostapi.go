package backstage

import (
	"fmt"

	"github.com/audiomoth/backstage/internal/device"
	"github.com/audiomoth/backstage/internal/simulation"
	"github.com/audiomoth/backstage/internal/xtime"
)

// InitResult is returned by Initialise: the two ring buffers the host
// should treat as shared, host-visible typed arrays, plus whether startup
// succeeded.
type InitResult struct {
	Success    bool
	AudioBuffer []int16
	STFTBuffer  []float32
}

// Initialise allocates the engine's buffers (already done by New),
// starts the background loop, and brings up the default capture device.
// Matching spec.md §6, a device-open failure is reported as
// Success: false rather than returned as an error; the next GetFrame
// retries on any state change.
func (e *Engine) Initialise() InitResult {
	e.startBackgroundLoop()

	e.audioBufferMu.Lock()
	e.startTimeMs = xtime.GetMillisecondUTC()
	e.audioBufferMu.Unlock()

	infos, err := device.Enumerate()
	found, info := false, device.Info{}
	if err == nil {
		for _, i := range infos {
			if i.IsAudioMoth {
				found, info = true, i
				break
			}
		}
	}

	e.restartCapture(info, found)

	e.stopStartMu.Lock()
	started := e.started
	e.stopStartMu.Unlock()

	return InitResult{Success: started, AudioBuffer: e.audioBuffer, STFTBuffer: e.stftBuffer}
}

// Shutdown stops every background activity; it is not part of the host
// API surface proper but is provided for clean process teardown in the
// demo binaries.
func (e *Engine) Shutdown() {
	e.stopBackgroundLoop()
	e.stopCapture()
	e.simMu.Lock()
	driver := e.simDriver
	e.simMu.Unlock()
	if driver != nil {
		driver.Stop()
	}
}

// ChangeSampleRate updates the host-requested capture rate. Invalid rates
// (not one of the eight accepted values) are silently ignored, matching
// spec.md §6.
func (e *Engine) ChangeSampleRate(rate int32) {
	if !device.IsValidRate(rate) {
		return
	}

	e.requestMu.Lock()
	e.requestedRate = rate
	e.requestMu.Unlock()
}

// Clear zeroes the ring's sample count and re-stamps its start time to
// now, forcing a redraw on the next frame.
func (e *Engine) Clear() {
	e.audioBufferMu.Lock()
	e.sampleCount = 0
	e.startTimeMs = xtime.GetMillisecondUTC()
	e.audioBufferMu.Unlock()

	e.redrawRequired = true
}

// Capture clamps durationSeconds to [0,60], snapshots the ring and spawns
// a background WAV write job, invoking done with the outcome.
func (e *Engine) Capture(durationSeconds int, done func(success bool)) {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	if durationSeconds > captureBufferSeconds {
		durationSeconds = captureBufferSeconds
	}

	snap := e.snapshot()

	go func() {
		success := e.writeClip(snap, durationSeconds)
		if done != nil {
			done(success)
		}
	}()
}

// PauseResult is returned by SetPause when pausing (enable==true): the
// frozen cursor values the host should read instead of live ones.
type PauseResult struct {
	Paused      bool
	AudioTimeMs int64
	AudioIndex  int32
	AudioCount  int64
}

// SetPause freezes (or releases) the Supervisor's live reads. On the
// false->true edge a CaptureSnapshot is taken as if for a
// durationSeconds-long clip; on true->false it is discarded and a redraw
// is forced.
func (e *Engine) SetPause(enable bool, durationSeconds int) PauseResult {
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()

	if enable && !e.paused {
		e.paused = true
		e.pausedSnap = e.snapshot()
	} else if !enable && e.paused {
		e.paused = false
		e.redrawRequired = true
	}

	if !e.paused {
		return PauseResult{}
	}

	return PauseResult{
		Paused:      true,
		AudioTimeMs: e.pausedSnap.StartTimeMs + roundedMillis(e.pausedSnap.SampleCount, e.pausedSnap.SampleRate),
		AudioIndex:  e.pausedSnap.WriteIndex,
		AudioCount:  e.pausedSnap.SampleCount,
	}
}

// SetFileDestination updates the directory autosave and clip recordings
// are written under.
func (e *Engine) SetFileDestination(path string) {
	e.fileDestinationMu.Lock()
	e.fileDestination = path
	e.fileDestinationSet = path != ""
	e.fileDestinationMu.Unlock()
}

// SetAutoSaveCallback registers the callback invoked from the background
// loop whenever an autosave WAV write fails.
func (e *Engine) SetAutoSaveCallback(cb func()) {
	e.autosaveMu.Lock()
	e.autosaveErrorCB = cb
	e.autosaveMu.Unlock()
}

// SetAutoSave starts, updates or stops the autosave subsystem. 0 disables
// it; a positive value is the per-file duration in minutes. Calling this
// twice with the same value is a no-op after the first, matching spec.md
// §8's idempotence property.
func (e *Engine) SetAutoSave(minutes int32) {
	e.autosaveMu.Lock()
	previous := e.autosaveMinutes
	if previous == minutes {
		e.autosaveMu.Unlock()
		return
	}
	e.autosaveMinutes = minutes
	e.stateMachine.SetDurationMinutes(minutes)

	turningOn := previous == 0 && minutes > 0
	turningOff := previous > 0 && minutes == 0
	if turningOn {
		e.hasEmittedStart = false
	}
	if turningOff {
		e.hasEmittedStart = false
	}
	e.autosaveMu.Unlock()

	e.stopStartMu.Lock()
	running := e.started
	e.stopStartMu.Unlock()

	switch {
	case turningOn && running:
		snap := e.snapshot()
		e.emitAutosaveEvent(snap.StartTimeMs, snap.SampleCount, snap.WriteIndex, snap.SampleCount)
	case turningOff:
		e.enqueueStop()
	}
}

func (e *Engine) enqueueStop() {
	snap := e.snapshot()

	e.deviceMu.Lock()
	rate := e.deviceState.CurrentRate
	label := e.deviceState.DeviceCommentLabel
	e.deviceMu.Unlock()

	e.queue.AddEvent(autosaveStopEvent(rate, snap.WriteIndex, snap.SampleCount, label))
}

// GetSimulationInfo lists the descriptions of the WAV clips bundled
// beneath assetPath, for the host's simulation-selection UI.
func (e *Engine) GetSimulationInfo(assetPath string) ([]string, error) {
	e.requestMu.Lock()
	e.simAssetPath = assetPath
	e.requestMu.Unlock()

	descriptions, err := simulation.Describe(assetPath)
	if err != nil {
		return nil, fmt.Errorf("get simulation info: %w", err)
	}
	return descriptions, nil
}

// SetSimulation requests that the supervisor start (enable==true, with
// the given clip index) or stop simulation on its next GetFrame call.
// When enabling, it returns false without recording the request if the
// asset path last passed to GetSimulationInfo lists no clip at index; if
// that directory cannot be listed the request is recorded and true is
// returned, and a load failure on the next GetFrame is logged.
func (e *Engine) SetSimulation(enable bool, index int) bool {
	e.requestMu.Lock()
	defer e.requestMu.Unlock()

	if enable {
		descriptions, err := simulation.Describe(e.simAssetPath)
		if err == nil && (index < 0 || index >= len(descriptions)) {
			return false
		}
	}

	e.requestedSimOn = enable
	e.requestedSimIndex = index

	return true
}

// SetMonitor selects plain playthrough, heterodyne monitoring, or no
// monitoring, and (re)builds the playback device accordingly.
func (e *Engine) SetMonitor(mode MonitorMode, frequencyHz int32) {
	e.monitorMu.Lock()
	wasActive := e.monitorMode != MonitorOff
	e.monitorMode = mode
	if frequencyHz > 0 {
		e.monitorFreq = frequencyHz
	}
	e.monitorMu.Unlock()

	e.deviceMu.Lock()
	currentRate := e.deviceState.CurrentRate
	e.deviceMu.Unlock()

	e.rebuildMixer(currentRate)

	active := mode != MonitorOff

	if active && !wasActive {
		e.startPlaybackDevice()
	} else if !active && wasActive {
		e.stopPlaybackDevice()
	}
}

// SetHighDefaultSampleRate toggles the maximum default sample rate
// between 48kHz and 384kHz, taking effect on the next GetFrame.
func (e *Engine) SetHighDefaultSampleRate(enable bool) {
	e.requestMu.Lock()
	e.requestedHighRate = enable
	e.requestMu.Unlock()
}

// SetLocalTime toggles whether autosave/clip timestamps are rendered in
// local time instead of UTC.
func (e *Engine) SetLocalTime(enable bool) {
	e.localTimeMu.Lock()
	e.localTime = enable
	e.localTimeMu.Unlock()
}

// ForceAutoSaveStop enqueues a Shutdown event and blocks (up to 2s) for it
// to be fully flushed to disk.
func (e *Engine) ForceAutoSaveStop() {
	e.autosaveMu.Lock()
	e.autosaveShutdownCompleted = false
	e.autosaveMu.Unlock()

	snap := e.snapshot()

	e.deviceMu.Lock()
	rate := e.deviceState.CurrentRate
	label := e.deviceState.DeviceCommentLabel
	e.deviceMu.Unlock()

	e.queue.AddEvent(autosaveShutdownEvent(rate, snap.WriteIndex, snap.SampleCount, label))

	e.spinWait(func() bool {
		e.autosaveMu.Lock()
		defer e.autosaveMu.Unlock()
		return e.autosaveShutdownCompleted
	})
}
