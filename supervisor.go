package backstage

import (
	"math"
	"time"

	"github.com/audiomoth/backstage/internal/device"
	"github.com/audiomoth/backstage/internal/xtime"
)

// Frame is the per-tick state snapshot the host reads every UI frame
// (spec.md §6's get_frame).
type Frame struct {
	RedrawRequired    bool
	SimulationRunning bool
	OldAudiomothFound bool
	DeviceName        string
	MaximumSampleRate int32
	CurrentSampleRate int32
	AudioTimeMs       int64
	AudioIndex        int32
	AudioCount        int64
}

// GetFrame performs the Supervisor's once-per-UI-frame reconciliation
// (spec.md §4.5) and returns the resulting state snapshot. At most one
// state transition is performed per call, in priority order: device
// presence change, time mismatch/rate change, max-default-rate change,
// start-simulation, stop-simulation.
func (e *Engine) GetFrame() Frame {
	e.pauseMu.Lock()
	paused := e.paused
	frozen := e.pausedSnap
	e.pauseMu.Unlock()

	if paused {
		return e.frameFromSnapshot(frozen, false)
	}

	switch {
	case e.reconcileDevicePresence():
	case e.reconcileTimeOrRate():
	case e.reconcileMaxDefaultRate():
	case e.reconcileStartSimulation():
	case e.reconcileStopSimulation():
	}

	redraw := e.redrawRequired
	e.redrawRequired = false

	return e.frameFromSnapshot(e.snapshot(), redraw)
}

func (e *Engine) frameFromSnapshot(snap CaptureSnapshot, redraw bool) Frame {
	e.deviceMu.Lock()
	maxRate := e.deviceState.MaxDefaultRate
	name := e.deviceState.DeviceLabel
	e.deviceMu.Unlock()

	e.simMu.Lock()
	simRunning := e.simRunning
	e.simMu.Unlock()

	return Frame{
		RedrawRequired:    redraw,
		SimulationRunning: simRunning,
		OldAudiomothFound: e.takeOldAudioMothEdge(),
		DeviceName:        name,
		MaximumSampleRate: maxRate,
		CurrentSampleRate: snap.SampleRate,
		AudioTimeMs:       snap.StartTimeMs + roundedMillis(snap.SampleCount, snap.SampleRate),
		AudioIndex:        snap.WriteIndex,
		AudioCount:        snap.SampleCount,
	}
}

func roundedMillis(count int64, rate int32) int64 {
	if rate == 0 {
		return 0
	}
	return int64(math.Round(float64(count) * 1000 / float64(rate)))
}

// reconcileDevicePresence implements priority 1: a real device appeared
// or disappeared while not simulating, settled for at least 1 second
// since the last device start.
func (e *Engine) reconcileDevicePresence() bool {
	e.simMu.Lock()
	simulating := e.simRunning
	e.simMu.Unlock()

	if simulating {
		return false
	}

	e.deviceMu.Lock()
	settled := time.Since(e.timeDeviceStarted) > deviceChangeSettleSecs*time.Second
	wasAudioMoth := e.deviceState.UsingAudioMoth
	e.deviceMu.Unlock()

	if !settled {
		return false
	}

	found, info := e.lastAudioMothObservation()

	if found == wasAudioMoth {
		return false
	}

	e.restartCapture(info, found)
	return true
}

// reconcileTimeOrRate implements priority 2.
func (e *Engine) reconcileTimeOrRate() bool {
	snap := e.snapshot()

	e.requestMu.Lock()
	requestedRate := e.requestedRate
	e.requestMu.Unlock()

	mismatch := snap.SampleRate != 0 &&
		absInt64(xtime.GetMillisecondUTC()-(snap.StartTimeMs+roundedMillis(snap.SampleCount, snap.SampleRate))) > timeMismatchToleranceMs

	rateChanged := requestedRate != 0 && requestedRate != snap.SampleRate

	if !mismatch && !rateChanged {
		return false
	}

	e.deviceMu.Lock()
	info := device.Info{Name: e.deviceState.DeviceLabel, IsAudioMoth: e.deviceState.UsingAudioMoth}
	e.deviceMu.Unlock()

	e.restartCapture(info, info.IsAudioMoth)
	return true
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// reconcileMaxDefaultRate implements priority 3: a host toggle of the
// high-default-sample-rate flag that doesn't by itself require a capture
// restart, only a republished maximum rate (and a restart if the live
// rate now exceeds it).
func (e *Engine) reconcileMaxDefaultRate() bool {
	e.requestMu.Lock()
	requestedHigh := e.requestedHighRate
	e.requestMu.Unlock()

	wantMax := int32(48000)
	if requestedHigh {
		wantMax = maximumSampleRateHz
	}

	e.deviceMu.Lock()
	changed := e.deviceState.MaxDefaultRate != wantMax
	if changed {
		e.deviceState.MaxDefaultRate = wantMax
	}
	currentRate := e.deviceState.CurrentRate
	e.deviceMu.Unlock()

	if !changed {
		return false
	}

	e.redrawRequired = true

	if currentRate > wantMax {
		e.deviceMu.Lock()
		info := device.Info{Name: e.deviceState.DeviceLabel, IsAudioMoth: e.deviceState.UsingAudioMoth}
		e.deviceMu.Unlock()
		e.restartCapture(info, info.IsAudioMoth)
		return true
	}

	return true
}

// reconcileStartSimulation implements priority 4.
func (e *Engine) reconcileStartSimulation() bool {
	e.requestMu.Lock()
	wantSim := e.requestedSimOn
	index := e.requestedSimIndex
	assetPath := e.simAssetPath
	e.requestMu.Unlock()

	e.simMu.Lock()
	running := e.simRunning
	e.simMu.Unlock()

	if !wantSim || running {
		return false
	}

	if err := e.startSimulation(assetPath, index); err != nil {
		e.logComponent("supervisor").Warn("start simulation", "error", err)
		e.requestMu.Lock()
		e.requestedSimOn = false
		e.requestMu.Unlock()
		return false
	}

	e.redrawRequired = true
	return true
}

// reconcileStopSimulation implements priority 5.
func (e *Engine) reconcileStopSimulation() bool {
	e.requestMu.Lock()
	wantSim := e.requestedSimOn
	e.requestMu.Unlock()

	e.simMu.Lock()
	running := e.simRunning
	e.simMu.Unlock()

	if wantSim || !running {
		return false
	}

	e.stopSimulation()
	e.redrawRequired = true
	return true
}

// restartCapture performs the full stop/start transition shared by
// priorities 1-3: stop the current producer, reset cursors, start the new
// one, and if autosave is active enqueue a Restart event for it via the
// capture callback's own restart handshake.
func (e *Engine) restartCapture(info device.Info, useAudioMoth bool) {
	e.stopCapture()

	rate := e.selectSampleRate(info, useAudioMoth)

	e.deviceMu.Lock()
	e.deviceState.UsingAudioMoth = useAudioMoth
	e.deviceState.CurrentRate = rate
	e.deviceState.InputRate = rate
	if useAudioMoth {
		e.deviceState.DeviceLabel = info.Name
		e.deviceState.DeviceCommentLabel = info.Name
		if info.NativeRateHz != 0 {
			e.deviceState.InputRate = info.NativeRateHz
		}
	} else {
		e.deviceState.DeviceLabel = "default"
		e.deviceState.DeviceCommentLabel = "default audio input"
	}
	inputRate := e.deviceState.InputRate
	e.deviceMu.Unlock()

	e.rebuildMixer(rate)

	e.playbackMu.Lock()
	e.playbackReadIndex = e.writeIndex
	e.playbackMu.Unlock()

	var dev device.AudioDevice
	if useAudioMoth {
		dev = device.NewPortAudioCapture(info.Name, func(samples []int16) { e.onCaptureData(samples, inputRate) })
	} else {
		dev = device.NewPortAudioCapture("", func(samples []int16) { e.onCaptureData(samples, inputRate) })
	}

	if err := e.startCapture(dev, inputRate); err != nil {
		e.logComponent("supervisor").Error("start capture device", "error", err)
	}

	e.redrawRequired = true
}

// selectSampleRate picks the current rate as the min of the requested rate
// and the device's native rate (or the max default rate for non-AudioMoth
// inputs), matching the GLOSSARY's "Current rate" definition.
func (e *Engine) selectSampleRate(info device.Info, useAudioMoth bool) int32 {
	e.requestMu.Lock()
	requested := e.requestedRate
	e.requestMu.Unlock()

	e.deviceMu.Lock()
	maxDefault := e.deviceState.MaxDefaultRate
	e.deviceMu.Unlock()

	if requested == 0 {
		requested = 48000
	}

	ceiling := maxDefault
	if useAudioMoth && info.NativeRateHz != 0 && info.NativeRateHz < ceiling {
		ceiling = info.NativeRateHz
	}

	if requested > ceiling {
		return ceiling
	}
	return requested
}

// takeOldAudioMothEdge reports true only on the first GetFrame call after
// the background probe (re)detects a legacy device, matching §4's
// edge-triggered "old AudioMoth" notification.
func (e *Engine) takeOldAudioMothEdge() bool {
	e.backgroundMu.Lock()
	defer e.backgroundMu.Unlock()

	found := e.lastOldAudioMothFound

	edge := found && !e.oldAudioMothLatched
	e.oldAudioMothLatched = found

	return edge
}

// lastAudioMothObservation returns the background probe's most recent
// current-generation AudioMoth sighting.
func (e *Engine) lastAudioMothObservation() (bool, device.Info) {
	e.backgroundMu.Lock()
	defer e.backgroundMu.Unlock()
	return e.lastAudioMothFound, e.lastAudioMothInfo
}
