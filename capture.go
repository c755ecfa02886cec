package backstage

import (
	"time"

	"github.com/audiomoth/backstage/internal/autosave"
	"github.com/audiomoth/backstage/internal/device"
	"github.com/audiomoth/backstage/internal/ring"
	"github.com/audiomoth/backstage/internal/xtime"
)

// onCaptureData is the data callback handed to the active capture
// AudioDevice. It implements the restart handshake of spec.md §4.1: the
// first callback after a restart observes !started, re-stamps the ring's
// epoch and only then flips started=true for the Supervisor's spin-wait
// to observe.
func (e *Engine) onCaptureData(samples []int16, inputRate int32) {
	e.stopStartMu.Lock()
	needsRestart := !e.started
	e.stopStartMu.Unlock()

	if needsRestart {
		e.beginCaptureEpoch()
	}

	e.deviceMu.Lock()
	currentRate := e.deviceState.CurrentRate
	e.deviceMu.Unlock()

	e.audioBufferMu.Lock()
	writeIndex := e.writeIndex
	e.audioBufferMu.Unlock()

	increment := e.resampler.Process(samples, writeIndex, float64(inputRate), float64(currentRate))

	e.audioBufferMu.Lock()
	size := int32(len(e.audioBuffer))
	e.writeIndex = (e.writeIndex + increment) % size
	e.sampleCount += int64(increment)
	e.autosaveSampleCount += int64(increment)
	e.audioBufferMu.Unlock()
}

// beginCaptureEpoch resets the resampler's interpolation state and
// re-stamps the ring's epoch start time/count, then emits the
// autosave Start/Restart event for this epoch before flipping started.
func (e *Engine) beginCaptureEpoch() {
	e.resampler.Reset()

	epochStartTimeMs := xtime.GetMillisecondUTC()

	e.audioBufferMu.Lock()
	e.startTimeMs = epochStartTimeMs
	e.autosaveStartTime = epochStartTimeMs
	e.autosaveStartSampleCount = e.autosaveSampleCount
	writeIndex := e.writeIndex
	epochStartCount := e.autosaveStartSampleCount
	e.audioBufferMu.Unlock()

	e.emitAutosaveEvent(epochStartTimeMs, epochStartCount, writeIndex, epochStartCount)

	e.stopStartMu.Lock()
	e.started = true
	e.stopStartMu.Unlock()
}

// emitAutosaveEvent queues a Start event (the first time autosave is
// live for this epoch) or a Restart event (every subsequent capture
// restart while autosave remains enabled), matching the capture
// callback's half of AutosaveEvent production in spec.md §4.4.
func (e *Engine) emitAutosaveEvent(epochStartTimeMs, epochStartCount int64, currentIndex int32, currentCount int64) {
	e.autosaveMu.Lock()
	enabled := e.autosaveMinutes > 0
	e.autosaveMu.Unlock()

	if !enabled {
		return
	}

	e.deviceMu.Lock()
	rate := e.deviceState.CurrentRate
	label := e.deviceState.DeviceCommentLabel
	e.deviceMu.Unlock()

	kind := e.takeAutosaveEventKind()

	e.queue.AddEvent(autosave.Event{
		Type:                   kind,
		SampleRate:             rate,
		CurrentIndex:           currentIndex,
		CurrentCount:           currentCount,
		StartTime:              epochStartTimeMs,
		StartCount:             epochStartCount,
		InputDeviceCommentName: label,
	})
}

// takeAutosaveEventKind returns Start the first time it's called since
// autosave was last (re-)enabled, and Restart on every call after.
func (e *Engine) takeAutosaveEventKind() autosave.EventType {
	e.autosaveMu.Lock()
	defer e.autosaveMu.Unlock()

	if !e.hasEmittedStart {
		e.hasEmittedStart = true
		return autosave.Start
	}
	return autosave.Restart
}

// stopCapture halts the active capture device and blocks (up to
// transitionTimeout) for its last callback to finish, matching the
// Supervisor transition's stop-then-spin-wait shape.
func (e *Engine) stopCapture() {
	e.deviceMu.Lock()
	dev := e.captureDevice
	e.deviceMu.Unlock()

	if dev == nil {
		return
	}

	e.stopStartMu.Lock()
	e.stopped = false
	e.stopStartMu.Unlock()

	if err := dev.Stop(); err != nil {
		e.logComponent("capture").Warn("stop capture device", "error", err)
	}
	_ = dev.Close()

	e.stopStartMu.Lock()
	e.stopped = true
	e.stopStartMu.Unlock()

	e.spinWait(func() bool {
		e.stopStartMu.Lock()
		defer e.stopStartMu.Unlock()
		return e.stopped
	})
}

// startCapture opens and starts dev as the new capture producer, resets
// the ring write cursor to a 512-sample boundary, and spin-waits for the
// restart handshake's started flag.
func (e *Engine) startCapture(dev device.AudioDevice, sampleRate int32) error {
	e.stopStartMu.Lock()
	e.started = false
	e.stopStartMu.Unlock()

	if err := dev.Open(sampleRate, int(sampleRate/100)); err != nil {
		return err
	}

	e.audioBufferMu.Lock()
	e.sampleCount = 0
	e.writeIndex -= e.writeIndex % ring.BlockSamples
	e.audioBufferMu.Unlock()

	e.deviceMu.Lock()
	e.captureDevice = dev
	e.timeDeviceStarted = time.Now()
	e.deviceMu.Unlock()

	if err := dev.Start(); err != nil {
		return err
	}

	e.spinWait(func() bool {
		e.stopStartMu.Lock()
		defer e.stopStartMu.Unlock()
		return e.started
	})

	return nil
}

func (e *Engine) spinWait(condition func() bool) bool {
	deadline := time.Now().Add(transitionTimeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(time.Millisecond)
	}

	e.logComponent("supervisor").Warn("state transition timed out")
	return false
}
