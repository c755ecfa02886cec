package backstage

import (
	"time"

	"github.com/audiomoth/backstage/internal/device"
)

// startBackgroundLoop launches the 4Hz probe+pump goroutine of spec.md §4
// item 11: device enumeration refreshing the Supervisor's cached
// observations, followed by draining the autosave event queue.
func (e *Engine) startBackgroundLoop() {
	e.backgroundStop = make(chan struct{})
	e.backgroundDone = make(chan struct{})

	go e.backgroundLoop()
}

func (e *Engine) stopBackgroundLoop() {
	if e.backgroundStop == nil {
		return
	}
	close(e.backgroundStop)
	<-e.backgroundDone
}

func (e *Engine) backgroundLoop() {
	defer close(e.backgroundDone)

	ticker := time.NewTicker(backgroundPumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.backgroundStop:
			return
		case <-ticker.C:
			e.probeDevices()
			e.pumpAutosave()
		}
	}
}

// probeDevices refreshes the cached enumeration state the Supervisor
// reads every frame; it never itself restarts capture (that's the
// Supervisor's job on the next GetFrame call).
func (e *Engine) probeDevices() {
	infos, err := device.Enumerate()
	if err != nil {
		e.logComponent("background").Debug("device enumeration failed", "error", err)
		return
	}

	var foundAudioMoth bool
	var audioMothInfo device.Info
	var foundOld bool

	for _, i := range infos {
		if i.IsAudioMoth && !foundAudioMoth {
			foundAudioMoth = true
			audioMothInfo = i
		}
		if i.IsOld {
			foundOld = true
		}
	}

	e.backgroundMu.Lock()
	e.lastAudioMothFound = foundAudioMoth
	e.lastAudioMothInfo = audioMothInfo
	e.lastOldAudioMothFound = foundOld
	e.backgroundMu.Unlock()
}

// pumpAutosave drains the autosave event queue through the state
// machine and reports any write failure through the host's error
// callback, matching backgroundThreadBody's autosave_error dispatch.
func (e *Engine) pumpAutosave() {
	e.autosaveMu.Lock()
	minutes := e.autosaveMinutes
	e.stateMachine.SetDurationMinutes(minutes)
	e.autosaveMu.Unlock()

	e.audioBufferMu.Lock()
	currentCount := e.autosaveSampleCount
	e.audioBufferMu.Unlock()

	success := e.stateMachine.ProcessEvents(currentCount)

	e.autosaveMu.Lock()
	e.autosaveShutdownCompleted = e.stateMachine.ShutdownCompleted()
	cb := e.autosaveErrorCB
	e.autosaveMu.Unlock()

	if !success && cb != nil {
		cb()
	}
}
