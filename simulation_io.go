package backstage

import (
	"fmt"

	"github.com/audiomoth/backstage/internal/simulation"
)

// startSimulation loads the requested clip and replaces the capture
// producer with the simulation driver (spec.md §4.7), using the same
// restart handshake as a real device swap.
func (e *Engine) startSimulation(assetPath string, index int) error {
	clip, err := simulation.Load(assetPath, index)
	if err != nil {
		return fmt.Errorf("load simulation clip: %w", err)
	}

	e.stopCapture()

	e.deviceMu.Lock()
	e.deviceState.UsingAudioMoth = false
	e.deviceState.CurrentRate = e.selectSimulationRate(clip.SampleRate)
	e.deviceState.InputRate = clip.SampleRate
	e.deviceState.DeviceLabel = clip.Description
	e.deviceState.DeviceCommentLabel = clip.Description
	currentRate := e.deviceState.CurrentRate
	e.deviceMu.Unlock()

	e.rebuildMixer(currentRate)

	e.playbackMu.Lock()
	e.playbackReadIndex = e.writeIndex
	e.playbackMu.Unlock()

	e.stopStartMu.Lock()
	e.started = false
	e.stopStartMu.Unlock()

	e.audioBufferMu.Lock()
	e.sampleCount = 0
	e.audioBufferMu.Unlock()

	driver := simulation.New(clip, simulation.Feedback{
		TakeMinimumLag: e.takeAndResetMinimumLag,
		TakeBurstTicks: e.takeBurstTicks,
	}, func(samples []int16) { e.onCaptureData(samples, clip.SampleRate) })

	e.simMu.Lock()
	e.simDriver = driver
	e.simRunning = true
	e.simMu.Unlock()

	driver.Run()

	e.spinWait(func() bool {
		e.stopStartMu.Lock()
		defer e.stopStartMu.Unlock()
		return e.started
	})

	return nil
}

// stopSimulation halts the simulation driver and leaves the ring with no
// live producer until the next Supervisor transition starts one.
func (e *Engine) stopSimulation() {
	e.simMu.Lock()
	driver := e.simDriver
	e.simDriver = nil
	e.simRunning = false
	e.simMu.Unlock()

	if driver != nil {
		driver.Stop()
	}
}

func (e *Engine) selectSimulationRate(nativeRate int32) int32 {
	e.requestMu.Lock()
	requested := e.requestedRate
	e.requestMu.Unlock()

	if requested == 0 {
		requested = 48000
	}
	if requested > nativeRate {
		return nativeRate
	}
	return requested
}
