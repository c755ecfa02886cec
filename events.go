package backstage

import "github.com/audiomoth/backstage/internal/autosave"

// autosaveStopEvent and autosaveShutdownEvent build the Supervisor's half
// of AutosaveEvent production (spec.md §4.4): STOP and SHUTDOWN are
// always raised directly by the host API, never by the capture callback.
func autosaveStopEvent(rate, index int32, count int64, label string) autosave.Event {
	return autosave.Event{
		Type:                   autosave.Stop,
		SampleRate:             rate,
		CurrentIndex:           index,
		CurrentCount:           count,
		InputDeviceCommentName: label,
	}
}

func autosaveShutdownEvent(rate, index int32, count int64, label string) autosave.Event {
	return autosave.Event{
		Type:                   autosave.Shutdown,
		SampleRate:             rate,
		CurrentIndex:           index,
		CurrentCount:           count,
		InputDeviceCommentName: label,
	}
}
