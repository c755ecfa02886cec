package backstage

// CaptureSnapshot is an immutable copy of the audio ring's cursor state,
// taken atomically for a paused UI or a clip capture job (spec.md §3).
type CaptureSnapshot struct {
	WriteIndex  int32
	SampleCount int64
	StartTimeMs int64
	SampleRate  int32
	DeviceLabel string
}

// snapshot reads the current ring cursor state atomically under
// audioBufferMu, together with the live device rate and label.
func (e *Engine) snapshot() CaptureSnapshot {
	e.audioBufferMu.Lock()
	s := CaptureSnapshot{
		WriteIndex:  e.writeIndex,
		SampleCount: e.sampleCount,
		StartTimeMs: e.startTimeMs,
	}
	e.audioBufferMu.Unlock()

	e.deviceMu.Lock()
	s.SampleRate = e.deviceState.CurrentRate
	s.DeviceLabel = e.deviceState.DeviceCommentLabel
	e.deviceMu.Unlock()

	return s
}
