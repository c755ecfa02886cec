package autosave

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiomoth/backstage/internal/ring"
)

type fakeEnvironment struct {
	destination string
}

func (e fakeEnvironment) FileDestination() (string, bool) { return e.destination, e.destination != "" }
func (e fakeEnvironment) LocalTimeOffsetSeconds() int32    { return 0 }

func Test_StateMachine_StartThenMinuteBoundaryWritesFile(t *testing.T) {
	var dir = t.TempDir()
	var audioBuffer = ring.NewAudioBuffer()
	var queue = NewEventQueue(8)

	var sm = NewStateMachine(fakeEnvironment{destination: dir}, audioBuffer, queue)
	sm.SetDurationMinutes(1)

	const sampleRate = 8000
	var epoch = time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC).UnixMilli()

	require.True(t, queue.AddEvent(Event{
		Type:                   Start,
		SampleRate:             sampleRate,
		CurrentIndex:           0,
		CurrentCount:           0,
		StartTime:              epoch,
		StartCount:             0,
		InputDeviceCommentName: "test device",
	}))

	assert.True(t, sm.ProcessEvents(0))

	var ok = sm.ProcessEvents(60 * sampleRate)
	assert.True(t, ok)

	var entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Ext(entries[0].Name()), ".WAV")
}

func Test_StateMachine_StopBeforeAnyStartIsANoop(t *testing.T) {
	var dir = t.TempDir()
	var audioBuffer = ring.NewAudioBuffer()
	var queue = NewEventQueue(8)

	var sm = NewStateMachine(fakeEnvironment{destination: dir}, audioBuffer, queue)

	require.True(t, queue.AddEvent(Event{Type: Stop, SampleRate: 8000, CurrentCount: 1000}))

	assert.True(t, sm.ProcessEvents(1000))

	var entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func Test_StateMachine_ShutdownMarksCompleted(t *testing.T) {
	var dir = t.TempDir()
	var audioBuffer = ring.NewAudioBuffer()
	var queue = NewEventQueue(8)

	var sm = NewStateMachine(fakeEnvironment{destination: dir}, audioBuffer, queue)

	require.True(t, queue.AddEvent(Event{Type: Shutdown, SampleRate: 8000}))

	sm.ProcessEvents(0)

	assert.True(t, sm.ShutdownCompleted())
}

func Test_RoundedDiv_RoundsHalfAwayFromZero(t *testing.T) {
	assert.EqualValues(t, 3, roundedDiv(5, 2))
	assert.EqualValues(t, -3, roundedDiv(-5, 2))
	assert.EqualValues(t, 2, roundedDiv(4, 2))
}
