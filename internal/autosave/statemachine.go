package autosave

import (
	"math"

	"github.com/audiomoth/backstage/internal/ring"
	"github.com/audiomoth/backstage/internal/wavfile"
	"github.com/audiomoth/backstage/internal/xtime"
)

const millisecondsInSecond = 1000

// Environment supplies the settings that live outside this package but
// that writeFile needs to read on every call: the destination directory
// and local-time offset, both of which are owned by the engine's host API
// surface (fileDestinationMutex/localTimeMutex in the original).
type Environment interface {
	FileDestination() (path string, ok bool)
	LocalTimeOffsetSeconds() int32
}

// StateMachine drives AS_START/AS_RESTART/AS_STOP/AS_SHUTDOWN events into a
// sequence of minute-aligned WAV files read out of a shared audio ring.
// It is driven from a single goroutine (the background loop) and keeps no
// internal locking of its own, mirroring the single-writer file state kept
// by backgroundThreadBody in backstage.c.
type StateMachine struct {
	env         Environment
	audioBuffer []int16
	queue       *EventQueue

	waitingForStartEvent bool
	targetCount          int64

	durationMinutes int32

	fileSampleRate          int32
	fileStartIndex          int32
	fileStartCount          int64
	fileStartTime           int64
	inputDeviceCommentName  string

	previousLocalTimeOffset int32
	previousDurationMinutes int32
	filename                string
	filePreviousStopTime    int64
	previousFileDestination string

	shutdownCompleted bool
}

// NewStateMachine creates a state machine that reads raw samples out of
// audioBuffer and drains events from queue.
func NewStateMachine(env Environment, audioBuffer []int16, queue *EventQueue) *StateMachine {
	return &StateMachine{
		env:                  env,
		audioBuffer:          audioBuffer,
		queue:                queue,
		waitingForStartEvent: true,
		targetCount:          math.MaxInt64,
	}
}

// SetDurationMinutes changes the autosave interval; 0 disables autosave.
// The caller (the engine's setAutoSave) is responsible for emitting the
// AS_START/AS_STOP events that bracket a 0<->nonzero transition.
func (s *StateMachine) SetDurationMinutes(minutes int32) {
	s.durationMinutes = minutes
}

// DurationMinutes returns the current autosave interval in minutes.
func (s *StateMachine) DurationMinutes() int32 {
	return s.durationMinutes
}

// ShutdownCompleted reports whether a shutdown event has been fully
// flushed to disk.
func (s *StateMachine) ShutdownCompleted() bool {
	return s.shutdownCompleted
}

func roundedDiv(n, d int64) int64 {
	if (n < 0) != (d < 0) {
		return (n - d/2) / d
	}
	return (n + d/2) / d
}

// writeFile flushes duration seconds of audio starting at fileStartIndex
// to the current autosave file, appending when the previous file ended
// exactly where this one starts, the destination and local time offset
// are unchanged, and the start time is a whole minute that is not a
// multiple of the autosave interval.
//
// The append predicate reproduces writeAutosaveFile's exact condition,
// including its literal quirk: the interval it takes the minute modulo
// is previousDurationMinutes, the most recent nonzero interval. While
// autosave is on that is the current interval; after the interval is set
// to 0 it is the last nonzero one. Whether the interval changed since the
// previous write is not itself checked.
func (s *StateMachine) writeFile(duration int32) bool {
	if duration == 0 {
		return true
	}

	destination, ok := s.env.FileDestination()
	if !ok {
		return false
	}

	localTimeOffset := s.env.LocalTimeOffsetSeconds()

	if s.durationMinutes > 0 {
		s.previousDurationMinutes = s.durationMinutes
	}

	startTime := xtime.GmTime(s.fileStartTime)

	appendFile := localTimeOffset == s.previousLocalTimeOffset &&
		destination == s.previousFileDestination &&
		s.fileStartTime == s.filePreviousStopTime &&
		s.previousDurationMinutes > 0 &&
		startTime.Second() == 0 &&
		int32(startTime.Minute())%s.previousDurationMinutes > 0

	s.previousFileDestination = destination
	s.filePreviousStopTime = s.fileStartTime + int64(duration)
	s.previousLocalTimeOffset = localTimeOffset

	numberOfSamples := duration * s.fileSampleRate
	overlap := s.fileStartIndex + numberOfSamples - ring.AudioSize

	var success bool

	if appendFile {
		if overlap < 0 {
			success = wavfile.AppendFile(s.filename, ring.CopyOut(s.audioBuffer, s.fileStartIndex, numberOfSamples), nil)
		} else {
			success = wavfile.AppendFile(s.filename,
				ring.CopyOut(s.audioBuffer, s.fileStartIndex, numberOfSamples-overlap),
				ring.CopyOut(s.audioBuffer, 0, overlap))
		}
	}

	if !appendFile || !success {
		header := wavfile.NewHeader()
		header.SetDetails(uint32(s.fileSampleRate), int64(numberOfSamples))
		header.SetArtist("AudioMoth Live")

		stampTime := xtime.GmTime(s.fileStartTime + int64(localTimeOffset))

		header.SetComment(wavfile.BuildComment(stampTime, -1, localTimeOffset, s.inputDeviceCommentName))
		s.filename = wavfile.BuildFilename(destination, stampTime, -1)

		if overlap < 0 {
			success = wavfile.WriteFile(header, s.filename, ring.CopyOut(s.audioBuffer, s.fileStartIndex, numberOfSamples), nil)
		} else {
			success = wavfile.WriteFile(header, s.filename,
				ring.CopyOut(s.audioBuffer, s.fileStartIndex, numberOfSamples-overlap),
				ring.CopyOut(s.audioBuffer, 0, overlap))
		}
	}

	return success
}

// makeMinuteTransitionRecording writes the partial recording up to the
// current minute boundary and rolls the file cursor forward to the start
// of the next minute.
func (s *StateMachine) makeMinuteTransitionRecording() bool {
	sampleCountDifference := s.targetCount - s.fileStartCount
	duration := int32(sampleCountDifference / int64(s.fileSampleRate))

	success := s.writeFile(duration)

	s.fileStartTime += int64(duration)
	s.fileStartIndex = int32((int64(s.fileStartIndex) + sampleCountDifference) % ring.AudioSize)
	s.fileStartCount = s.targetCount
	s.targetCount = s.fileStartCount + 60*int64(s.fileSampleRate)

	return success
}

// updateForMillisecondOffset absorbs the sub-second remainder left over
// when a file's start time is adjusted to land on a whole second, then
// recomputes the sample count target for the next minute boundary.
func (s *StateMachine) updateForMillisecondOffset(milliseconds int32) {
	if milliseconds > 0 {
		millisecondOffset := int32(millisecondsInSecond) - milliseconds
		sampleOffset := int32(roundedDiv(int64(s.fileSampleRate)*int64(millisecondOffset), millisecondsInSecond))

		s.fileStartCount += int64(sampleOffset)
		s.fileStartIndex = int32((int64(s.fileStartIndex) + int64(sampleOffset)) % ring.AudioSize)
		s.fileStartTime++
	}

	startTime := xtime.GmTime(s.fileStartTime)
	s.targetCount = s.fileStartCount + int64(60-startTime.Second())*int64(s.fileSampleRate)
}

// ProcessEvents drains every pending autosave event against the current
// capture sample count, applying START/RESTART/STOP/SHUTDOWN transitions
// and rolling a minute-transition recording whenever the target count has
// been crossed. It returns false if any WAV write failed.
func (s *StateMachine) ProcessEvents(currentSampleCount int64) bool {
	success := true

	for s.queue.HasEvents() {
		event, ok := s.queue.GetFirstEvent()
		if !ok {
			break
		}

		if s.waitingForStartEvent && event.Type == Start {
			s.fileSampleRate = event.SampleRate
			s.inputDeviceCommentName = event.InputDeviceCommentName

			countDifference := event.CurrentCount - event.StartCount
			updatedStartTime := event.StartTime + roundedDiv(countDifference*millisecondsInSecond, int64(s.fileSampleRate))

			milliseconds := int32(updatedStartTime % millisecondsInSecond)

			s.fileStartTime = updatedStartTime / millisecondsInSecond
			s.fileStartCount = event.CurrentCount
			s.fileStartIndex = event.CurrentIndex

			s.updateForMillisecondOffset(milliseconds)

			s.waitingForStartEvent = false
		}

		if currentSampleCount >= s.targetCount && s.targetCount < event.CurrentCount {
			success = success && s.makeMinuteTransitionRecording()
		}

		switch event.Type {
		case Restart:
			if s.waitingForStartEvent {
				break
			}

			duration := int32((event.StartCount - s.fileStartCount) / int64(s.fileSampleRate))
			success = success && s.writeFile(duration)

			s.fileSampleRate = event.SampleRate
			s.inputDeviceCommentName = event.InputDeviceCommentName

			milliseconds := int32(event.StartTime % millisecondsInSecond)
			s.fileStartTime = event.StartTime / millisecondsInSecond
			s.fileStartCount = event.StartCount

			countDifference := event.CurrentCount - event.StartCount
			s.fileStartIndex = int32((int64(ring.AudioSize) + int64(event.CurrentIndex) - countDifference) % ring.AudioSize)

			s.updateForMillisecondOffset(milliseconds)

		case Stop:
			if s.waitingForStartEvent {
				break
			}

			duration := int32((event.CurrentCount - s.fileStartCount) / int64(s.fileSampleRate))
			success = success && s.writeFile(duration)

			s.waitingForStartEvent = true
			s.targetCount = math.MaxInt64

		case Shutdown:
			if !s.waitingForStartEvent {
				duration := int32((event.CurrentCount - s.fileStartCount) / int64(s.fileSampleRate))
				s.writeFile(duration)
			}

			s.shutdownCompleted = true
			s.waitingForStartEvent = true
			s.targetCount = math.MaxInt64
		}
	}

	if currentSampleCount >= s.targetCount {
		success = success && s.makeMinuteTransitionRecording()
	}

	return success
}
