package backstage

import (
	"github.com/audiomoth/backstage/internal/ring"
	"github.com/audiomoth/backstage/internal/wavfile"
	"github.com/audiomoth/backstage/internal/xtime"
)

// writeClip renders a durationSeconds clip out of snap's frozen ring
// cursor into a new WAV file under the configured destination, with the
// clip's last sample aligned to the snapshot's write position.
func (e *Engine) writeClip(snap CaptureSnapshot, durationSeconds int) bool {
	if snap.SampleRate == 0 {
		return false
	}

	destination, ok := e.FileDestination()
	if !ok {
		return false
	}

	numberOfSamples := int64(durationSeconds) * int64(snap.SampleRate)
	if numberOfSamples > int64(snap.SampleCount) {
		numberOfSamples = int64(snap.SampleCount)
	}
	if numberOfSamples > CaptureBufferSize {
		numberOfSamples = CaptureBufferSize
	}

	size := int32(len(e.audioBuffer))
	startIndex := int32((int64(snap.WriteIndex) - numberOfSamples + int64(size)*2) % int64(size))

	endTimeMs := snap.StartTimeMs + roundedMillis(snap.SampleCount, snap.SampleRate)
	startTimeMs := endTimeMs - (numberOfSamples * 1000 / int64(snap.SampleRate))

	header := wavfile.NewHeader()
	header.SetDetails(uint32(snap.SampleRate), numberOfSamples)
	header.SetArtist("AudioMoth Live")

	localOffset := e.LocalTimeOffsetSeconds()
	localStartTimeMs := startTimeMs + int64(localOffset)*1000
	startTime := xtime.GmTime(localStartTimeMs / 1000)
	milliseconds := int32(startTimeMs % 1000)

	header.SetComment(wavfile.BuildComment(startTime, milliseconds, localOffset, snap.DeviceLabel))
	filename := wavfile.BuildFilename(destination, startTime, milliseconds)

	overlap := startIndex + int32(numberOfSamples) - size

	if overlap < 0 {
		return wavfile.WriteFile(header, filename, ring.CopyOut(e.audioBuffer, startIndex, int32(numberOfSamples)), nil)
	}

	return wavfile.WriteFile(header, filename,
		ring.CopyOut(e.audioBuffer, startIndex, int32(numberOfSamples)-overlap),
		ring.CopyOut(e.audioBuffer, 0, overlap))
}
