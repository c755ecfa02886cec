// Package wavfile writes and appends mono 16-bit PCM WAV files with the
// fixed RIFF/WAVE -> fmt -> LIST(INFO/ICMT/IART) -> data chunk order used
// throughout backstage, matching backstage/src/wavFile.c byte-for-byte.
package wavfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

const (
	riffIDLength       = 4
	lengthOfArtist     = 32
	lengthOfComment    = 384
	bytesPerSample     = 2
	pcmFormat          = 1
	numberOfChannels   = 1
	bitsPerSampleInt16 = 16
)

type chunk struct {
	ID   [riffIDLength]byte
	Size uint32
}

type icmtChunk struct {
	Chunk   chunk
	Comment [lengthOfComment]byte
}

type iartChunk struct {
	Chunk  chunk
	Artist [lengthOfArtist]byte
}

type wavFormat struct {
	Format           uint16
	NumberOfChannels uint16
	SamplesPerSecond uint32
	BytesPerSecond   uint32
	BytesPerCapture  uint16
	BitsPerSample    uint16
}

// Header is the fixed-layout WAV header backstage writes: RIFF/WAVE, fmt,
// a LIST/INFO chunk carrying ICMT (comment) and IART (artist), then data.
type Header struct {
	Riff      chunk
	Format    [riffIDLength]byte
	Fmt       chunk
	WavFormat wavFormat
	List      chunk
	Info      [riffIDLength]byte
	Icmt      icmtChunk
	Iart      iartChunk
	Data      chunk
}

func id(s string) (out [riffIDLength]byte) {
	copy(out[:], s)
	return
}

// headerSize is sizeof(WAV_header_t) in the original C layout.
var headerSize = int64(binary.Size(Header{}))

// NewHeader returns a Header with the fixed chunk IDs and sizes populated,
// matching the original's static defaultHeader.
func NewHeader() Header {
	return Header{
		Riff:   chunk{ID: id("RIFF")},
		Format: id("WAVE"),
		Fmt:    chunk{ID: id("fmt "), Size: uint32(binary.Size(wavFormat{}))},
		WavFormat: wavFormat{
			Format:           pcmFormat,
			NumberOfChannels: numberOfChannels,
			BytesPerCapture:  bytesPerSample,
			BitsPerSample:    bitsPerSampleInt16,
		},
		List:  chunk{ID: id("LIST"), Size: uint32(riffIDLength + binary.Size(icmtChunk{}) + binary.Size(iartChunk{}))},
		Info:  id("INFO"),
		Icmt:  icmtChunk{Chunk: chunk{ID: id("ICMT"), Size: lengthOfComment}},
		Iart:  iartChunk{Chunk: chunk{ID: id("IART"), Size: lengthOfArtist}},
		Data:  chunk{ID: id("data")},
	}
}

// SetDetails fills in the sample rate dependent fields once the number of
// samples the file will hold is known.
func (h *Header) SetDetails(sampleRate uint32, numberOfSamples int64) {
	h.WavFormat.SamplesPerSecond = sampleRate
	h.WavFormat.BytesPerSecond = bytesPerSample * sampleRate
	h.Data.Size = uint32(bytesPerSample * numberOfSamples)
	h.Riff.Size = uint32(bytesPerSample*numberOfSamples) + uint32(headerSize) - uint32(binary.Size(chunk{}))
}

func setField(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
}

// SetArtist sets the fixed "AudioMoth Live" artist field.
func (h *Header) SetArtist(artist string) {
	setField(h.Iart.Artist[:], artist)
}

// SetComment sets the ICMT comment field to the already-formatted string.
func (h *Header) SetComment(comment string) {
	setField(h.Icmt.Comment[:], comment)
}

func writeHeaderAndData(f *os.File, header Header, buffer1 []int16, buffer2 []int16) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("encode wav header: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}

	if err := binary.Write(f, binary.LittleEndian, buffer1); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}

	if buffer2 != nil {
		if err := binary.Write(f, binary.LittleEndian, buffer2); err != nil {
			return fmt.Errorf("write wav samples (wrap segment): %w", err)
		}
	}

	return nil
}

// WriteFile creates filename (truncating any existing file) and writes
// header followed by buffer1 and, if non-nil, buffer2 (the second segment
// of a ring-wrapped read).
func WriteFile(header Header, filename string, buffer1 []int16, buffer2 []int16) bool {
	f, err := os.Create(filename)
	if err != nil {
		return false
	}
	defer f.Close()

	return writeHeaderAndData(f, header, buffer1, buffer2) == nil
}

// AppendFile appends buffer1 (and buffer2, if non-nil) to the data chunk of
// an existing WAV file and rewrites its header sizes. Returns false if the
// file does not exist or any I/O step fails, mirroring WavFile_appendFile.
func AppendFile(filename string, buffer1 []int16, buffer2 []int16) bool {
	if _, err := os.Stat(filename); err != nil {
		return false
	}

	f, err := os.OpenFile(filename, os.O_RDWR, 0o644)
	if err != nil {
		return false
	}
	defer f.Close()

	if _, err := f.Seek(0, os.SEEK_END); err != nil {
		return false
	}

	if err := binary.Write(f, binary.LittleEndian, buffer1); err != nil {
		return false
	}

	numberOfSamples := int64(len(buffer1))

	if buffer2 != nil {
		if err := binary.Write(f, binary.LittleEndian, buffer2); err != nil {
			return false
		}
		numberOfSamples += int64(len(buffer2))
	}

	if _, err := f.Seek(0, os.SEEK_SET); err != nil {
		return false
	}

	var header Header
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return false
	}

	header.Data.Size += uint32(bytesPerSample * numberOfSamples)
	header.Riff.Size += uint32(bytesPerSample * numberOfSamples)

	if _, err := f.Seek(0, os.SEEK_SET); err != nil {
		return false
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return false
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return false
	}

	return true
}
