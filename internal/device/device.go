// Package device abstracts the native audio I/O layer spec.md §1 calls the
// "AudioDevice" contract: open/start/stop plus a periodic data callback,
// together with the platform device enumeration behind §4.6's
// device-change detection rules. The concrete backends (portaudio.go,
// enumerate_linux.go) are thin; all the classification logic that matters
// for testing lives in this file as pure functions.
package device

import "strings"

// ValidRates lists the sample rates the host API accepts from
// change_sample_rate; any other value is silently ignored (spec.md §6).
var ValidRates = []int32{8000, 16000, 32000, 48000, 96000, 192000, 250000, 384000}

// IsValidRate reports whether rate is one of the accepted requested rates.
func IsValidRate(rate int32) bool {
	for _, r := range ValidRates {
		if r == rate {
			return true
		}
	}
	return false
}

// AudioDevice is the abstract capture/playback device contract backstage
// drives. A concrete implementation owns exactly one underlying hardware
// stream; Start/Stop may be called repeatedly across the device's
// lifetime as the Supervisor reconciles state.
type AudioDevice interface {
	// Open prepares the device at sampleRate, to be driven in blocks of
	// approximately framesPerCallback frames. The data callback supplied
	// when the device was constructed is invoked from the device's own
	// goroutine with each arriving (capture) or requested (playback) block.
	Open(sampleRate int32, framesPerCallback int) error
	Start() error
	Stop() error
	Close() error
	// Name returns the human-readable device name used for UI display
	// and the WAV comment's device field.
	Name() string
}

// State mirrors spec.md §3's DeviceState: the bookkeeping the Supervisor
// reconciles every tick against what the host has requested.
type State struct {
	UsingAudioMoth      bool
	CurrentRate         int32
	RequestedRate       int32
	InputRate           int32
	MaxDefaultRate       int32
	DeviceLabel          string
	DeviceCommentLabel   string
}

// Info describes one enumerated input device, classified per §4.6.
type Info struct {
	Name        string
	IsAudioMoth bool
	IsOld       bool
	// NativeRateHz is the sample rate parsed out of a current-generation
	// AudioMoth's advertised name ("AudioMoth 384 kHz"), zero otherwise.
	NativeRateHz int32
}

const (
	audioMothToken  = "AudioMoth"
	legacyToken     = "F32x USBXpress Device"
	kHzToken        = " kHz "
)

// Classify applies §4.6's device-name rules: a case-sensitive substring
// match for "AudioMoth" identifies a current-generation device (and, when
// the name also carries a " kHz " token, its native sample rate); a match
// for "F32x USBXpress Device", or an "AudioMoth" name without the kHz
// token, identifies the legacy ("old") device.
func Classify(name string) Info {
	info := Info{Name: name}

	hasAudioMoth := strings.Contains(name, audioMothToken)
	hasKHz := strings.Contains(name, kHzToken)

	if hasAudioMoth && hasKHz {
		info.IsAudioMoth = true
		info.NativeRateHz = parseKHzPrefix(name) * 1000
		return info
	}

	if strings.Contains(name, legacyToken) || (hasAudioMoth && !hasKHz) {
		info.IsOld = true
		return info
	}

	return info
}

// parseKHzPrefix extracts the decimal integer immediately preceding the
// literal " kHz" token in name, returning 0 if none is found.
func parseKHzPrefix(name string) int32 {
	idx := strings.Index(name, kHzToken)
	if idx < 0 {
		// Tolerate a trailing "kHz" with no following space (e.g. name
		// ends the string right after the unit).
		idx = strings.Index(name, " kHz")
		if idx < 0 {
			return 0
		}
	}

	end := idx
	start := end
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}

	if start == end {
		return 0
	}

	var value int32
	for _, c := range name[start:end] {
		value = value*10 + int32(c-'0')
	}

	return value
}
