//go:build linux

package device

import "github.com/jochenvg/go-udev"

// Enumerate walks ALSA/USB sound cards directly via udev, falling back to
// PortAudio's own device list if udev enumeration fails or finds no sound
// device. udev can observe
// a newly plugged-in AudioMoth's USB product string before PortAudio's
// host API rescans its cached device table, so the background loop
// prefers this path on Linux (see §4.6: "an enumerator walks the
// platform's input devices").
func Enumerate() ([]Info, error) {
	infos, err := EnumerateLinux()
	if err != nil || len(infos) == 0 {
		return enumeratePortAudio()
	}
	return infos, nil
}

// EnumerateLinux walks ALSA/USB sound cards directly via udev, as an
// alternative to PortAudio's own device list.
func EnumerateLinux() ([]Info, error) {
	u := udev.Udev{}
	enumerate := u.NewEnumerateFromUdev()

	if err := enumerate.AddMatchSubsystem("sound"); err != nil {
		return nil, err
	}

	devices, err := enumerate.Devices()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	infos := make([]Info, 0, len(devices))

	for _, d := range devices {
		name := d.PropertyValue("ID_MODEL")
		if name == "" {
			name = d.PropertyValue("ID_MODEL_FROM_DATABASE")
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		infos = append(infos, Classify(name))
	}

	return infos, nil
}
