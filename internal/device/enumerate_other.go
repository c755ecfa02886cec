//go:build !linux

package device

// Enumerate lists every input-capable device PortAudio can see, classified
// per §4.6. Non-Linux platforms have no udev equivalent, so this is the
// only enumerator.
func Enumerate() ([]Info, error) {
	return enumeratePortAudio()
}
