package device

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var initOnce sync.Once
var initErr error

// ensureInitialized calls portaudio.Initialize exactly once per process,
// matching the teacher's once-guarded setup pattern for native libraries
// that must not be re-initialised (src/cm108.go's device handle caching
// follows the same "open once, reuse" shape for USB HID devices).
func ensureInitialized() error {
	initOnce.Do(func() {
		initErr = portaudio.Initialize()
	})
	return initErr
}

// PortAudioCapture is the concrete AudioDevice backing capture: it opens
// an input-only stream, either the default system input or (when name is
// non-empty) the named device, and delivers each arriving block of int16
// samples to onData.
type PortAudioCapture struct {
	deviceName string
	onData     func(samples []int16)

	stream *portaudio.Stream
	buffer []int16
}

// NewPortAudioCapture creates a capture device. An empty deviceName opens
// the system default input device; otherwise the first enumerated input
// device whose name matches exactly is used.
func NewPortAudioCapture(deviceName string, onData func(samples []int16)) *PortAudioCapture {
	return &PortAudioCapture{deviceName: deviceName, onData: onData}
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate portaudio devices: %w", err)
	}

	for _, d := range devices {
		if d.MaxInputChannels > 0 && d.Name == name {
			return d, nil
		}
	}

	return nil, fmt.Errorf("input device %q not found", name)
}

// Open opens the underlying PortAudio stream at sampleRate, buffered in
// blocks of framesPerCallback frames.
func (c *PortAudioCapture) Open(sampleRate int32, framesPerCallback int) error {
	if err := ensureInitialized(); err != nil {
		return fmt.Errorf("initialise portaudio: %w", err)
	}

	c.buffer = make([]int16, framesPerCallback)

	if c.deviceName == "" {
		stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerCallback, c.buffer)
		if err != nil {
			return fmt.Errorf("open default input stream: %w", err)
		}
		c.stream = stream
		return nil
	}

	info, err := findInputDevice(c.deviceName)
	if err != nil {
		return err
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: 1,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: framesPerCallback,
	}, c.buffer)
	if err != nil {
		return fmt.Errorf("open input stream %q: %w", c.deviceName, err)
	}

	c.stream = stream
	return nil
}

// Start begins the stream, delivering captured blocks to onData from a
// background goroutine that drains the PortAudio stream with ReadStream.
func (c *PortAudioCapture) Start() error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("start input stream: %w", err)
	}

	go func() {
		for {
			if err := c.stream.Read(); err != nil {
				return
			}
			c.onData(c.buffer)
		}
	}()

	return nil
}

// Stop halts the underlying stream; the read goroutine started by Start
// exits on the resulting Read error.
func (c *PortAudioCapture) Stop() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("stop input stream: %w", err)
	}
	return nil
}

// Close releases the stream's native resources.
func (c *PortAudioCapture) Close() error {
	if c.stream == nil {
		return nil
	}
	return c.stream.Close()
}

// Name reports the configured device name, or "default" for the system
// default input.
func (c *PortAudioCapture) Name() string {
	if c.deviceName == "" {
		return "default"
	}
	return c.deviceName
}

// PortAudioPlayback is the concrete AudioDevice backing the fixed 48kHz
// monitoring output device.
type PortAudioPlayback struct {
	onData func(out []int16)

	stream *portaudio.Stream
	buffer []int16
}

// NewPortAudioPlayback creates a playback device; onData is called once
// per callback to fill the output block.
func NewPortAudioPlayback(onData func(out []int16)) *PortAudioPlayback {
	return &PortAudioPlayback{onData: onData}
}

// Open opens the default output stream at sampleRate.
func (p *PortAudioPlayback) Open(sampleRate int32, framesPerCallback int) error {
	if err := ensureInitialized(); err != nil {
		return fmt.Errorf("initialise portaudio: %w", err)
	}

	p.buffer = make([]int16, framesPerCallback)

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), framesPerCallback, p.buffer)
	if err != nil {
		return fmt.Errorf("open default output stream: %w", err)
	}

	p.stream = stream
	return nil
}

// Start begins the stream, pulling output blocks from onData.
func (p *PortAudioPlayback) Start() error {
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}

	go func() {
		for {
			p.onData(p.buffer)
			if err := p.stream.Write(); err != nil {
				return
			}
		}
	}()

	return nil
}

// Stop halts the stream.
func (p *PortAudioPlayback) Stop() error {
	if p.stream == nil {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		return fmt.Errorf("stop output stream: %w", err)
	}
	return nil
}

// Close releases the stream's native resources.
func (p *PortAudioPlayback) Close() error {
	if p.stream == nil {
		return nil
	}
	return p.stream.Close()
}

// Name always reports the fixed monitoring output device label.
func (p *PortAudioPlayback) Name() string { return "default output" }

// enumeratePortAudio lists every input-capable device PortAudio can see,
// classified per §4.6. This is the cross-platform enumerator; on Linux,
// Enumerate (enumerate_linux.go) prefers the udev-backed EnumerateLinux and
// falls back to this only if udev enumeration fails.
func enumeratePortAudio() ([]Info, error) {
	if err := ensureInitialized(); err != nil {
		return nil, fmt.Errorf("initialise portaudio: %w", err)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate portaudio devices: %w", err)
	}

	infos := make([]Info, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		infos = append(infos, Classify(d.Name))
	}

	return infos, nil
}
