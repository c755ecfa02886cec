package simulation

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/audiomoth/backstage/internal/playback"
)

const ticksPerSecond = 100

// Feedback is the lag information the playback path publishes back to the
// simulation driver so it can pace itself against real-time and catch up
// after starvation, mirroring minimumPlaybackBufferLag/playback_buffer_count
// in backstage.c.
type Feedback struct {
	// TakeMinimumLag latches the playback buffer lag minimum observed
	// since the last call and resets it for the next window, in the same
	// "callbacks per second" units as internal/playback. The driver calls
	// this once per second (every ticksPerSecond ticks) so each second
	// paces against that second's own minimum, mirroring
	// simulationThreadBody's tick counter in backstage.c.
	TakeMinimumLag func() int32
	// TakeBurstTicks returns the number of extra ticks to run
	// back-to-back without sleeping, consuming (zeroing) the counter.
	TakeBurstTicks func() int32
}

// Driver replays a loaded Clip into a capture callback at the cadence its
// native sample rate implies, looping indefinitely and pacing its own
// sleep interval against playback lag feedback.
type Driver struct {
	clip     Clip
	feedback Feedback
	deliver  func(samples []int16)

	position int
	stop     chan struct{}
	done     chan struct{}
	running  atomic.Bool

	mu sync.Mutex
}

// New creates a driver that calls deliver once per tick with
// clip.SampleRate/100 samples drawn from clip, looping when exhausted.
func New(clip Clip, feedback Feedback, deliver func(samples []int16)) *Driver {
	return &Driver{clip: clip, feedback: feedback, deliver: deliver}
}

// Run starts the pacing loop on a new goroutine. Stop must be called
// exactly once to release it.
func (d *Driver) Run() {
	if !d.running.CompareAndSwap(false, true) {
		return
	}

	d.stop = make(chan struct{})
	d.done = make(chan struct{})

	go d.loop()
}

// Stop signals the pacing loop to exit and blocks until it has.
func (d *Driver) Stop() {
	if !d.running.CompareAndSwap(true, false) {
		return
	}

	close(d.stop)
	<-d.done
}

func (d *Driver) nextBlock() []int16 {
	d.mu.Lock()
	defer d.mu.Unlock()

	samplesPerTick := int(d.clip.SampleRate) / ticksPerSecond
	if samplesPerTick <= 0 {
		samplesPerTick = 1
	}

	block := make([]int16, samplesPerTick)
	n := len(d.clip.Samples)
	if n == 0 {
		return block
	}

	for i := range block {
		block[i] = d.clip.Samples[d.position%n]
		d.position++
	}

	return block
}

// tickInterval computes the sleep interval for one tick using the §4.7
// rule: target buffer_lag towards TARGET_MIN while below MAX, otherwise
// run at the base 100Hz cadence (the lag has already blown past
// tolerance, so there is no point pacing gently).
func tickInterval(bufferLag, targetMin, max int32) time.Duration {
	if bufferLag >= max {
		return time.Second / ticksPerSecond
	}

	denominator := ticksPerSecond + targetMin - bufferLag
	if denominator <= 0 {
		denominator = 1
	}

	intervalMicros := int64(1_000_000) / int64(denominator)

	return time.Duration(intervalMicros) * time.Microsecond
}

func (d *Driver) loop() {
	defer close(d.done)

	targetMin := playback.TargetMinimumLag()
	max := playback.MaximumLag()

	var lag int32
	var ticksSinceLatch int32

	for {
		select {
		case <-d.stop:
			return
		default:
		}

		d.deliver(d.nextBlock())

		burst := int32(0)
		if d.feedback.TakeBurstTicks != nil {
			burst = d.feedback.TakeBurstTicks()
		}

		for i := int32(0); i < burst; i++ {
			select {
			case <-d.stop:
				return
			default:
			}
			d.deliver(d.nextBlock())
		}

		// Once a second, latch the minimum buffer lag observed over the
		// window just finished and reset it for the next one, mirroring
		// simulationThreadBody's tick counter. The latched value paces
		// every tick in between, not just the one it's read on.
		ticksSinceLatch++
		if ticksSinceLatch >= ticksPerSecond {
			ticksSinceLatch = 0
			if d.feedback.TakeMinimumLag != nil {
				lag = d.feedback.TakeMinimumLag()
			}
		}

		select {
		case <-d.stop:
			return
		case <-time.After(tickInterval(lag, targetMin, max)):
		}
	}
}
