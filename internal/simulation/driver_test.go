package simulation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_TickInterval_RunsAtBaseCadenceAtMaxLag(t *testing.T) {
	var interval = tickInterval(100, 5, 100)
	assert.Equal(t, time.Second/ticksPerSecond, interval)
}

func Test_TickInterval_SpeedsUpBelowTargetMinimum(t *testing.T) {
	var atTarget = tickInterval(10, 10, 100)
	var belowTarget = tickInterval(0, 10, 100)

	assert.Less(t, belowTarget, atTarget)
}

func Test_Driver_DeliversBlocksSizedToSampleRate(t *testing.T) {
	var clip = Clip{SampleRate: 800, Samples: []int16{1, 2, 3, 4, 5, 6, 7, 8}}

	var mu sync.Mutex
	var delivered [][]int16

	var driver = New(clip, Feedback{
		TakeMinimumLag: func() int32 { return 0 },
		TakeBurstTicks: func() int32 { return 0 },
	}, func(samples []int16) {
		mu.Lock()
		defer mu.Unlock()
		var copied = make([]int16, len(samples))
		copy(copied, samples)
		delivered = append(delivered, copied)
	})

	driver.Run()
	time.Sleep(50 * time.Millisecond)
	driver.Stop()

	mu.Lock()
	defer mu.Unlock()

	if assert.NotEmpty(t, delivered) {
		assert.Len(t, delivered[0], 8) // clip.SampleRate/ticksPerSecond == 8
	}
}

func Test_Driver_LatchesMinimumLagOncePerSecond(t *testing.T) {
	var clip = Clip{SampleRate: 800, Samples: []int16{1, 2}}

	var mu sync.Mutex
	var calls int

	var driver = New(clip, Feedback{
		TakeMinimumLag: func() int32 {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return 0
		},
		TakeBurstTicks: func() int32 { return 0 },
	}, func(samples []int16) {})

	driver.Run()
	// At a lag of 0 the driver ticks close to its 100/s base cadence, so
	// 1.2s covers at least one ticksPerSecond-tick latch window (~120
	// ticks) while staying well short of the ~120 calls a per-tick read
	// would produce.
	time.Sleep(1200 * time.Millisecond)
	driver.Stop()

	mu.Lock()
	defer mu.Unlock()

	assert.GreaterOrEqual(t, calls, 1)
	assert.Less(t, calls, 10)
}

func Test_Driver_LoopsClipSamples(t *testing.T) {
	var clip = Clip{SampleRate: 200, Samples: []int16{9, 9}}

	var block1 = (&Driver{clip: clip}).nextBlock()
	var block2 = (&Driver{clip: clip, position: 2}).nextBlock()

	assert.Equal(t, block1, block2)
}
