package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_CopyOut_NoWrap(t *testing.T) {
	var buf = []int16{0, 1, 2, 3, 4, 5, 6, 7}

	var out = CopyOut(buf, 2, 4)

	assert.Equal(t, []int16{2, 3, 4, 5}, out)
}

func Test_CopyOut_Wraps(t *testing.T) {
	var buf = []int16{0, 1, 2, 3, 4, 5, 6, 7}

	var out = CopyOut(buf, 6, 4)

	assert.Equal(t, []int16{6, 7, 0, 1}, out)
}

func Test_CopyFrom_NegativeStartIndex(t *testing.T) {
	var buf = []int16{0, 1, 2, 3, 4, 5, 6, 7}

	var out = CopyFrom(buf, -2, 3)

	assert.Equal(t, []int16{6, 7, 0}, out)
}

func Test_Sub_NoWrap(t *testing.T) {
	assert.Equal(t, int32(5), Sub(16, 10, 5))
}

func Test_Sub_Wraps(t *testing.T) {
	assert.Equal(t, int32(6), Sub(16, 2, 12))
}

func Test_CopyOut_PreservesLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var size = rapid.IntRange(1, 64).Draw(t, "size")
		var buf = make([]int16, size)
		for i := range buf {
			buf[i] = int16(i)
		}

		var start = int32(rapid.IntRange(0, size-1).Draw(t, "start"))
		var n = int32(rapid.IntRange(0, size).Draw(t, "n"))

		var out = CopyOut(buf, start, n)

		assert.Len(t, out, int(n))
	})
}
