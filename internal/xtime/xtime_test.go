package xtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_GmTime_IsUTC(t *testing.T) {
	var when = GmTime(0)

	assert.Equal(t, time.UTC, when.Location())
	assert.Equal(t, 1970, when.Year())
}

func Test_GetMillisecondUTC_IsCloseToNow(t *testing.T) {
	var before = time.Now().UTC().UnixMilli()
	var got = GetMillisecondUTC()
	var after = time.Now().UTC().UnixMilli()

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}

func Test_GetMicroseconds_WithinRange(t *testing.T) {
	var got = GetMicroseconds()
	assert.Less(t, got, uint32(1_000_000))
}
