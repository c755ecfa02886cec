package autosave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_EventQueue_FIFOOrder(t *testing.T) {
	var q = NewEventQueue(4)

	require.True(t, q.AddEvent(Event{Type: Start, CurrentIndex: 1}))
	require.True(t, q.AddEvent(Event{Type: Restart, CurrentIndex: 2}))

	var first, ok1 = q.GetFirstEvent()
	require.True(t, ok1)
	assert.Equal(t, Start, first.Type)
	assert.EqualValues(t, 1, first.CurrentIndex)

	var second, ok2 = q.GetFirstEvent()
	require.True(t, ok2)
	assert.Equal(t, Restart, second.Type)
}

func Test_EventQueue_EmptyQueueReturnsFalse(t *testing.T) {
	var q = NewEventQueue(4)

	_, ok := q.GetFirstEvent()
	assert.False(t, ok)
	assert.False(t, q.HasEvents())
}

func Test_EventQueue_GrowsWhenFullAndPreservesOrder(t *testing.T) {
	var q = NewEventQueue(2)

	for i := 0; i < 10; i++ {
		require.True(t, q.AddEvent(Event{CurrentIndex: int32(i)}))
	}

	for i := 0; i < 10; i++ {
		event, ok := q.GetFirstEvent()
		require.True(t, ok)
		assert.EqualValues(t, i, event.CurrentIndex)
	}

	assert.False(t, q.HasEvents())
}

func Test_EventQueue_GrowsAfterWrapping(t *testing.T) {
	var q = NewEventQueue(3)

	require.True(t, q.AddEvent(Event{CurrentIndex: 0}))
	require.True(t, q.AddEvent(Event{CurrentIndex: 1}))
	_, _ = q.GetFirstEvent()
	require.True(t, q.AddEvent(Event{CurrentIndex: 2}))
	require.True(t, q.AddEvent(Event{CurrentIndex: 3}))

	var got []int32
	for q.HasEvents() {
		event, _ := q.GetFirstEvent()
		got = append(got, event.CurrentIndex)
	}

	assert.Equal(t, []int32{1, 2, 3}, got)
}
