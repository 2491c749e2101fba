package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PushAndDrain(t *testing.T) {
	q := NewQueue("p1", 4)
	assert.Equal(t, "p1", q.PlayerID())

	require.NoError(t, q.Push([]byte("one")))
	require.NoError(t, q.Push([]byte("two")))

	assert.Equal(t, "one", string(<-q.Frames()))
	assert.Equal(t, "two", string(<-q.Frames()))
}

func TestQueue_PushFull(t *testing.T) {
	q := NewQueue("p1", 2)
	require.NoError(t, q.Push([]byte("a")))
	require.NoError(t, q.Push([]byte("b")))

	err := q.Push([]byte("c"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue("p1", 4)
	require.NoError(t, q.Push([]byte("a")))

	q.Close()
	q.Close() // idempotent
	assert.True(t, q.IsClosed())

	err := q.Push([]byte("b"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")

	// Frames enqueued before the close are still delivered, then the
	// channel reports closure.
	frame, ok := <-q.Frames()
	require.True(t, ok)
	assert.Equal(t, "a", string(frame))

	_, ok = <-q.Frames()
	assert.False(t, ok)
}

func TestNewQueue_DefaultSize(t *testing.T) {
	q := NewQueue("p1", 0)
	for i := 0; i < DefaultQueueSize; i++ {
		require.NoError(t, q.Push([]byte("x")))
	}
	assert.Error(t, q.Push([]byte("overflow")))
}
