package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dungeon/internal/protocol"
)

func drainOne(t *testing.T, q *Queue) protocol.ServerMessage {
	t.Helper()
	select {
	case frame := <-q.Frames():
		msg, err := protocol.DecodeServer(frame)
		require.NoError(t, err)
		return msg
	default:
		t.Fatalf("queue for %s is empty", q.PlayerID())
		return nil
	}
}

func TestDispatcher_RegisterDuplicate(t *testing.T) {
	d := NewDispatcher(zaptest.NewLogger(t))

	require.NoError(t, d.Register(NewQueue("p1", 4), nil))
	assert.Error(t, d.Register(NewQueue("p1", 4), nil))
	assert.Equal(t, 1, d.SessionCount())
}

func TestDispatcher_Broadcast(t *testing.T) {
	d := NewDispatcher(zaptest.NewLogger(t))
	q1 := NewQueue("p1", 4)
	q2 := NewQueue("p2", 4)
	require.NoError(t, d.Register(q1, nil))
	require.NoError(t, d.Register(q2, nil))

	d.Broadcast(protocol.NewMessage("the ground shakes"))

	for _, q := range []*Queue{q1, q2} {
		msg := drainOne(t, q)
		assert.Equal(t, protocol.NewMessage("the ground shakes"), msg)
	}
}

func TestDispatcher_BroadcastOthers(t *testing.T) {
	d := NewDispatcher(zaptest.NewLogger(t))
	q1 := NewQueue("p1", 4)
	q2 := NewQueue("p2", 4)
	require.NoError(t, d.Register(q1, nil))
	require.NoError(t, d.Register(q2, nil))

	d.BroadcastOthers("p1", protocol.NewPlayerJoined("p1", "mira"))

	assert.Empty(t, q1.Frames())
	assert.Equal(t, protocol.NewPlayerJoined("p1", "mira"), drainOne(t, q2))
}

func TestDispatcher_Send(t *testing.T) {
	d := NewDispatcher(zaptest.NewLogger(t))
	q1 := NewQueue("p1", 4)
	require.NoError(t, d.Register(q1, nil))

	d.Send("p1", protocol.NewConnected("p1"))
	assert.Equal(t, protocol.NewConnected("p1"), drainOne(t, q1))

	// Unknown targets are silently dropped.
	d.Send("ghost", protocol.NewConnected("ghost"))
	assert.Equal(t, 1, d.SessionCount())
}

func TestDispatcher_Unregister(t *testing.T) {
	d := NewDispatcher(zaptest.NewLogger(t))
	q1 := NewQueue("p1", 4)
	require.NoError(t, d.Register(q1, nil))

	d.Unregister("p1")
	assert.Zero(t, d.SessionCount())
	assert.True(t, q1.IsClosed())

	d.Unregister("p1") // no-op for unknown ids
}

func TestDispatcher_EvictsSlowConsumer(t *testing.T) {
	d := NewDispatcher(zaptest.NewLogger(t))
	slow := NewQueue("slow", 1)
	fast := NewQueue("fast", 8)

	var evicted []string
	require.NoError(t, d.Register(slow, func(id string) { evicted = append(evicted, id) }))
	require.NoError(t, d.Register(fast, nil))

	// The first frame fills the slow queue; the second overflows it.
	d.Broadcast(protocol.NewMessage("one"))
	d.Broadcast(protocol.NewMessage("two"))

	assert.Equal(t, []string{"slow"}, evicted)
	assert.Equal(t, 1, d.SessionCount())
	assert.True(t, slow.IsClosed())

	// The fast consumer is unaffected and received both frames.
	assert.Equal(t, protocol.NewMessage("one"), drainOne(t, fast))
	assert.Equal(t, protocol.NewMessage("two"), drainOne(t, fast))
}
