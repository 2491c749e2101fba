// Package broadcast fans engine events out to every live session's outbound
// queue.
package broadcast

import (
	"fmt"
	"sync"
)

// DefaultQueueSize is the outbound queue capacity used when none is configured.
const DefaultQueueSize = 64

// Queue is a bounded outbound frame queue owned by one session. Pushes never
// block: a full or closed queue reports an error instead, so a slow consumer
// can never stall the engine.
type Queue struct {
	playerID string
	frames   chan []byte
	mu       sync.Mutex
	closed   bool
}

// NewQueue creates a Queue for the given player id.
//
// Precondition: playerID must be non-empty.
// Postcondition: Returns a Queue with an open frames channel.
func NewQueue(playerID string, size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		playerID: playerID,
		frames:   make(chan []byte, size),
	}
}

// PlayerID returns the owning player's id.
func (q *Queue) PlayerID() string { return q.playerID }

// Push enqueues one encoded frame.
//
// Postcondition: The frame is enqueued, or an error is returned when the
// queue is closed or full.
func (q *Queue) Push(frame []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue for %s is closed", q.playerID)
	}
	select {
	case q.frames <- frame:
		return nil
	default:
		return fmt.Errorf("queue for %s is full", q.playerID)
	}
}

// Frames returns the read-only frame channel. The session's write loop
// drains this channel; it is closed when the queue closes.
func (q *Queue) Frames() <-chan []byte {
	return q.frames
}

// Close closes the queue. Further pushes fail; the frame channel is closed
// once already-enqueued frames are delivered.
//
// Postcondition: Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.frames)
	}
}

// IsClosed reports whether the queue has been closed.
func (q *Queue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
