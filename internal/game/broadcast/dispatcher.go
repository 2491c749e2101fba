package broadcast

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/protocol"
)

// EvictFunc is called when a session's queue overflows and the session must
// be force-closed. It must not block; the usual implementation closes the
// session's transport, which drives the normal leave path.
type EvictFunc func(playerID string)

// Dispatcher relays encoded server messages to every registered session
// queue. It holds no game state of its own. All methods are safe for
// concurrent use.
type Dispatcher struct {
	logger *zap.Logger

	mu     sync.RWMutex
	queues map[string]*Queue
	evict  map[string]EvictFunc
}

// NewDispatcher creates an empty Dispatcher.
//
// Precondition: logger must be non-nil.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger,
		queues: make(map[string]*Queue),
		evict:  make(map[string]EvictFunc),
	}
}

// Register adds a session's queue under its player id.
//
// Postcondition: Returns an error if the id is already registered.
func (d *Dispatcher) Register(q *Queue, evict EvictFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := q.PlayerID()
	if _, exists := d.queues[id]; exists {
		return fmt.Errorf("queue for %q already registered", id)
	}
	d.queues[id] = q
	d.evict[id] = evict
	return nil
}

// Unregister removes and closes the queue for the given player id. It is a
// no-op for unknown ids.
func (d *Dispatcher) Unregister(playerID string) {
	d.mu.Lock()
	q, ok := d.queues[playerID]
	delete(d.queues, playerID)
	delete(d.evict, playerID)
	d.mu.Unlock()

	if ok {
		q.Close()
	}
}

// SessionCount returns the number of registered session queues.
func (d *Dispatcher) SessionCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.queues)
}

// Broadcast enqueues the message to every registered session.
func (d *Dispatcher) Broadcast(msg protocol.ServerMessage) {
	d.deliver(msg, "")
}

// BroadcastOthers enqueues the message to every registered session except
// the one owned by excludeID.
func (d *Dispatcher) BroadcastOthers(excludeID string, msg protocol.ServerMessage) {
	d.deliver(msg, excludeID)
}

// Send enqueues the message to a single session. It is a no-op for unknown
// ids: the target may have disconnected between command intake and delivery.
func (d *Dispatcher) Send(playerID string, msg protocol.ServerMessage) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		d.logger.Error("encoding frame for send",
			zap.String("player_id", playerID),
			zap.Error(err),
		)
		return
	}

	d.mu.RLock()
	q := d.queues[playerID]
	d.mu.RUnlock()

	if q == nil {
		return
	}
	if err := q.Push(frame); err != nil {
		d.evictSlow(playerID, err)
	}
}

func (d *Dispatcher) deliver(msg protocol.ServerMessage, excludeID string) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		d.logger.Error("encoding frame for broadcast", zap.Error(err))
		return
	}

	d.mu.RLock()
	targets := make([]*Queue, 0, len(d.queues))
	for id, q := range d.queues {
		if id == excludeID {
			continue
		}
		targets = append(targets, q)
	}
	d.mu.RUnlock()

	for _, q := range targets {
		if err := q.Push(frame); err != nil {
			d.evictSlow(q.PlayerID(), err)
		}
	}
}

// evictSlow force-closes an unresponsive session rather than letting its
// queue grow or block the engine.
func (d *Dispatcher) evictSlow(playerID string, cause error) {
	d.mu.Lock()
	q, ok := d.queues[playerID]
	evict := d.evict[playerID]
	delete(d.queues, playerID)
	delete(d.evict, playerID)
	d.mu.Unlock()

	if !ok {
		return
	}

	d.logger.Warn("evicting unresponsive session",
		zap.String("player_id", playerID),
		zap.Error(cause),
	)
	q.Close()
	if evict != nil {
		evict(playerID)
	}
}
