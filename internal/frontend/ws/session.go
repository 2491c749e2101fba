package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/broadcast"
	"github.com/cory-johannsen/dungeon/internal/game/engine"
	"github.com/cory-johannsen/dungeon/internal/protocol"
)

// Session is the per-connection unit mediating between one websocket client
// and the world engine. It moves through Connecting (handshake, owned by the
// acceptor), Connected (read and write loops running), and Closed. However a
// session closes (client disconnect, transport failure, idle timeout, or
// eviction by the dispatcher) it submits exactly one Leave command.
type Session struct {
	id     string
	name   string
	conn   *websocket.Conn
	cfg    config.ServerConfig
	engine *engine.Engine
	disp   *broadcast.Dispatcher
	logger *zap.Logger

	queue *broadcast.Queue

	closeOnce sync.Once
	closed    chan struct{}
}

func newSession(id, name string, conn *websocket.Conn, cfg config.ServerConfig,
	eng *engine.Engine, disp *broadcast.Dispatcher, logger *zap.Logger) *Session {
	return &Session{
		id:     id,
		name:   name,
		conn:   conn,
		cfg:    cfg,
		engine: eng,
		disp:   disp,
		logger: logger,
		queue:  broadcast.NewQueue(id, cfg.QueueSize),
		closed: make(chan struct{}),
	}
}

// run drives the session until it closes. The write loop runs in its own
// goroutine; the read loop runs here and returns once the session is closed.
func (s *Session) run() {
	go s.writeLoop()
	s.readLoop()
	<-s.closed
}

// readLoop decodes inbound frames and forwards them as engine commands.
// Decode failures are answered with an Error frame and the session stays
// connected; transport failures and idle timeouts close the session.
func (s *Session) readLoop() {
	// The handshake left a read deadline on the connection; without an idle
	// timeout it must be cleared or the session dies when it expires.
	if s.cfg.IdleTimeout <= 0 {
		_ = s.conn.SetReadDeadline(time.Time{})
	}
	for {
		if s.cfg.IdleTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.shutdown("transport closed")
			return
		}

		msg, err := protocol.DecodeClient(data)
		if err != nil {
			s.logger.Debug("rejecting malformed frame", zap.Error(err))
			s.sendError(err.Error())
			continue
		}

		if done := s.dispatch(msg); done {
			return
		}
	}
}

// dispatch submits one decoded message to the engine. It reports true when
// the session should stop reading.
func (s *Session) dispatch(msg protocol.ClientMessage) bool {
	ctx := context.Background()

	var cmd engine.Command
	switch m := msg.(type) {
	case protocol.Connect:
		// The handshake already consumed the connect frame; a second one is
		// out of sequence.
		s.sendError("already connected")
		return false
	case protocol.Move:
		cmd = engine.Move{ID: s.id, Dx: m.Dx, Dy: m.Dy}
	case protocol.EnterDungeon:
		cmd = engine.EnterDungeon{ID: s.id}
	case protocol.ExitDungeon:
		cmd = engine.ExitDungeon{ID: s.id}
	case protocol.OpenInventory:
		cmd = engine.SetInventory{ID: s.id, Open: true}
	case protocol.CloseInventory:
		cmd = engine.SetInventory{ID: s.id, Open: false}
	case protocol.Chat:
		cmd = engine.Chat{ID: s.id, Text: m.Message}
	case protocol.Disconnect:
		s.shutdown("client disconnect")
		return true
	default:
		s.sendError("unsupported message")
		return false
	}

	if err := s.engine.Submit(ctx, cmd); err != nil {
		s.logger.Warn("submitting command", zap.Error(err))
		s.shutdown("engine unavailable")
		return true
	}
	return false
}

// writeLoop drains the outbound queue onto the socket. It exits when the
// queue closes or a write fails.
func (s *Session) writeLoop() {
	for frame := range s.queue.Frames() {
		if s.cfg.WriteTimeout > 0 {
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}
		if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.shutdown("write failed")
			return
		}
	}
	// Queue closed: the session is over, make sure the reader unblocks.
	s.shutdown("queue closed")
}

// sendError enqueues an Error frame to this session only.
func (s *Session) sendError(text string) {
	frame, err := protocol.Encode(protocol.NewError(text))
	if err != nil {
		s.logger.Error("encoding error frame", zap.Error(err))
		return
	}
	if err := s.queue.Push(frame); err != nil {
		s.shutdown("unresponsive")
	}
}

// shutdown transitions the session to Closed: it unregisters the queue,
// closes the transport, and submits the one Leave command. Safe to call from
// any goroutine, any number of times.
func (s *Session) shutdown(reason string) {
	s.closeOnce.Do(func() {
		s.logger.Info("closing session", zap.String("reason", reason))

		s.disp.Unregister(s.id)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = s.conn.Close()

		// Leave semantics are guaranteed, not best-effort: keep submitting
		// until the engine takes the command or stops entirely. This runs in
		// its own goroutine because shutdown may be invoked from the
		// dispatcher while the engine is mid-command.
		go func() {
			if err := s.engine.Submit(context.Background(), engine.Leave{ID: s.id, Reason: reason}); err != nil {
				s.logger.Warn("submitting leave", zap.Error(err))
			}
			close(s.closed)
		}()
	})
}
