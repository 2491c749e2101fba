// Package ws provides the websocket frontend: the connection acceptor that
// performs the join handshake and the per-connection sessions that bridge
// clients to the world engine.
package ws

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/broadcast"
	"github.com/cory-johannsen/dungeon/internal/game/engine"
	"github.com/cory-johannsen/dungeon/internal/protocol"
)

// Acceptor listens for websocket connections, performs the join handshake,
// and spawns a Session per client.
type Acceptor struct {
	cfg        config.ServerConfig
	engine     *engine.Engine
	dispatcher *broadcast.Dispatcher
	logger     *zap.Logger

	upgrader websocket.Upgrader
	server   *http.Server

	mu       sync.Mutex
	listener net.Listener
	running  bool
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// NewAcceptor creates a websocket acceptor with the given configuration.
//
// Precondition: eng, dispatcher, and logger must be non-nil.
// Postcondition: Returns an Acceptor ready to be started with ListenAndServe.
func NewAcceptor(cfg config.ServerConfig, eng *engine.Engine, dispatcher *broadcast.Dispatcher, logger *zap.Logger) *Acceptor {
	a := &Acceptor{
		cfg:        cfg,
		engine:     eng,
		dispatcher: dispatcher,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*Session),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.handleWS)
	a.server = &http.Server{Handler: mux}
	return a
}

// ListenAndServe starts the listener and accepts connections until Stop is
// called. This method blocks until the acceptor is stopped.
//
// Precondition: The acceptor must not already be running.
// Postcondition: The listener is closed when this method returns.
func (a *Acceptor) ListenAndServe() error {
	start := time.Now()

	listener, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}

	a.mu.Lock()
	a.listener = listener
	a.running = true
	a.mu.Unlock()

	a.logger.Info("websocket acceptor listening",
		zap.String("addr", listener.Addr().String()),
		zap.Duration("startup", time.Since(start)),
	)

	if err := a.server.Serve(listener); err != http.ErrServerClosed {
		return fmt.Errorf("serving websocket connections: %w", err)
	}
	return nil
}

// Stop gracefully stops the acceptor, closing the listener and waiting for
// all active sessions to finish.
//
// Postcondition: All connections are closed and goroutines have exited.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.server.Shutdown(ctx)

	// Shutdown does not touch hijacked connections, so close every live
	// session explicitly before waiting for the handlers to unwind.
	a.mu.Lock()
	live := make([]*Session, 0, len(a.sessions))
	for _, sess := range a.sessions {
		live = append(live, sess)
	}
	a.mu.Unlock()
	for _, sess := range live {
		sess.shutdown("server stopping")
	}
	a.wg.Wait()

	a.logger.Info("websocket acceptor stopped")
}

// Addr returns the actual listening address, or empty string if not yet listening.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return ""
}

// IsRunning returns whether the acceptor is currently accepting connections.
func (a *Acceptor) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// handleWS upgrades one HTTP request and runs the session to completion.
func (a *Acceptor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Debug("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	a.wg.Add(1)
	defer a.wg.Done()

	start := time.Now()
	addr := conn.RemoteAddr().String()
	a.logger.Info("client connected", zap.String("remote_addr", addr))

	sess, err := a.handshake(conn)
	if err != nil {
		a.logger.Info("handshake rejected",
			zap.String("remote_addr", addr),
			zap.Error(err),
		)
		_ = conn.Close()
		return
	}

	a.mu.Lock()
	a.sessions[sess.id] = sess
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		delete(a.sessions, sess.id)
		a.mu.Unlock()
	}()

	sess.run()

	a.logger.Info("session ended",
		zap.String("remote_addr", addr),
		zap.String("player_id", sess.id),
		zap.Duration("duration", time.Since(start)),
	)
}

// handshake reads the first frame, which must be a connect command carrying
// a display name, registers the session's queue, and submits the join. Any
// other first frame is a protocol error and the connection is refused with
// an Error frame.
func (a *Acceptor) handshake(conn *websocket.Conn) (*Session, error) {
	if a.cfg.HandshakeTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(a.cfg.HandshakeTimeout))
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading connect frame: %w", err)
	}

	msg, err := protocol.DecodeClient(data)
	if err != nil {
		a.refuse(conn, "expected a connect frame")
		return nil, fmt.Errorf("decoding connect frame: %w", err)
	}
	connect, ok := msg.(protocol.Connect)
	if !ok {
		a.refuse(conn, "expected a connect frame")
		return nil, fmt.Errorf("first frame is %T, want connect", msg)
	}

	id := uuid.NewString()
	sess := newSession(id, connect.PlayerName, conn, a.cfg, a.engine, a.dispatcher,
		a.logger.With(zap.String("player_id", id), zap.String("name", connect.PlayerName)))

	if err := a.dispatcher.Register(sess.queue, func(string) { sess.shutdown("unresponsive") }); err != nil {
		a.refuse(conn, "session rejected")
		return nil, fmt.Errorf("registering session queue: %w", err)
	}

	reply := make(chan error, 1)
	joinTimeout := a.cfg.HandshakeTimeout
	if joinTimeout <= 0 {
		joinTimeout = 10 * time.Second
	}
	joinCtx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()
	if err := a.engine.Submit(joinCtx, engine.Join{ID: id, Name: connect.PlayerName, Reply: reply}); err != nil {
		a.dispatcher.Unregister(id)
		a.refuse(conn, "server unavailable")
		return nil, fmt.Errorf("submitting join: %w", err)
	}
	select {
	case err := <-reply:
		if err != nil {
			a.dispatcher.Unregister(id)
			a.refuse(conn, "session rejected")
			return nil, fmt.Errorf("joining world: %w", err)
		}
	case <-joinCtx.Done():
		a.dispatcher.Unregister(id)
		a.refuse(conn, "server unavailable")
		// The Join is already enqueued and will be applied eventually; a
		// compensating Leave behind it keeps the ghost out of the world.
		go func() {
			if err := a.engine.Submit(context.Background(), engine.Leave{ID: id, Reason: "join timeout"}); err != nil {
				a.logger.Warn("submitting compensating leave", zap.Error(err))
			}
		}()
		return nil, fmt.Errorf("joining world: %w", joinCtx.Err())
	}

	return sess, nil
}

// refuse writes one Error frame directly to a connection that has no session
// yet. Write failures are ignored; the connection is being dropped anyway.
func (a *Acceptor) refuse(conn *websocket.Conn, text string) {
	frame, err := protocol.Encode(protocol.NewError(text))
	if err != nil {
		return
	}
	if a.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(a.cfg.WriteTimeout))
	}
	_ = conn.WriteMessage(websocket.TextMessage, frame)
}
