package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/broadcast"
	"github.com/cory-johannsen/dungeon/internal/game/world"
	"github.com/cory-johannsen/dungeon/internal/protocol"
)

// Player-facing texts preserved from the original game.
const (
	msgDescend       = "The party descends into the dungeon..."
	msgEmerge        = "The party emerges from the dungeon into the overworld."
	msgNotAtEntrance = "You're not at a dungeon entrance."
	msgNotInDungeon  = "You're not in a dungeon."
	msgNotAtExit     = "You must be at the dungeon entrance (marked with '<') to exit."
	msgOutOfBounds   = "You can't go that way."
	msgBadDelta      = "You can't move that far."
)

// DefaultCommandBuffer is the intake channel capacity used when none is
// configured.
const DefaultCommandBuffer = 256

// Generator produces a map of the requested kind. Map content generation is
// a black box to the engine.
type Generator interface {
	Generate(kind world.MapKind) (*world.Map, error)
}

// Config holds engine tuning.
type Config struct {
	// OverworldSpawn is the fixed spawn coordinate on the overworld.
	OverworldSpawn world.Coord
	// DungeonSpawn is the fixed spawn coordinate in the dungeon.
	DungeonSpawn world.Coord
	// CommandBuffer is the intake channel capacity.
	CommandBuffer int
}

// Engine is the single serialization point for all world mutation. Commands
// enter through one intake channel and are applied one at a time by Run, so
// no two commands are ever validated against the same map state
// concurrently. The engine talks only to the dispatcher, never to sockets.
type Engine struct {
	logger     *zap.Logger
	cfg        Config
	world      *world.World
	gen        Generator
	dispatcher *broadcast.Dispatcher

	commands chan Command
	done     chan struct{}
}

// New creates an Engine around the given world.
//
// Precondition: w, gen, dispatcher, and logger must be non-nil.
func New(cfg Config, w *world.World, gen Generator, dispatcher *broadcast.Dispatcher, logger *zap.Logger) *Engine {
	buffer := cfg.CommandBuffer
	if buffer <= 0 {
		buffer = DefaultCommandBuffer
	}
	return &Engine{
		logger:     logger,
		cfg:        cfg,
		world:      w,
		gen:        gen,
		dispatcher: dispatcher,
		commands:   make(chan Command, buffer),
		done:       make(chan struct{}),
	}
}

// Submit enqueues a command for processing.
//
// Postcondition: Returns an error when ctx is cancelled or the engine has
// stopped before the command could be enqueued.
func (e *Engine) Submit(ctx context.Context, cmd Command) error {
	select {
	case e.commands <- cmd:
		return nil
	case <-e.done:
		return fmt.Errorf("engine stopped")
	case <-ctx.Done():
		return fmt.Errorf("submitting command: %w", ctx.Err())
	}
}

// Run processes commands until ctx is cancelled. It is the only goroutine
// that touches the world.
//
// Postcondition: The intake is closed to new submissions when Run returns.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	e.logger.Info("engine running",
		zap.Int("command_buffer", cap(e.commands)),
	)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping")
			return nil
		case cmd := <-e.commands:
			e.apply(cmd)
		}
	}
}

// apply runs one command. A panic inside a command handler is an engine
// invariant violation: the command is discarded and logged, and the engine
// keeps serving.
func (e *Engine) apply(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("discarding command after invariant violation",
				zap.String("player_id", cmd.PlayerID()),
				zap.Any("command", fmt.Sprintf("%T", cmd)),
				zap.Any("panic", r),
			)
		}
	}()

	switch c := cmd.(type) {
	case Join:
		e.applyJoin(c)
	case Move:
		e.applyMove(c)
	case EnterDungeon:
		e.applyEnterDungeon(c)
	case ExitDungeon:
		e.applyExitDungeon(c)
	case SetInventory:
		e.applySetInventory(c)
	case Chat:
		e.applyChat(c)
	case Leave:
		e.applyLeave(c)
	default:
		e.logger.Error("discarding unknown command",
			zap.String("type", fmt.Sprintf("%T", cmd)),
		)
	}

	if err := e.world.CheckInvariants(); err != nil {
		e.logger.Error("world invariant violated after command",
			zap.String("player_id", cmd.PlayerID()),
			zap.String("command", fmt.Sprintf("%T", cmd)),
			zap.Error(err),
		)
	}
}

func (e *Engine) applyJoin(c Join) {
	spawn := e.spawn(e.world.ActiveKind())
	p := &world.Player{
		ID:      c.ID,
		Name:    c.Name,
		X:       spawn.X,
		Y:       spawn.Y,
		MapKind: e.world.ActiveKind(),
	}
	if err := e.world.AddPlayer(p); err != nil {
		c.Reply <- err
		return
	}
	c.Reply <- nil

	e.logger.Info("player joined",
		zap.String("player_id", c.ID),
		zap.String("name", c.Name),
		zap.Int("players", e.world.PlayerCount()),
	)

	// The new session's first frames, in order: Connected, then the full
	// snapshot. Everyone else just learns about the new player.
	e.dispatcher.Send(c.ID, protocol.NewConnected(c.ID))
	e.dispatcher.Send(c.ID, e.snapshot())
	e.dispatcher.BroadcastOthers(c.ID, protocol.NewPlayerJoined(c.ID, c.Name))
}

func (e *Engine) applyMove(c Move) {
	p, ok := e.world.Player(c.ID)
	if !ok {
		e.logger.Warn("move for unknown player", zap.String("player_id", c.ID))
		return
	}
	if c.Dx < -1 || c.Dx > 1 || c.Dy < -1 || c.Dy > 1 || (c.Dx == 0 && c.Dy == 0) {
		e.dispatcher.Send(c.ID, protocol.NewMessage(msgBadDelta))
		return
	}

	x, y := p.X+c.Dx, p.Y+c.Dy
	m := e.world.ActiveMap()
	verdict := world.CheckMove(m, x, y)
	switch {
	case verdict.OutOfBounds:
		e.dispatcher.Send(c.ID, protocol.NewMessage(msgOutOfBounds))
	case !verdict.Allowed:
		e.dispatcher.Send(c.ID, protocol.NewMessage(verdict.Obstruction.BlockedMessage()))
	default:
		p.X, p.Y = x, y
		e.world.CountTurn()
		e.dispatcher.Broadcast(protocol.NewPlayerMoved(c.ID, x, y))
		if t, _ := m.TileAt(x, y); t == world.Village {
			e.dispatcher.Broadcast(protocol.NewMessage(fmt.Sprintf("%s visits the village.", p.Name)))
		}
	}
}

func (e *Engine) applyEnterDungeon(c EnterDungeon) {
	p, ok := e.world.Player(c.ID)
	if !ok {
		e.logger.Warn("enter dungeon for unknown player", zap.String("player_id", c.ID))
		return
	}
	t, ok := e.world.ActiveMap().TileAt(p.X, p.Y)
	if !ok || t != world.DungeonEntrance {
		e.dispatcher.Send(c.ID, protocol.NewMessage(msgNotAtEntrance))
		return
	}

	// Reuse the active dungeon when one exists; the dungeon instance is
	// shared by all players.
	dungeon := e.world.DungeonMap()
	if dungeon == nil {
		m, err := e.gen.Generate(world.Dungeon)
		if err != nil {
			e.logger.Error("generating dungeon", zap.Error(err))
			e.dispatcher.Send(c.ID, protocol.NewError("the dungeon is unreachable"))
			return
		}
		dungeon = m
	}
	if _, err := e.world.EnterDungeon(dungeon); err != nil {
		e.logger.Error("installing dungeon", zap.Error(err))
		e.dispatcher.Send(c.ID, protocol.NewError("the dungeon is unreachable"))
		return
	}

	// The transition is world-wide: every connected player moves together.
	for _, other := range e.world.Players() {
		other.MapKind = world.Dungeon
		other.X, other.Y = e.cfg.DungeonSpawn.X, e.cfg.DungeonSpawn.Y
	}

	e.logger.Info("party entered dungeon",
		zap.String("triggered_by", c.ID),
		zap.Int("players", e.world.PlayerCount()),
	)
	e.dispatcher.Broadcast(e.snapshot())
	e.dispatcher.Broadcast(protocol.NewMessage(msgDescend))
}

func (e *Engine) applyExitDungeon(c ExitDungeon) {
	p, ok := e.world.Player(c.ID)
	if !ok {
		e.logger.Warn("exit dungeon for unknown player", zap.String("player_id", c.ID))
		return
	}
	if e.world.ActiveKind() != world.Dungeon {
		e.dispatcher.Send(c.ID, protocol.NewMessage(msgNotInDungeon))
		return
	}
	t, ok := e.world.ActiveMap().TileAt(p.X, p.Y)
	if !ok || t != world.DungeonExit {
		e.dispatcher.Send(c.ID, protocol.NewMessage(msgNotAtExit))
		return
	}

	e.world.ExitDungeon()
	for _, other := range e.world.Players() {
		other.MapKind = world.Overworld
		other.X, other.Y = e.cfg.OverworldSpawn.X, e.cfg.OverworldSpawn.Y
	}

	e.logger.Info("party exited dungeon",
		zap.String("triggered_by", c.ID),
		zap.Int("players", e.world.PlayerCount()),
	)
	e.dispatcher.Broadcast(e.snapshot())
	e.dispatcher.Broadcast(protocol.NewMessage(msgEmerge))
}

func (e *Engine) applySetInventory(c SetInventory) {
	p, ok := e.world.Player(c.ID)
	if !ok {
		e.logger.Warn("inventory toggle for unknown player", zap.String("player_id", c.ID))
		return
	}
	p.InventoryOpen = c.Open
	// Purely local to the issuing player.
	e.dispatcher.Send(c.ID, e.snapshot())
}

func (e *Engine) applyChat(c Chat) {
	p, ok := e.world.Player(c.ID)
	if !ok {
		e.logger.Warn("chat for unknown player", zap.String("player_id", c.ID))
		return
	}
	e.dispatcher.Broadcast(protocol.NewChatMessage(p.Name, c.Text))
}

func (e *Engine) applyLeave(c Leave) {
	if _, ok := e.world.Player(c.ID); !ok {
		// A second Leave can only reach the intake through a bug in a
		// session; it is harmless but worth noticing.
		e.logger.Warn("leave for unknown player", zap.String("player_id", c.ID))
		return
	}
	if err := e.world.RemovePlayer(c.ID); err != nil {
		e.logger.Error("removing player", zap.String("player_id", c.ID), zap.Error(err))
		return
	}
	e.dispatcher.Unregister(c.ID)
	e.dispatcher.Broadcast(protocol.NewPlayerLeft(c.ID))

	e.logger.Info("player left",
		zap.String("player_id", c.ID),
		zap.String("reason", c.Reason),
		zap.Int("players", e.world.PlayerCount()),
	)
}

// snapshot builds a GameState frame from the current world state.
func (e *Engine) snapshot() protocol.GameState {
	return protocol.NewGameState(e.world.ActiveMap(), e.world.SnapshotPlayers(), e.world.Turns())
}

func (e *Engine) spawn(kind world.MapKind) world.Coord {
	if kind == world.Dungeon {
		return e.cfg.DungeonSpawn
	}
	return e.cfg.OverworldSpawn
}
