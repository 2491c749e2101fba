// Package main provides the dungeon server binary: the authoritative
// multiplayer world behind a websocket frontend.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/frontend/ws"
	"github.com/cory-johannsen/dungeon/internal/game/broadcast"
	"github.com/cory-johannsen/dungeon/internal/game/engine"
	"github.com/cory-johannsen/dungeon/internal/game/terrain"
	"github.com/cory-johannsen/dungeon/internal/game/world"
	"github.com/cory-johannsen/dungeon/internal/observability"
	"github.com/cory-johannsen/dungeon/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting dungeon server",
		zap.String("addr", cfg.Server.Addr()),
	)

	gen, err := terrain.NewGenerator(terrain.Config{
		OverworldWidth:  cfg.Game.OverworldWidth,
		OverworldHeight: cfg.Game.OverworldHeight,
		DungeonWidth:    cfg.Game.DungeonWidth,
		DungeonHeight:   cfg.Game.DungeonHeight,
		OverworldSpawn:  world.Coord{X: cfg.Game.OverworldSpawnX, Y: cfg.Game.OverworldSpawnY},
		DungeonSpawn:    world.Coord{X: cfg.Game.DungeonSpawnX, Y: cfg.Game.DungeonSpawnY},
		Seed:            cfg.Game.Seed,
		MapFile:         cfg.Game.MapFile,
	}, logger)
	if err != nil {
		logger.Fatal("creating terrain generator", zap.Error(err))
	}

	mapStart := time.Now()
	overworld, err := gen.Generate(world.Overworld)
	if err != nil {
		logger.Fatal("generating overworld", zap.Error(err))
	}
	logger.Info("overworld ready",
		zap.Int("width", overworld.Width),
		zap.Int("height", overworld.Height),
		zap.Duration("elapsed", time.Since(mapStart)),
	)

	w, err := world.New(overworld)
	if err != nil {
		logger.Fatal("creating world", zap.Error(err))
	}

	dispatcher := broadcast.NewDispatcher(logger)
	eng := engine.New(engine.Config{
		OverworldSpawn: world.Coord{X: cfg.Game.OverworldSpawnX, Y: cfg.Game.OverworldSpawnY},
		DungeonSpawn:   world.Coord{X: cfg.Game.DungeonSpawnX, Y: cfg.Game.DungeonSpawnY},
		CommandBuffer:  cfg.Server.CommandBuffer,
	}, w, gen, dispatcher, logger)

	acceptor := ws.NewAcceptor(cfg.Server, eng, dispatcher, logger)

	lifecycle := server.NewLifecycle(logger)

	engineCtx, stopEngine := context.WithCancel(context.Background())
	lifecycle.Add("engine", &server.FuncService{
		StartFn: func() error { return eng.Run(engineCtx) },
		StopFn:  stopEngine,
	})
	lifecycle.Add("websocket", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("dungeon server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("addr", cfg.Server.Addr()),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
