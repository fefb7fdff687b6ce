// Package main runs the arena game server: the WebSocket endpoint, the room
// simulations behind it, and the health and metrics surfaces.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/voidhaven/arena/internal/config"
	"github.com/voidhaven/arena/internal/game/entity"
	"github.com/voidhaven/arena/internal/game/room"
	"github.com/voidhaven/arena/internal/network"
	"github.com/voidhaven/arena/internal/observability"
	"github.com/voidhaven/arena/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file; empty = defaults and environment")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "gameserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	catalog, err := entity.LoadCatalog(cfg.Game.EnemyCatalogPath)
	if err != nil {
		return fmt.Errorf("loading enemy catalog: %w", err)
	}

	metrics := observability.NewMetrics()
	hub := network.NewHub(logger, metrics, cfg.Transport)
	rooms := room.NewManager(logger, catalog, hub.Deliver)
	hub.BindRooms(rooms)
	router := network.NewRouter(logger, metrics, hub, rooms)
	httpServer := network.NewServer(logger, metrics, cfg, hub, rooms, router)

	logger.Info("starting gameserver",
		zap.String("addr", cfg.HTTP.Addr()),
		zap.Bool("production", cfg.HTTP.Production),
	)

	lc := server.NewLifecycle(logger)
	lc.Add("reaper", hub)
	lc.Add("http", httpServer)

	if err := lc.Run(context.Background()); err != nil {
		return err
	}

	rooms.DestroyAll()
	return nil
}
