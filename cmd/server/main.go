// Package main runs the tactics battle server: HTTP lobby API plus the
// websocket endpoint rooms are played over.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/grid-tactics-server/internal/catalog"
	"github.com/DoyleJ11/grid-tactics-server/internal/config"
	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
	"github.com/DoyleJ11/grid-tactics-server/internal/httpapi"
	"github.com/DoyleJ11/grid-tactics-server/internal/hub"
	"github.com/DoyleJ11/grid-tactics-server/internal/lobby"
	"github.com/DoyleJ11/grid-tactics-server/internal/observability"
	"github.com/DoyleJ11/grid-tactics-server/internal/ws"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	envFile := flag.String("env", ".env", "dotenv file with TACTICS_ overrides")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("loading env file: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	skills, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("loading skill catalog", zap.String("path", cfg.Catalog.Path), zap.Error(err))
	}
	logger.Info("skill catalog loaded", zap.Int("skills", skills.Len()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, hub.Config{
		Lobby: lobby.Config{
			Rules:     cfg.Game.Rules(),
			Skills:    skills,
			InboxSize: cfg.Lobby.InboxSize,
			Logger:    logger,
		},
		NewSource: func() engine.Source {
			src, err := engine.NewSeededSource()
			if err != nil {
				logger.Fatal("seeding room", zap.Error(err))
			}
			return src
		},
		DefaultRoom: cfg.Game.DefaultRoom,
		Logger:      logger,
	})

	handler := httpapi.SetupRoutes(h, skills, ws.Options{
		ReadTimeout:    cfg.WS.ReadTimeout,
		WriteTimeout:   cfg.WS.WriteTimeout,
		OutboxSize:     cfg.Lobby.OutboxSize,
		OriginPatterns: cfg.WS.OriginPatterns,
		Logger:         logger,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("default_room", cfg.Game.DefaultRoom))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		default: // hub already stopping via ctx
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
