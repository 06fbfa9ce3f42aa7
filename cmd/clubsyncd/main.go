package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/club3d/clubsync/internal/config"
	"github.com/club3d/clubsync/internal/hub"
	"github.com/club3d/clubsync/internal/logging"
	"github.com/club3d/clubsync/ws"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.LogFile)
	defer log.Sync()

	h := hub.New(log, cfg.MoveInterval)

	serverCfg := ws.NewConfig(
		cfg.Addr,
		&ws.RateLimitConfig{
			MessagesPerSecond: rate.Limit(cfg.MessagesPerSecond),
			Burst:             cfg.MessageBurst,
			Enabled:           true,
		},
		ws.OriginList(cfg.AllowedOrigins),
		h.Connect,
		h.Disconnect,
	)
	serverCfg = ws.WithHeartbeat(serverCfg, cfg.PingInterval, cfg.PongTimeout)

	server := ws.New(serverCfg, log)

	ctx := context.Background()
	if err := h.Register(ctx, server); err != nil {
		log.Fatalw("failed to register event handlers", "error", err)
	}
	if err := server.Start(ctx); err != nil {
		log.Fatalw("failed to start server", "addr", cfg.Addr, "error", err)
	}
	log.Infow("clubsync listening", "addr", cfg.Addr, "origins", cfg.AllowedOrigins)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(stopCtx); err != nil {
		log.Errorw("shutdown error", "error", err)
	}
}
