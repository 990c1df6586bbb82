package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"reeler/internal/bus"
	"reeler/internal/config"
	"reeler/internal/daemon"
	"reeler/internal/encode"
	"reeler/internal/logging"
	"reeler/internal/session"
	"reeler/internal/store"
	"reeler/internal/surface"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	history, err := store.Open(cfg)
	if err != nil {
		logger.Error("open session store", logging.Error(err))
		os.Exit(1)
	}

	events := bus.New()
	defer events.Close()

	dialer := surface.NewAgentDialer(cfg.Capture.AgentURL, cfg.ReadyTimeout())
	encoder := encode.NewFFmpeg(cfg)
	manager := session.NewManager(cfg, dialer, encoder, events, history, nil, logger)

	d, err := daemon.New(cfg, manager, history, events, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("reelerd shutting down")
}
