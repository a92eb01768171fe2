package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"agentlaunch/internal/config"
	"agentlaunch/internal/journal"
	"agentlaunch/internal/launch"
	"agentlaunch/internal/logging"
	"agentlaunch/internal/server"
	"agentlaunch/internal/services/clawnch"
	"agentlaunch/internal/services/fal"
	"agentlaunch/internal/services/moltbook"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	lock := flock.New(cfg.LockFilePath())
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("acquire lock", logging.Error(err))
		return
	}
	if !locked {
		logger.Error("agentlaunchd is already running", logging.String("lock", cfg.LockFilePath()))
		return
	}
	defer func() { _ = lock.Unlock() }()

	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		logger.Error("open journal", logging.Error(err))
		return
	}
	defer store.Close()

	moltbookClient, err := moltbook.New(cfg.Moltbook.BaseURL, cfg.Moltbook.Submolt)
	if err != nil {
		logger.Error("moltbook client", logging.Error(err))
		return
	}
	clawnchClient, err := clawnch.New(cfg.Clawnch.BaseURL, time.Duration(cfg.Clawnch.TimeoutSeconds)*time.Second)
	if err != nil {
		logger.Error("clawnch client", logging.Error(err))
		return
	}
	falClient := fal.New(fal.Config{
		APIKey:         cfg.Fal.APIKey,
		BaseURL:        cfg.Fal.BaseURL,
		ImageModel:     cfg.Fal.ImageModel,
		TextModel:      cfg.Fal.TextModel,
		FallbackURL:    cfg.Launch.FallbackImageURL,
		TimeoutSeconds: cfg.Fal.TimeoutSeconds,
	}, fal.WithLogger(logger))

	orchestrator := launch.NewOrchestrator(moltbookClient, clawnchClient, store, cfg.Launch.FallbackImageURL, logger)

	srv, err := server.New(cfg, server.Deps{
		Registrar:  moltbookClient,
		Logos:      falClient,
		Randomizer: falClient,
		Launcher:   orchestrator,
		History:    store,
	}, logger)
	if err != nil {
		logger.Error("create server", logging.Error(err))
		return
	}
	if err := srv.Start(ctx); err != nil {
		logger.Error("start server", logging.Error(err))
		return
	}

	<-ctx.Done()
	srv.Stop()
	logger.Info("agentlaunchd shutting down")
}
