package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"casctl/internal/config"
	"casctl/internal/factory"
	"casctl/internal/ipc"
	"casctl/internal/logging"
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

	f := factory.New(cfg, logger)

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), f, logger)
	if err != nil {
		log.Fatalf("start IPC server: %v", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	logger.Info("casctld ready", logging.String("socket", cfg.SocketPath()))

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		2*time.Duration(cfg.Stop.Timeout)*time.Second)
	defer shutdownCancel()
	if err := f.Clean(shutdownCtx); err != nil {
		logger.Warn("cleanup on shutdown", logging.Error(err))
	}
	logger.Info("casctld shutting down")
}
