package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"yolonode/internal/app"
	"yolonode/internal/config"
	"yolonode/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	appLogger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	application, err := app.NewApp(cfg, appLogger)
	if err != nil {
		appLogger.Error("%v", err)
		appLogger.Close()
		log.Fatalf("Failed to start node: %v", err)
	}

	runErr := application.Run(ctx)
	if err := application.Close(); err != nil {
		appLogger.Warning("Shutdown: %v", err)
	}
	if runErr != nil {
		appLogger.Error("Node failed: %v", runErr)
		appLogger.Close()
		log.Fatalf("Node failed: %v", runErr)
	}
	appLogger.Close()
}
