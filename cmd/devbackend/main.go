package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/mkrogh/storefront/internal/devserver"
	"github.com/mkrogh/storefront/pkg/config"
	"github.com/mkrogh/storefront/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "devbackend"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "devbackend",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	server, err := devserver.NewServer(cfg.DevServer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build dev server", err)
		os.Exit(1)
	}

	logg.Info(logg.WithField(context.Background(), "port", cfg.DevServer.Port), "dev backend listening")
	if err := server.Run(cfg.DevServer.Port); err != nil {
		logg.Error(context.Background(), "dev backend stopped", err)
		os.Exit(1)
	}
}
