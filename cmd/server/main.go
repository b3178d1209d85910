package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nfrund/patientdesk/internal/config"
	"github.com/nfrund/patientdesk/internal/logging"
	"github.com/nfrund/patientdesk/internal/server"
	"github.com/spf13/afero"
)

func main() {
	cfg, err := config.New(afero.NewOsFs(), "")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogFormat, cfg.LogLevel)

	s, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}

	// Register all application routes.
	s.RegisterRoutes()

	if err := s.Start(context.Background()); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
