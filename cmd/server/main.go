// Package main implements the entry point for the interval-learn-bot
// server, which schedules spaced-repetition reviews of saved Telegram
// messages and delivers them back to the user for grading.
package main

import (
	"fmt"
	"log"

	"github.com/Rrock-k/interval-learn-bot/internal/config"
	"github.com/Rrock-k/interval-learn-bot/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// run loads configuration, wires the application, and blocks until the
// server shuts down. Split from main so the error path has a single exit.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"scan_interval", cfg.Scheduler.ScanInterval,
		"adaptive_policy", cfg.Scheduler.AdaptivePolicy)

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	if err := app.serve(); err != nil {
		return err
	}

	appLogger.Info("server stopped")
	return nil
}
