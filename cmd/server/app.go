package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Rrock-k/interval-learn-bot/internal/config"
	"github.com/Rrock-k/interval-learn-bot/internal/domain/schedule"
	"github.com/Rrock-k/interval-learn-bot/internal/gateway"
	"github.com/Rrock-k/interval-learn-bot/internal/platform/postgres"
	"github.com/Rrock-k/interval-learn-bot/internal/scheduler"
	"github.com/Rrock-k/interval-learn-bot/internal/service/delivery"
	"github.com/Rrock-k/interval-learn-bot/internal/service/review"
	"github.com/Rrock-k/interval-learn-bot/internal/service/sweeper"
	"github.com/Rrock-k/interval-learn-bot/internal/store"
)

// application holds the server's wired dependencies. Everything hangs off
// this struct so serve and cleanup can reach the pieces they manage.
type application struct {
	config *config.Config
	logger *slog.Logger

	db        *sql.DB
	cardStore store.CardStore

	gateway    gateway.Gateway
	engine     schedule.Engine
	dispatcher *delivery.Dispatcher
	sweeper    *sweeper.Sweeper
	reviews    review.Service
	loop       *scheduler.Loop
}

// newApplication wires every component from configuration: database and
// migrations first, then stores, the Telegram gateway, the interval engine,
// and finally the services and scheduler loop that depend on all of them.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	cardStore := postgres.NewPostgresCardStore(db, logger)

	tg := gateway.NewTelegram(cfg.Telegram)

	engine, err := schedule.NewEngine(
		schedule.NewParams(schedule.ParamsConfig{
			Ladder:              cfg.Scheduler.IntervalLadder,
			MaxIntervalDays:     cfg.Scheduler.MaxIntervalDays,
			InitialDelayMinutes: cfg.Scheduler.InitialDelayMinutes,
		}),
		schedule.Policy(cfg.Scheduler.AdaptivePolicy),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create interval engine: %w", err)
	}

	dispatcher := delivery.NewDispatcher(cardStore, tg, nil, delivery.Config{
		RetryBackoff: cfg.Scheduler.DeliveryRetryBackoff,
		LadderPolicy: engine.AdaptivePolicy() == schedule.PolicyLadder,
	}, logger)

	sw := sweeper.New(cardStore, tg, cfg.Scheduler.AwaitingGradeTimeout, logger)

	reviews := review.NewService(cardStore, tg, engine, logger)

	loop := scheduler.New(cardStore, dispatcher, sw, scheduler.Config{
		ScanInterval: cfg.Scheduler.ScanInterval,
		BatchSize:    cfg.Scheduler.BatchSize,
	}, logger)

	return &application{
		config:     cfg,
		logger:     logger,
		db:         db,
		cardStore:  cardStore,
		gateway:    tg,
		engine:     engine,
		dispatcher: dispatcher,
		sweeper:    sw,
		reviews:    reviews,
		loop:       loop,
	}, nil
}

// cleanup releases resources in reverse dependency order: the scheduler
// first so no tick races the closing database handle.
func (app *application) cleanup() {
	if app.loop != nil {
		app.loop.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
