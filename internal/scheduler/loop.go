// Package scheduler drives the review cycle: a single periodic tick queries
// for due cards, dispatches each one, then runs the recovery sweep. It also
// exposes the on-demand trigger used by operator actions.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rrock-k/interval-learn-bot/internal/domain"
	"github.com/Rrock-k/interval-learn-bot/internal/service/delivery"
	"github.com/Rrock-k/interval-learn-bot/internal/service/sweeper"
	"github.com/Rrock-k/interval-learn-bot/internal/store"
)

// Domain errors for the manual trigger path.
var (
	// ErrCardNotFound is returned when the triggered card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrCardPending is returned when the triggered card has not been
	// activated yet.
	ErrCardPending = errors.New("card has not been activated")

	// ErrCardArchived is returned when the triggered card is archived.
	ErrCardArchived = errors.New("card is archived")
)

// Config holds the loop's cadence and batch settings.
type Config struct {
	// ScanInterval is the period between ticks.
	ScanInterval time.Duration

	// BatchSize bounds how many due cards one tick processes.
	BatchSize int
}

// Loop is the scheduler orchestrator. It holds no card-specific memory; all
// cross-tick state lives in the store, so a restart loses nothing in flight.
type Loop struct {
	cards      store.CardStore
	dispatcher *delivery.Dispatcher
	sweeper    *sweeper.Sweeper
	cfg        Config
	logger     *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// New creates a scheduler Loop.
func New(
	cards store.CardStore,
	dispatcher *delivery.Dispatcher,
	sw *sweeper.Sweeper,
	cfg Config,
	log *slog.Logger,
) *Loop {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if dispatcher == nil {
		panic("dispatcher cannot be nil")
	}
	if sw == nil {
		panic("sweeper cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Loop{
		cards:      cards,
		dispatcher: dispatcher,
		sweeper:    sw,
		cfg:        cfg,
		logger:     log.With(slog.String("component", "scheduler")),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the tick goroutine. The first tick runs immediately so due
// cards are not held hostage to the scan interval after a restart.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return errors.New("scheduler already started")
	}
	l.started = true

	l.wg.Add(1)
	go l.run()

	l.logger.Info("scheduler started",
		slog.Duration("scan_interval", l.cfg.ScanInterval),
		slog.Int("batch_size", l.cfg.BatchSize))
	return nil
}

// Stop halts the timer and waits for an in-flight tick to finish. No
// dispatch is cut off mid-card. Safe to call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return
	}
	l.started = false
	l.mu.Unlock()

	l.cancelFunc()
	l.wg.Wait()
	l.logger.Info("scheduler stopped")
}

// run is the single tick goroutine: ticks never overlap because they all
// execute here.
func (l *Loop) run() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cfg.ScanInterval)
	defer ticker.Stop()

	l.tick()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			l.tick()
		}
	}
}

// tick processes one batch of due cards, then runs the sweeper. A single
// card's failure is logged and the batch continues; nothing here is fatal.
func (l *Loop) tick() {
	now := time.Now().UTC()

	var due []*domain.Card
	err := store.WithRetry(l.ctx, func(ctx context.Context) (err error) {
		due, err = l.cards.ListDueCards(ctx, now, l.cfg.BatchSize)
		return err
	})
	if err != nil {
		l.logger.Error("failed to list due cards", slog.String("error", err.Error()))
		return
	}

	if len(due) > 0 {
		l.logger.Info("processing due cards", slog.Int("count", len(due)))
	}

	for _, card := range due {
		// Stop is honored between cards only. The active dispatch runs on its
		// own context so a card is never cut off mid-delivery; Stop waits for
		// it via the tick goroutine.
		if l.ctx.Err() != nil {
			return
		}

		if err := l.deliver(context.Background(), card, domain.NotifyReasonScheduled); err != nil {
			l.logger.Error("failed to deliver due card",
				slog.String("card_id", card.ID.String()),
				slog.String("error", err.Error()))
		}
	}

	if l.ctx.Err() != nil {
		return
	}

	if _, err := l.sweeper.Sweep(l.ctx, time.Now().UTC()); err != nil {
		l.logger.Error("recovery sweep failed", slog.String("error", err.Error()))
	}
}

// TriggerImmediate dispatches a single card right now, independent of the
// periodic cadence. Pending cards are rejected; an awaiting_grade card has
// its stale delivery cleaned up first. Synchronous with respect to the
// caller.
func (l *Loop) TriggerImmediate(ctx context.Context, cardID uuid.UUID) error {
	var card *domain.Card
	err := store.WithRetry(ctx, func(ctx context.Context) (err error) {
		card, err = l.cards.GetCard(ctx, cardID)
		return err
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			return ErrCardNotFound
		}
		return fmt.Errorf("failed to get card: %w", err)
	}

	switch card.Status {
	case domain.CardStatusPending:
		return ErrCardPending
	case domain.CardStatusArchived:
		return ErrCardArchived
	}

	return l.deliver(ctx, card, domain.NotifyReasonManualNow)
}

// deliver runs the pre-dispatch cleanup when the card still holds a live
// grading message, then dispatches. A card is never dispatched on top of an
// uncleared prior delivery.
func (l *Loop) deliver(ctx context.Context, card *domain.Card, reason domain.NotifyReason) error {
	if card.Status == domain.CardStatusAwaitingGrade || card.PendingMessageID != nil {
		if err := l.dispatcher.CleanupPending(ctx, card); err != nil {
			return fmt.Errorf("failed to clean up stale delivery: %w", err)
		}

		cleared := *card
		cleared.Status = domain.CardStatusLearning
		cleared.PendingChatID = nil
		cleared.PendingMessageID = nil
		cleared.AwaitingGradeSince = nil
		card = &cleared
	}

	return l.dispatcher.Dispatch(ctx, card, reason)
}
