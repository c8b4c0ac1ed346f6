// Package sweeper bounds the time a card can sit awaiting a grade without a
// response: expired cards are reverted to learning so the next tick picks
// them up again. No grade is inferred on the user's behalf.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Rrock-k/interval-learn-bot/internal/gateway"
	"github.com/Rrock-k/interval-learn-bot/internal/platform/logger"
	"github.com/Rrock-k/interval-learn-bot/internal/store"
)

// Sweeper reclaims cards stuck in awaiting_grade past the timeout.
type Sweeper struct {
	cards   store.CardStore
	gw      gateway.Gateway
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Sweeper with the given awaiting-grade timeout.
func New(cards store.CardStore, gw gateway.Gateway, timeout time.Duration, log *slog.Logger) *Sweeper {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if gw == nil {
		panic("gateway cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Sweeper{
		cards:   cards,
		gw:      gw,
		timeout: timeout,
		logger:  log.With(slog.String("component", "sweeper")),
	}
}

// Sweep scans for expired awaiting_grade cards and reverts each to learning,
// removing the stale grading controls best-effort. Running it twice over the
// same card is a no-op the second time: the conditional clear matches no row
// once the card has left awaiting_grade.
//
// Returns the number of cards reclaimed. One card's failure is logged and
// does not stop the sweep.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	cutoff := now.Add(-s.timeout)

	cards, err := s.cards.ListExpiredAwaiting(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if len(cards) == 0 {
		return 0, nil
	}

	log.Info("sweeping expired awaiting-grade cards",
		slog.Int("count", len(cards)),
		slog.Time("cutoff", cutoff))

	swept := 0
	for _, card := range cards {
		if ctx.Err() != nil {
			return swept, ctx.Err()
		}

		cardLog := log.With(slog.String("card_id", card.ID.String()))

		// Removing the buttons is cosmetic; the revert below is what
		// restores correctness.
		if card.PendingChatID != nil && card.PendingMessageID != nil {
			err := s.gw.ClearControls(ctx, *card.PendingChatID, *card.PendingMessageID)
			if err != nil && !errors.Is(err, gateway.ErrMessageNotFound) {
				cardLog.Warn("failed to clear expired grading controls",
					slog.Int("message_id", *card.PendingMessageID),
					slog.String("error", err.Error()))
			}
		}

		err := store.WithRetry(ctx, func(ctx context.Context) error {
			return s.cards.ClearAwaitingGrade(ctx, card.ID)
		})
		if err != nil {
			cardLog.Error("failed to revert expired card",
				slog.String("error", err.Error()))
			continue
		}

		cardLog.Info("expired card reverted to learning",
			slog.Time("awaiting_since", *card.AwaitingGradeSince))
		swept++
	}

	return swept, nil
}
