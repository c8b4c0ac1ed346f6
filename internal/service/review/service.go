// Package review implements the grading entry point used by the
// conversational layer when a user presses a grading control, and card
// activation for the intake flow.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Rrock-k/interval-learn-bot/internal/domain"
	"github.com/Rrock-k/interval-learn-bot/internal/domain/schedule"
	"github.com/Rrock-k/interval-learn-bot/internal/gateway"
	"github.com/Rrock-k/interval-learn-bot/internal/platform/logger"
	"github.com/Rrock-k/interval-learn-bot/internal/store"
)

// Outcome is what a successful grading returns to the caller.
type Outcome struct {
	CardID       uuid.UUID
	Grade        domain.Grade
	Repetition   int
	IntervalDays int
	Easiness     float64
	NextReviewAt time.Time
}

// Service handles grading events and card activation.
type Service interface {
	// ApplyGrade consumes a user's grade for a card awaiting one, computes
	// the next schedule and returns the outcome. The card must be in
	// awaiting_grade; otherwise a domain error is returned and nothing is
	// mutated.
	ApplyGrade(ctx context.Context, cardID uuid.UUID, grade domain.Grade) (*Outcome, error)

	// Activate promotes a pending card to learning with its first review a
	// short configured delay away.
	Activate(ctx context.Context, cardID uuid.UUID) (time.Time, error)
}

// Verify interface compliance at compile time
var _ Service = (*service)(nil)

type service struct {
	cards  store.CardStore
	gw     gateway.Gateway
	engine schedule.Engine
	logger *slog.Logger
}

// NewService creates a review Service.
func NewService(
	cards store.CardStore,
	gw gateway.Gateway,
	engine schedule.Engine,
	log *slog.Logger,
) Service {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if gw == nil {
		panic("gateway cannot be nil")
	}
	if engine == nil {
		panic("engine cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &service{
		cards:  cards,
		gw:     gw,
		engine: engine,
		logger: log.With(slog.String("component", "review_service")),
	}
}

// ApplyGrade implements Service.ApplyGrade.
func (s *service) ApplyGrade(
	ctx context.Context,
	cardID uuid.UUID,
	grade domain.Grade,
) (*Outcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("card_id", cardID.String()),
		slog.String("grade", string(grade)))

	var card *domain.Card
	err := store.WithRetry(ctx, func(ctx context.Context) (err error) {
		card, err = s.cards.GetCard(ctx, cardID)
		return err
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	if card.Status == domain.CardStatusPending {
		return nil, ErrCardNotActivated
	}
	if card.Status != domain.CardStatusAwaitingGrade {
		log.Warn("grade rejected, card not awaiting one",
			slog.String("status", string(card.Status)))
		return nil, ErrNotAwaitingGrade
	}

	now := time.Now().UTC()
	computed, err := s.engine.Review(card, grade, now)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidGrade) {
			return nil, ErrInvalidGrade
		}
		return nil, fmt.Errorf("failed to compute next review: %w", err)
	}

	result := store.ReviewResult{
		Repetition:   computed.Repetition,
		IntervalDays: computed.IntervalDays,
		Easiness:     computed.Easiness,
		NextReviewAt: computed.NextReviewAt,
		Grade:        grade,
		ReviewedAt:   now,
	}

	err = store.WithRetry(ctx, func(ctx context.Context) error {
		return s.cards.SaveReviewResult(ctx, cardID, result)
	})
	if err != nil {
		if store.IsConflictError(err) {
			// The card left awaiting_grade between our read and the write
			// (swept, or a duplicate button press landed first).
			return nil, ErrNotAwaitingGrade
		}
		return nil, fmt.Errorf("failed to save review result: %w", err)
	}

	// The grading controls have served their purpose; removing them is
	// cosmetic, so a failure is logged and ignored.
	if card.PendingChatID != nil && card.PendingMessageID != nil {
		if err := s.gw.ClearControls(ctx, *card.PendingChatID, *card.PendingMessageID); err != nil &&
			!errors.Is(err, gateway.ErrMessageNotFound) {
			log.Warn("failed to clear grading controls",
				slog.Int("message_id", *card.PendingMessageID),
				slog.String("error", err.Error()))
		}
	}

	log.Info("grade applied",
		slog.Int("repetition", computed.Repetition),
		slog.Int("interval_days", computed.IntervalDays),
		slog.Time("next_review_at", computed.NextReviewAt))

	return &Outcome{
		CardID:       cardID,
		Grade:        grade,
		Repetition:   computed.Repetition,
		IntervalDays: computed.IntervalDays,
		Easiness:     computed.Easiness,
		NextReviewAt: computed.NextReviewAt,
	}, nil
}

// Activate implements Service.Activate.
func (s *service) Activate(ctx context.Context, cardID uuid.UUID) (time.Time, error) {
	firstReviewAt := s.engine.InitialReviewAt(time.Now().UTC())

	err := store.WithRetry(ctx, func(ctx context.Context) error {
		return s.cards.Activate(ctx, cardID, firstReviewAt)
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			return time.Time{}, ErrCardNotFound
		}
		if store.IsConflictError(err) {
			return time.Time{}, ErrNotPending
		}
		return time.Time{}, fmt.Errorf("failed to activate card: %w", err)
	}

	s.logger.Info("card activated",
		slog.String("card_id", cardID.String()),
		slog.Time("first_review_at", firstReviewAt))

	return firstReviewAt, nil
}
