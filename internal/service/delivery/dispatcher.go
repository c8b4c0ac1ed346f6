// Package delivery implements the notification dispatcher: it carries a due
// card's content to its target chat with grading controls attached, preferring
// a lightweight reply-anchored reminder over re-sending heavy content, and
// self-healing when the anchor has disappeared.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/Rrock-k/interval-learn-bot/internal/domain"
	"github.com/Rrock-k/interval-learn-bot/internal/gateway"
	"github.com/Rrock-k/interval-learn-bot/internal/platform/logger"
	"github.com/Rrock-k/interval-learn-bot/internal/store"
)

// TargetResolver picks the chat a card's reviews are delivered to. The
// surrounding application can plug in per-user notification destinations; the
// default falls back to the chat the card was submitted from.
type TargetResolver interface {
	Resolve(ctx context.Context, card *domain.Card) (gateway.Target, error)
}

// SourceChatResolver resolves every card to its own source chat.
type SourceChatResolver struct{}

// Resolve implements TargetResolver.
func (SourceChatResolver) Resolve(_ context.Context, card *domain.Card) (gateway.Target, error) {
	return gateway.Target{ChatID: card.SourceChatID}, nil
}

// Config holds the dispatcher's policy knobs.
type Config struct {
	// RetryBackoff is how far a card is pushed out after a failed delivery.
	RetryBackoff time.Duration

	// LadderPolicy selects the two-grade button set for adaptive cards
	// instead of the four-grade one.
	LadderPolicy bool
}

// Dispatcher delivers cards and persists the resulting awaiting-grade state.
type Dispatcher struct {
	cards    store.CardStore
	gw       gateway.Gateway
	resolver TargetResolver
	cfg      Config
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil resolver defaults to
// SourceChatResolver; a nil logger defaults to slog.Default().
func NewDispatcher(
	cards store.CardStore,
	gw gateway.Gateway,
	resolver TargetResolver,
	cfg Config,
	log *slog.Logger,
) *Dispatcher {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if gw == nil {
		panic("gateway cannot be nil")
	}
	if resolver == nil {
		resolver = SourceChatResolver{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		cards:    cards,
		gw:       gw,
		resolver: resolver,
		cfg:      cfg,
		logger:   log.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch delivers the card with grading controls and transitions it to
// awaiting_grade. The card must be in learning with no live pending message;
// callers clear stale deliveries first (see CleanupPending).
//
// An unrecoverable delivery error reschedules the card RetryBackoff out and
// is returned for logging; the card stays in learning.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	card *domain.Card,
	reason domain.NotifyReason,
) error {
	log := logger.FromContextOrDefault(ctx, d.logger).With(
		slog.String("card_id", card.ID.String()),
		slog.String("reason", string(reason)),
	)

	target, err := d.resolver.Resolve(ctx, card)
	if err != nil {
		return d.deliveryFailed(ctx, card, log, fmt.Errorf("failed to resolve target: %w", err))
	}

	buttons := d.gradeButtons(card)

	var messageID int
	if card.BaseMessageID == nil {
		messageID, err = d.copyFull(ctx, card, target, buttons, log)
	} else {
		messageID, err = d.sendReminder(ctx, card, target, buttons, log)
	}
	if err != nil {
		return d.deliveryFailed(ctx, card, log, err)
	}

	now := time.Now().UTC()
	err = store.WithRetry(ctx, func(ctx context.Context) error {
		return d.cards.MarkAwaitingGrade(ctx, card.ID, target.ChatID, messageID, now)
	})
	if err != nil {
		if store.IsConflictError(err) {
			// A concurrent trigger delivered this card first. Withdraw our
			// copy so the user sees a single set of grading controls.
			log.Warn("lost delivery race, withdrawing message",
				slog.Int("message_id", messageID))
			if delErr := d.gw.DeleteMessage(ctx, target.ChatID, messageID); delErr != nil {
				log.Warn("failed to withdraw duplicate delivery",
					slog.String("error", delErr.Error()))
			}
			return err
		}
		return fmt.Errorf("failed to mark awaiting grade: %w", err)
	}

	err = store.WithRetry(ctx, func(ctx context.Context) error {
		return d.cards.RecordNotification(ctx, card.ID, messageID, reason, now)
	})
	if err != nil {
		// The delivery itself succeeded; a lost audit record is logged, not
		// surfaced.
		log.Warn("failed to record notification", slog.String("error", err.Error()))
	}

	log.Info("card delivered",
		slog.Int("message_id", messageID),
		slog.Int64("chat_id", target.ChatID))
	return nil
}

// CleanupPending removes the grading controls of a stale delivery and clears
// the awaiting state, returning the card to learning. Control removal is
// best-effort; the state transition is what matters.
func (d *Dispatcher) CleanupPending(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, d.logger).With(
		slog.String("card_id", card.ID.String()))

	if card.PendingChatID != nil && card.PendingMessageID != nil {
		err := d.gw.ClearControls(ctx, *card.PendingChatID, *card.PendingMessageID)
		if err != nil && !errors.Is(err, gateway.ErrMessageNotFound) {
			log.Warn("failed to clear stale grading controls",
				slog.Int("message_id", *card.PendingMessageID),
				slog.String("error", err.Error()))
		}
	}

	return store.WithRetry(ctx, func(ctx context.Context) error {
		return d.cards.ClearAwaitingGrade(ctx, card.ID)
	})
}

// copyFull copies the card's source content into the target chat (all source
// messages, original order, controls on the last) and records the base
// message id for future reply-anchored reminders.
func (d *Dispatcher) copyFull(
	ctx context.Context,
	card *domain.Card,
	target gateway.Target,
	buttons []gateway.Button,
	log *slog.Logger,
) (int, error) {
	source := gateway.SourceRef{
		ChatID:     card.SourceChatID,
		MessageIDs: card.SourceMessageIDs,
	}

	ids, err := d.gw.CopyContent(ctx, target, source, buttons)
	if err != nil {
		return 0, fmt.Errorf("failed to copy content: %w", err)
	}

	last, err := lo.Last(ids)
	if err != nil {
		return 0, fmt.Errorf("gateway returned no message ids: %w", err)
	}

	err = store.WithRetry(ctx, func(ctx context.Context) error {
		return d.cards.SetBaseMessage(ctx, card.ID, &last)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record base message: %w", err)
	}

	log.Debug("delivered full copy",
		slog.Int("messages", len(ids)),
		slog.Int("base_message_id", last))
	return last, nil
}

// sendReminder sends a short reminder that replies to the base message, so
// heavy content is not re-uploaded on every review. If the anchor is gone,
// the base id is cleared and delivery falls back to a full re-copy.
func (d *Dispatcher) sendReminder(
	ctx context.Context,
	card *domain.Card,
	target gateway.Target,
	buttons []gateway.Button,
	log *slog.Logger,
) (int, error) {
	messageID, err := d.gw.SendText(ctx, target, reminderText(card), card.BaseMessageID, buttons)
	if err == nil {
		log.Debug("delivered reminder",
			slog.Int("message_id", messageID),
			slog.Int("anchor", *card.BaseMessageID))
		return messageID, nil
	}

	if !errors.Is(err, gateway.ErrReplyTargetMissing) {
		return 0, fmt.Errorf("failed to send reminder: %w", err)
	}

	log.Info("reply anchor missing, falling back to full copy",
		slog.Int("stale_anchor", *card.BaseMessageID))

	clearErr := store.WithRetry(ctx, func(ctx context.Context) error {
		return d.cards.SetBaseMessage(ctx, card.ID, nil)
	})
	if clearErr != nil {
		return 0, fmt.Errorf("failed to clear stale base message: %w", clearErr)
	}

	return d.copyFull(ctx, card, target, buttons, log)
}

// deliveryFailed reschedules the card for a later attempt and wraps the
// original error. The card never enters awaiting_grade on a failed delivery.
func (d *Dispatcher) deliveryFailed(
	ctx context.Context,
	card *domain.Card,
	log *slog.Logger,
	cause error,
) error {
	retryAt := time.Now().UTC().Add(d.cfg.RetryBackoff)

	err := store.WithRetry(ctx, func(ctx context.Context) error {
		return d.cards.Reschedule(ctx, card.ID, retryAt)
	})
	if err != nil {
		log.Error("failed to reschedule after delivery failure",
			slog.String("reschedule_error", err.Error()),
			slog.String("delivery_error", cause.Error()))
		return fmt.Errorf("delivery failed and reschedule failed: %v (delivery: %w)", err, cause)
	}

	log.Warn("delivery failed, card rescheduled",
		slog.Time("retry_at", retryAt),
		slog.String("error", cause.Error()))
	return fmt.Errorf("delivery failed, retrying at %s: %w", retryAt.Format(time.RFC3339), cause)
}

// gradeButtons builds the grading control set for the card's policy.
func (d *Dispatcher) gradeButtons(card *domain.Card) []gateway.Button {
	if card.ReminderMode != domain.ReminderModeAdaptive || d.cfg.LadderPolicy {
		return []gateway.Button{
			{Text: "Again", Data: gradeData(card, domain.GradeAgain)},
			{Text: "OK", Data: gradeData(card, domain.GradeOK)},
		}
	}

	return []gateway.Button{
		{Text: "Again", Data: gradeData(card, domain.GradeAgain)},
		{Text: "Hard", Data: gradeData(card, domain.GradeHard)},
		{Text: "Good", Data: gradeData(card, domain.GradeGood)},
		{Text: "Easy", Data: gradeData(card, domain.GradeEasy)},
	}
}

// gradeData encodes a grading callback payload.
func gradeData(card *domain.Card, grade domain.Grade) string {
	return fmt.Sprintf("grade:%s:%s", card.ID, grade)
}

// reminderText is the short text of a reply-anchored reminder.
func reminderText(card *domain.Card) string {
	if card.Preview != "" {
		return fmt.Sprintf("Time to review: %s", card.Preview)
	}
	return "Time to review this card."
}
