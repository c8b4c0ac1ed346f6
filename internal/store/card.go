package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Rrock-k/interval-learn-bot/internal/domain"
)

// ReviewResult is the persisted outcome of a grading event: the new schedule
// plus the audit fields. SaveReviewResult applies it in one conditional
// update that also clears the pending-delivery state.
type ReviewResult struct {
	Repetition   int
	IntervalDays int
	Easiness     float64
	NextReviewAt time.Time
	Grade        domain.Grade
	ReviewedAt   time.Time
}

// Notification is one entry of the delivery audit log.
type Notification struct {
	ID        int64
	CardID    uuid.UUID
	MessageID int
	Reason    domain.NotifyReason
	SentAt    time.Time
}

// CardStore defines the persistence contract the scheduling core depends on.
// It is independent of storage technology; the postgres package provides the
// concrete adapter.
//
// Every state-transition method is a single conditional update keyed on the
// card's current status. A call that matches no row because the card moved
// concurrently returns ErrConflict (or reports idempotent success where the
// contract says so); this is the serialization point that keeps a concurrent
// tick and manual trigger from double-delivering a card.
type CardStore interface {
	// Create saves a new card. The card must be valid per domain rules.
	Create(ctx context.Context, card *domain.Card) error

	// GetCard retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetCard(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListDueCards returns cards in learning whose NextReviewAt is at or
	// before now, oldest due first, bounded to limit.
	ListDueCards(ctx context.Context, now time.Time, limit int) ([]*domain.Card, error)

	// ListExpiredAwaiting returns cards stuck in awaiting_grade whose
	// AwaitingGradeSince is at or before cutoff.
	ListExpiredAwaiting(ctx context.Context, cutoff time.Time) ([]*domain.Card, error)

	// Activate promotes a pending card to learning with its first review
	// time. Returns ErrConflict if the card is not pending.
	Activate(ctx context.Context, id uuid.UUID, nextReviewAt time.Time) error

	// MarkAwaitingGrade transitions a learning card to awaiting_grade,
	// recording the message that carries the grading controls. Returns
	// ErrConflict if the card is not in learning, which guarantees a card is
	// never delivered twice for the same due cycle.
	MarkAwaitingGrade(
		ctx context.Context,
		id uuid.UUID,
		chatID int64,
		messageID int,
		since time.Time,
	) error

	// ClearAwaitingGrade reverts an awaiting_grade card to learning and
	// clears the pending-message fields. Idempotent: clearing a card that is
	// not awaiting a grade is a no-op, not an error.
	ClearAwaitingGrade(ctx context.Context, id uuid.UUID) error

	// SaveReviewResult applies a grading outcome: status back to learning,
	// new schedule, audit fields, pending fields cleared. Returns ErrConflict
	// if the card is not awaiting a grade.
	SaveReviewResult(ctx context.Context, id uuid.UUID, result ReviewResult) error

	// SetBaseMessage records (or clears, with nil) the base message id used
	// as the reply anchor for lightweight reminders.
	SetBaseMessage(ctx context.Context, id uuid.UUID, messageID *int) error

	// Reschedule moves a learning card's next review time, e.g. after a
	// failed delivery. Returns ErrConflict if the card is not in learning.
	Reschedule(ctx context.Context, id uuid.UUID, nextReviewAt time.Time) error

	// RecordNotification appends a delivery event to the audit log and
	// updates the card's last-notification fields.
	RecordNotification(
		ctx context.Context,
		id uuid.UUID,
		messageID int,
		reason domain.NotifyReason,
		sentAt time.Time,
	) error

	// ListNotifications returns the delivery history for a card, most recent
	// first, bounded to limit. Served over the operational API's history
	// endpoint.
	ListNotifications(ctx context.Context, id uuid.UUID, limit int) ([]Notification, error)

	// Archive parks a card outside the review cycle. Any live awaiting state
	// is cleared. Works from any non-archived status. Part of the lifecycle
	// contract for the conversational layer that owns card management.
	Archive(ctx context.Context, id uuid.UUID) error

	// Restore returns an archived card to learning, leaving NextReviewAt as
	// it was so the card becomes due naturally. Returns ErrConflict if the
	// card is not archived. Lifecycle contract, as with Archive.
	Restore(ctx context.Context, id uuid.UUID) error

	// Delete removes a card and its notification history.
	// Returns ErrCardNotFound if the card does not exist. Lifecycle
	// contract, as with Archive.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a CardStore bound to the given transaction, so multiple
	// operations can be executed atomically via RunInTransaction.
	WithTx(tx *sql.Tx) CardStore
}
