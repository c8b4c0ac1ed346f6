package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CardStatus tracks where a card sits in the review lifecycle.
type CardStatus string

// Possible card status values
const (
	// CardStatusPending is a freshly submitted card awaiting user confirmation.
	CardStatusPending CardStatus = "pending"

	// CardStatusLearning is an activated card cycling through reviews.
	CardStatusLearning CardStatus = "learning"

	// CardStatusAwaitingGrade is a delivered card whose grading controls are
	// live in the chat, waiting for the user's response.
	CardStatusAwaitingGrade CardStatus = "awaiting_grade"

	// CardStatusArchived is a card parked outside the review cycle.
	CardStatusArchived CardStatus = "archived"
)

// ContentKind describes the underlying content of a card.
type ContentKind string

// Possible content kinds
const (
	ContentKindText  ContentKind = "text"
	ContentKindPhoto ContentKind = "photo"
	ContentKindVideo ContentKind = "video"
)

// ReminderMode selects which interval policy governs a card.
type ReminderMode string

// Possible reminder modes
const (
	// ReminderModeAdaptive schedules reviews with the configured adaptive
	// policy (ease-based or ladder-based).
	ReminderModeAdaptive ReminderMode = "adaptive"

	// ReminderModeFixedDaily always schedules the next review one day out.
	ReminderModeFixedDaily ReminderMode = "fixed_daily"

	// ReminderModeFixedWeekly always schedules the next review seven days out.
	ReminderModeFixedWeekly ReminderMode = "fixed_weekly"
)

// Grade is the user's self-assessment of recall difficulty.
type Grade string

// Possible grade values. Again/Hard/Good/Easy belong to the ease policy;
// Again/OK belong to the ladder policy. Fixed modes accept any grade.
const (
	GradeAgain Grade = "again"
	GradeHard  Grade = "hard"
	GradeGood  Grade = "good"
	GradeEasy  Grade = "easy"
	GradeOK    Grade = "ok"
)

// NotifyReason records why a card was delivered.
type NotifyReason string

// Possible notification reasons
const (
	NotifyReasonScheduled NotifyReason = "scheduled"
	NotifyReasonManualNow NotifyReason = "manual_now"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardUserIDEmpty is returned when a card's user ID is zero.
	ErrCardUserIDEmpty = errors.New("card user ID cannot be empty")

	// ErrCardSourceEmpty is returned when a card carries no source references.
	ErrCardSourceEmpty = errors.New("card must reference at least one source message")

	// ErrCardInvalidStatus is returned when a card's status is not one of the
	// known lifecycle states.
	ErrCardInvalidStatus = errors.New("invalid card status")

	// ErrCardInvalidMode is returned when a card's reminder mode is unknown.
	ErrCardInvalidMode = errors.New("invalid reminder mode")

	// ErrCardInvalidSchedule is returned when the scheduling fields violate
	// their floors (negative repetition, interval below one day, easiness
	// below the floor).
	ErrCardInvalidSchedule = errors.New("invalid card scheduling state")
)

// MinEasiness is the floor for the ease-policy easiness factor.
const MinEasiness = 1.3

// Card is a user-submitted learning item tracked through the spaced-repetition
// lifecycle. Scheduling state and delivery bookkeeping live on the card itself;
// all cross-tick state is persisted so a restart loses nothing in flight.
type Card struct {
	ID     uuid.UUID `json:"id"`
	UserID int64     `json:"user_id"`

	// Source reference: the chat the content originates from and the ordered
	// message ids that make it up (more than one for media groups).
	SourceChatID     int64 `json:"source_chat_id"`
	SourceMessageIDs []int `json:"source_message_ids"`

	// Content descriptor for re-delivery and previews.
	Kind    ContentKind `json:"kind"`
	Preview string      `json:"preview"`
	FileIDs []string    `json:"file_ids,omitempty"`

	// Scheduling state.
	Status       CardStatus   `json:"status"`
	Repetition   int          `json:"repetition"`
	IntervalDays int          `json:"interval_days"`
	Easiness     float64      `json:"easiness"`
	ReminderMode ReminderMode `json:"reminder_mode"`
	NextReviewAt *time.Time   `json:"next_review_at,omitempty"`

	// Delivery bookkeeping. PendingMessageID is the message currently carrying
	// grading controls; BaseMessageID is the first delivered copy, reused as a
	// reply anchor for subsequent reminders.
	PendingChatID      *int64     `json:"pending_chat_id,omitempty"`
	PendingMessageID   *int       `json:"pending_message_id,omitempty"`
	BaseMessageID      *int       `json:"base_message_id,omitempty"`
	AwaitingGradeSince *time.Time `json:"awaiting_grade_since,omitempty"`

	LastNotifiedAt      *time.Time   `json:"last_notified_at,omitempty"`
	LastNotifyReason    NotifyReason `json:"last_notify_reason,omitempty"`
	LastNotifyMessageID *int         `json:"last_notify_message_id,omitempty"`

	// Audit.
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	LastGrade      Grade      `json:"last_grade,omitempty"`
}

// NewCard creates a new pending Card for the given user and source messages.
// It generates a new UUID for the card ID and sets the creation/update
// timestamps. Returns an error if validation fails.
func NewCard(
	userID int64,
	sourceChatID int64,
	sourceMessageIDs []int,
	kind ContentKind,
	preview string,
	mode ReminderMode,
) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:               uuid.New(),
		UserID:           userID,
		SourceChatID:     sourceChatID,
		SourceMessageIDs: sourceMessageIDs,
		Kind:             kind,
		Preview:          preview,
		Status:           CardStatusPending,
		Repetition:       0,
		IntervalDays:     0,
		Easiness:         2.5,
		ReminderMode:     mode,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks the Card's fields and cross-field lifecycle invariants.
// Returns the first violated validation error.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.UserID == 0 {
		return ErrCardUserIDEmpty
	}

	if c.SourceChatID == 0 || len(c.SourceMessageIDs) == 0 {
		return ErrCardSourceEmpty
	}

	switch c.Status {
	case CardStatusPending, CardStatusLearning, CardStatusAwaitingGrade, CardStatusArchived:
	default:
		return ErrCardInvalidStatus
	}

	switch c.ReminderMode {
	case ReminderModeAdaptive, ReminderModeFixedDaily, ReminderModeFixedWeekly:
	default:
		return ErrCardInvalidMode
	}

	if c.Repetition < 0 || c.Easiness < MinEasiness {
		return ErrCardInvalidSchedule
	}

	// Interval floor of one day applies once the card has been scheduled.
	if c.NextReviewAt != nil && c.LastReviewedAt != nil && c.IntervalDays < 1 {
		return ErrCardInvalidSchedule
	}

	return c.validateLifecycle()
}

// validateLifecycle enforces the per-status field invariants.
func (c *Card) validateLifecycle() error {
	switch c.Status {
	case CardStatusPending:
		if c.NextReviewAt != nil || c.hasDeliveryState() {
			return ErrCardInvalidSchedule
		}
	case CardStatusAwaitingGrade:
		if c.AwaitingGradeSince == nil || c.PendingMessageID == nil {
			return ErrCardInvalidSchedule
		}
	case CardStatusLearning, CardStatusArchived:
		if c.AwaitingGradeSince != nil || c.PendingMessageID != nil || c.PendingChatID != nil {
			return ErrCardInvalidSchedule
		}
	}
	return nil
}

// hasDeliveryState reports whether any delivery bookkeeping field is set.
func (c *Card) hasDeliveryState() bool {
	return c.PendingChatID != nil ||
		c.PendingMessageID != nil ||
		c.BaseMessageID != nil ||
		c.AwaitingGradeSince != nil
}

// IsDue reports whether the card is eligible for delivery at the given time.
func (c *Card) IsDue(now time.Time) bool {
	return c.Status == CardStatusLearning &&
		c.NextReviewAt != nil &&
		!c.NextReviewAt.After(now)
}

// ValidGradeFor reports whether the grade is meaningful for the given
// adaptive policy. Fixed-mode cards accept every known grade since the grade
// only feeds the audit trail.
func ValidGradeFor(grade Grade, mode ReminderMode, ladderPolicy bool) bool {
	switch grade {
	case GradeAgain:
		return true
	case GradeHard, GradeGood, GradeEasy:
		return mode != ReminderModeAdaptive || !ladderPolicy
	case GradeOK:
		return mode != ReminderModeAdaptive || ladderPolicy
	default:
		return false
	}
}
