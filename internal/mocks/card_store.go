package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rrock-k/interval-learn-bot/internal/domain"
	"github.com/Rrock-k/interval-learn-bot/internal/store"
)

// MemoryCardStore implements store.CardStore in memory with the full
// conditional-transition semantics. Per-method Fn hooks, when set, replace
// the default behavior so tests can inject failures.
type MemoryCardStore struct {
	mu            sync.Mutex
	cards         map[uuid.UUID]*domain.Card
	notifications []store.Notification
	nextNotifID   int64

	GetCardFn             func(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	ListDueCardsFn        func(ctx context.Context, now time.Time, limit int) ([]*domain.Card, error)
	ListExpiredAwaitingFn func(ctx context.Context, cutoff time.Time) ([]*domain.Card, error)
	ActivateFn            func(ctx context.Context, id uuid.UUID, nextReviewAt time.Time) error
	MarkAwaitingGradeFn   func(ctx context.Context, id uuid.UUID, chatID int64, messageID int, since time.Time) error
	ClearAwaitingGradeFn  func(ctx context.Context, id uuid.UUID) error
	SaveReviewResultFn    func(ctx context.Context, id uuid.UUID, result store.ReviewResult) error
	SetBaseMessageFn      func(ctx context.Context, id uuid.UUID, messageID *int) error
	RescheduleFn          func(ctx context.Context, id uuid.UUID, nextReviewAt time.Time) error
	RecordNotificationFn  func(ctx context.Context, id uuid.UUID, messageID int, reason domain.NotifyReason, sentAt time.Time) error
}

// Verify interface compliance at compile time
var _ store.CardStore = (*MemoryCardStore)(nil)

// NewMemoryCardStore creates an empty in-memory card store.
func NewMemoryCardStore() *MemoryCardStore {
	return &MemoryCardStore{
		cards:       make(map[uuid.UUID]*domain.Card),
		nextNotifID: 1,
	}
}

// Seed inserts a card directly, bypassing validation, so tests can set up
// arbitrary lifecycle states.
func (m *MemoryCardStore) Seed(card *domain.Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[card.ID] = cloneCard(card)
}

// Snapshot returns a copy of the stored card, or nil if absent. Unlike
// GetCard it never errors and ignores the GetCardFn hook.
func (m *MemoryCardStore) Snapshot(id uuid.UUID) *domain.Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok {
		return nil
	}
	return cloneCard(card)
}

// Notifications returns a copy of the recorded notification log.
func (m *MemoryCardStore) Notifications() []store.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

func (m *MemoryCardStore) Create(_ context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return store.ErrInvalidEntity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.cards[card.ID]; exists {
		return store.ErrDuplicate
	}
	m.cards[card.ID] = cloneCard(card)
	return nil
}

func (m *MemoryCardStore) GetCard(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	if m.GetCardFn != nil {
		return m.GetCardFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return cloneCard(card), nil
}

func (m *MemoryCardStore) ListDueCards(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.Card, error) {
	if m.ListDueCardsFn != nil {
		return m.ListDueCardsFn(ctx, now, limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*domain.Card
	for _, card := range m.cards {
		if card.IsDue(now) {
			due = append(due, cloneCard(card))
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextReviewAt.Before(*due[j].NextReviewAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MemoryCardStore) ListExpiredAwaiting(
	ctx context.Context,
	cutoff time.Time,
) ([]*domain.Card, error) {
	if m.ListExpiredAwaitingFn != nil {
		return m.ListExpiredAwaitingFn(ctx, cutoff)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []*domain.Card
	for _, card := range m.cards {
		if card.Status == domain.CardStatusAwaitingGrade &&
			card.AwaitingGradeSince != nil &&
			!card.AwaitingGradeSince.After(cutoff) {
			expired = append(expired, cloneCard(card))
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].AwaitingGradeSince.Before(*expired[j].AwaitingGradeSince)
	})
	return expired, nil
}

func (m *MemoryCardStore) Activate(
	ctx context.Context,
	id uuid.UUID,
	nextReviewAt time.Time,
) error {
	if m.ActivateFn != nil {
		return m.ActivateFn(ctx, id, nextReviewAt)
	}

	return m.transition(id, domain.CardStatusPending, func(card *domain.Card) {
		card.Status = domain.CardStatusLearning
		t := nextReviewAt
		card.NextReviewAt = &t
	})
}

func (m *MemoryCardStore) MarkAwaitingGrade(
	ctx context.Context,
	id uuid.UUID,
	chatID int64,
	messageID int,
	since time.Time,
) error {
	if m.MarkAwaitingGradeFn != nil {
		return m.MarkAwaitingGradeFn(ctx, id, chatID, messageID, since)
	}

	return m.transition(id, domain.CardStatusLearning, func(card *domain.Card) {
		card.Status = domain.CardStatusAwaitingGrade
		card.PendingChatID = &chatID
		card.PendingMessageID = &messageID
		t := since
		card.AwaitingGradeSince = &t
	})
}

func (m *MemoryCardStore) ClearAwaitingGrade(ctx context.Context, id uuid.UUID) error {
	if m.ClearAwaitingGradeFn != nil {
		return m.ClearAwaitingGradeFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	if card.Status != domain.CardStatusAwaitingGrade {
		// Idempotent: already cleared.
		return nil
	}

	card.Status = domain.CardStatusLearning
	card.PendingChatID = nil
	card.PendingMessageID = nil
	card.AwaitingGradeSince = nil
	card.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryCardStore) SaveReviewResult(
	ctx context.Context,
	id uuid.UUID,
	result store.ReviewResult,
) error {
	if m.SaveReviewResultFn != nil {
		return m.SaveReviewResultFn(ctx, id, result)
	}

	return m.transition(id, domain.CardStatusAwaitingGrade, func(card *domain.Card) {
		card.Status = domain.CardStatusLearning
		card.Repetition = result.Repetition
		card.IntervalDays = result.IntervalDays
		card.Easiness = result.Easiness
		next := result.NextReviewAt
		card.NextReviewAt = &next
		reviewed := result.ReviewedAt
		card.LastReviewedAt = &reviewed
		card.LastGrade = result.Grade
		card.PendingChatID = nil
		card.PendingMessageID = nil
		card.AwaitingGradeSince = nil
	})
}

func (m *MemoryCardStore) SetBaseMessage(ctx context.Context, id uuid.UUID, messageID *int) error {
	if m.SetBaseMessageFn != nil {
		return m.SetBaseMessageFn(ctx, id, messageID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	if messageID == nil {
		card.BaseMessageID = nil
	} else {
		v := *messageID
		card.BaseMessageID = &v
	}
	card.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryCardStore) Reschedule(
	ctx context.Context,
	id uuid.UUID,
	nextReviewAt time.Time,
) error {
	if m.RescheduleFn != nil {
		return m.RescheduleFn(ctx, id, nextReviewAt)
	}

	return m.transition(id, domain.CardStatusLearning, func(card *domain.Card) {
		t := nextReviewAt
		card.NextReviewAt = &t
	})
}

func (m *MemoryCardStore) RecordNotification(
	ctx context.Context,
	id uuid.UUID,
	messageID int,
	reason domain.NotifyReason,
	sentAt time.Time,
) error {
	if m.RecordNotificationFn != nil {
		return m.RecordNotificationFn(ctx, id, messageID, reason, sentAt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}

	m.notifications = append(m.notifications, store.Notification{
		ID:        m.nextNotifID,
		CardID:    id,
		MessageID: messageID,
		Reason:    reason,
		SentAt:    sentAt,
	})
	m.nextNotifID++

	t := sentAt
	card.LastNotifiedAt = &t
	card.LastNotifyReason = reason
	v := messageID
	card.LastNotifyMessageID = &v
	card.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryCardStore) ListNotifications(
	_ context.Context,
	id uuid.UUID,
	limit int,
) ([]store.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		if m.notifications[i].CardID == id {
			out = append(out, m.notifications[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryCardStore) Archive(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	if card.Status == domain.CardStatusArchived {
		return store.ErrConflict
	}

	card.Status = domain.CardStatusArchived
	card.PendingChatID = nil
	card.PendingMessageID = nil
	card.AwaitingGradeSince = nil
	card.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryCardStore) Restore(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	if card.Status != domain.CardStatusArchived {
		return store.ErrConflict
	}

	card.Status = domain.CardStatusLearning
	card.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryCardStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cards[id]; !ok {
		return store.ErrCardNotFound
	}
	delete(m.cards, id)

	kept := m.notifications[:0]
	for _, n := range m.notifications {
		if n.CardID != id {
			kept = append(kept, n)
		}
	}
	m.notifications = kept
	return nil
}

func (m *MemoryCardStore) WithTx(_ *sql.Tx) store.CardStore {
	return m
}

// transition applies mutate to the card iff it is currently in want,
// mirroring the conditional-update contract of the postgres adapter.
func (m *MemoryCardStore) transition(
	id uuid.UUID,
	want domain.CardStatus,
	mutate func(*domain.Card),
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	if card.Status != want {
		return store.ErrConflict
	}

	mutate(card)
	card.UpdatedAt = time.Now().UTC()
	return nil
}

// cloneCard returns a deep copy so callers cannot mutate stored state.
func cloneCard(c *domain.Card) *domain.Card {
	out := *c
	out.SourceMessageIDs = append([]int(nil), c.SourceMessageIDs...)
	out.FileIDs = append([]string(nil), c.FileIDs...)
	out.NextReviewAt = cloneTime(c.NextReviewAt)
	out.PendingChatID = cloneInt64(c.PendingChatID)
	out.PendingMessageID = cloneInt(c.PendingMessageID)
	out.BaseMessageID = cloneInt(c.BaseMessageID)
	out.AwaitingGradeSince = cloneTime(c.AwaitingGradeSince)
	out.LastNotifiedAt = cloneTime(c.LastNotifiedAt)
	out.LastNotifyMessageID = cloneInt(c.LastNotifyMessageID)
	out.LastReviewedAt = cloneTime(c.LastReviewedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneInt64(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
