package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewCard(t *testing.T) {
	t.Parallel()

	card, err := NewCard(42, 42, []int{100, 101}, ContentKindPhoto, "vocab list", ReminderModeAdaptive)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if card.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if card.Status != CardStatusPending {
		t.Errorf("Expected pending status, got %s", card.Status)
	}
	if card.Repetition != 0 || card.IntervalDays != 0 {
		t.Errorf("Expected zeroed schedule, got rep=%d interval=%d", card.Repetition, card.IntervalDays)
	}
	if card.Easiness != 2.5 {
		t.Errorf("Expected default easiness 2.5, got %v", card.Easiness)
	}
	if card.NextReviewAt != nil {
		t.Error("Expected nil NextReviewAt for a pending card")
	}
	if card.CreatedAt.IsZero() || card.UpdatedAt.IsZero() {
		t.Error("Expected non-zero timestamps")
	}

	// Invalid user
	if _, err := NewCard(0, 42, []int{100}, ContentKindText, "", ReminderModeAdaptive); !errors.Is(err, ErrCardUserIDEmpty) {
		t.Errorf("Expected ErrCardUserIDEmpty, got %v", err)
	}

	// No source messages
	if _, err := NewCard(42, 42, nil, ContentKindText, "", ReminderModeAdaptive); !errors.Is(err, ErrCardSourceEmpty) {
		t.Errorf("Expected ErrCardSourceEmpty, got %v", err)
	}

	// Unknown mode
	if _, err := NewCard(42, 42, []int{100}, ContentKindText, "", ReminderMode("hourly")); !errors.Is(err, ErrCardInvalidMode) {
		t.Errorf("Expected ErrCardInvalidMode, got %v", err)
	}
}

func TestCardValidateLifecycle(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	msgID := 500
	chatID := int64(42)

	base := func() *Card {
		return &Card{
			ID:               uuid.New(),
			UserID:           42,
			SourceChatID:     42,
			SourceMessageIDs: []int{100},
			Kind:             ContentKindText,
			Status:           CardStatusLearning,
			Easiness:         2.5,
			ReminderMode:     ReminderModeAdaptive,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*Card)
		wantErr error
	}{
		{
			name:    "valid learning card",
			mutate:  func(c *Card) {},
			wantErr: nil,
		},
		{
			name: "pending card must carry no schedule",
			mutate: func(c *Card) {
				c.Status = CardStatusPending
				c.NextReviewAt = &now
			},
			wantErr: ErrCardInvalidSchedule,
		},
		{
			name: "awaiting_grade requires a pending message",
			mutate: func(c *Card) {
				c.Status = CardStatusAwaitingGrade
				c.AwaitingGradeSince = &now
			},
			wantErr: ErrCardInvalidSchedule,
		},
		{
			name: "awaiting_grade requires a timestamp",
			mutate: func(c *Card) {
				c.Status = CardStatusAwaitingGrade
				c.PendingMessageID = &msgID
			},
			wantErr: ErrCardInvalidSchedule,
		},
		{
			name: "valid awaiting_grade card",
			mutate: func(c *Card) {
				c.Status = CardStatusAwaitingGrade
				c.PendingChatID = &chatID
				c.PendingMessageID = &msgID
				c.AwaitingGradeSince = &now
			},
			wantErr: nil,
		},
		{
			name: "learning card must not hold awaiting state",
			mutate: func(c *Card) {
				c.PendingMessageID = &msgID
			},
			wantErr: ErrCardInvalidSchedule,
		},
		{
			name: "easiness below floor",
			mutate: func(c *Card) {
				c.Easiness = 1.2
			},
			wantErr: ErrCardInvalidSchedule,
		},
		{
			name: "negative repetition",
			mutate: func(c *Card) {
				c.Repetition = -1
			},
			wantErr: ErrCardInvalidSchedule,
		},
		{
			name: "unknown status",
			mutate: func(c *Card) {
				c.Status = CardStatus("snoozing")
			},
			wantErr: ErrCardInvalidStatus,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			card := base()
			tc.mutate(card)

			err := card.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
			} else if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCardIsDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	testCases := []struct {
		name   string
		status CardStatus
		next   *time.Time
		want   bool
	}{
		{"learning and past due", CardStatusLearning, &past, true},
		{"learning exactly at due time", CardStatusLearning, &now, true},
		{"learning but not yet due", CardStatusLearning, &future, false},
		{"learning with no schedule", CardStatusLearning, nil, false},
		{"awaiting_grade is never due", CardStatusAwaitingGrade, &past, false},
		{"archived is never due", CardStatusArchived, &past, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			card := &Card{Status: tc.status, NextReviewAt: tc.next}
			if got := card.IsDue(now); got != tc.want {
				t.Errorf("Expected IsDue=%v, got %v", tc.want, got)
			}
		})
	}
}

func TestValidGradeFor(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		grade  Grade
		mode   ReminderMode
		ladder bool
		want   bool
	}{
		{"again always valid", GradeAgain, ReminderModeAdaptive, true, true},
		{"ok valid under ladder", GradeOK, ReminderModeAdaptive, true, true},
		{"good invalid under ladder", GradeGood, ReminderModeAdaptive, true, false},
		{"good valid under ease", GradeGood, ReminderModeAdaptive, false, true},
		{"ok invalid under ease", GradeOK, ReminderModeAdaptive, false, false},
		{"fixed daily accepts ok", GradeOK, ReminderModeFixedDaily, false, true},
		{"fixed weekly accepts easy", GradeEasy, ReminderModeFixedWeekly, true, true},
		{"unknown grade rejected", Grade("brilliant"), ReminderModeAdaptive, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidGradeFor(tc.grade, tc.mode, tc.ladder); got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}
