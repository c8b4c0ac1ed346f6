package review

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrock-k/interval-learn-bot/internal/domain"
	"github.com/Rrock-k/interval-learn-bot/internal/domain/schedule"
	"github.com/Rrock-k/interval-learn-bot/internal/mocks"
	"github.com/Rrock-k/interval-learn-bot/internal/store"
)

func awaitingCard(t *testing.T) *domain.Card {
	t.Helper()

	chatID := int64(42)
	msgID := 900
	since := time.Now().UTC().Add(-time.Hour)
	next := time.Now().UTC().Add(-2 * time.Hour)
	return &domain.Card{
		ID:                 uuid.New(),
		UserID:             42,
		SourceChatID:       chatID,
		SourceMessageIDs:   []int{100},
		Kind:               domain.ContentKindText,
		Status:             domain.CardStatusAwaitingGrade,
		Repetition:         1,
		IntervalDays:       1,
		Easiness:           2.5,
		ReminderMode:       domain.ReminderModeAdaptive,
		NextReviewAt:       &next,
		PendingChatID:      &chatID,
		PendingMessageID:   &msgID,
		AwaitingGradeSince: &since,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
}

func newTestService(cards *mocks.MemoryCardStore, gw *mocks.MockGateway) Service {
	return NewService(cards, gw, schedule.NewDefaultEngine(), nil)
}

func TestApplyGradeSuccess(t *testing.T) {
	t.Parallel()

	cards := mocks.NewMemoryCardStore()
	gw := mocks.NewMockGateway()
	card := awaitingCard(t)
	cards.Seed(card)

	outcome, err := newTestService(cards, gw).ApplyGrade(
		context.Background(), card.ID, domain.GradeGood)
	require.NoError(t, err)

	assert.Equal(t, card.ID, outcome.CardID)
	assert.Equal(t, 2, outcome.Repetition)
	assert.Equal(t, 6, outcome.IntervalDays)
	assert.Equal(t, 2.5, outcome.Easiness)

	stored := cards.Snapshot(card.ID)
	assert.Equal(t, domain.CardStatusLearning, stored.Status)
	assert.Equal(t, 2, stored.Repetition)
	assert.Equal(t, 6, stored.IntervalDays)
	assert.Equal(t, domain.GradeGood, stored.LastGrade)
	assert.Nil(t, stored.PendingMessageID)
	assert.Nil(t, stored.AwaitingGradeSince)
	require.NotNil(t, stored.LastReviewedAt)
	require.NotNil(t, stored.NextReviewAt)
	assert.True(t, stored.NextReviewAt.After(time.Now().UTC().AddDate(0, 0, 5)))

	// Controls removed from the graded message.
	require.Len(t, gw.ClearControlsCalls, 1)
	assert.Equal(t, 900, gw.ClearControlsCalls[0].MessageID)
}

func TestApplyGradeNotAwaiting(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		status  domain.CardStatus
		wantErr error
	}{
		{"learning card", domain.CardStatusLearning, ErrNotAwaitingGrade},
		{"pending card", domain.CardStatusPending, ErrCardNotActivated},
		{"archived card", domain.CardStatusArchived, ErrNotAwaitingGrade},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cards := mocks.NewMemoryCardStore()
			gw := mocks.NewMockGateway()
			card := awaitingCard(t)
			card.Status = tc.status
			card.PendingChatID = nil
			card.PendingMessageID = nil
			card.AwaitingGradeSince = nil
			if tc.status == domain.CardStatusPending {
				card.NextReviewAt = nil
			}
			cards.Seed(card)

			_, err := newTestService(cards, gw).ApplyGrade(
				context.Background(), card.ID, domain.GradeGood)
			assert.ErrorIs(t, err, tc.wantErr)

			// Nothing mutated.
			stored := cards.Snapshot(card.ID)
			assert.Equal(t, tc.status, stored.Status)
			assert.Equal(t, 1, stored.Repetition)
			assert.Empty(t, gw.ClearControlsCalls)
		})
	}
}

func TestApplyGradeUnknownCard(t *testing.T) {
	t.Parallel()

	cards := mocks.NewMemoryCardStore()
	_, err := newTestService(cards, mocks.NewMockGateway()).ApplyGrade(
		context.Background(), uuid.New(), domain.GradeGood)
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestApplyGradeInvalidGradeForPolicy(t *testing.T) {
	t.Parallel()

	cards := mocks.NewMemoryCardStore()
	card := awaitingCard(t)
	cards.Seed(card)

	// The default engine runs the ease policy, so "ok" is not a valid grade.
	_, err := newTestService(cards, mocks.NewMockGateway()).ApplyGrade(
		context.Background(), card.ID, domain.GradeOK)
	assert.ErrorIs(t, err, ErrInvalidGrade)

	stored := cards.Snapshot(card.ID)
	assert.Equal(t, domain.CardStatusAwaitingGrade, stored.Status)
}

func TestApplyGradeLostRace(t *testing.T) {
	t.Parallel()

	cards := mocks.NewMemoryCardStore()
	card := awaitingCard(t)
	cards.Seed(card)

	// The card leaves awaiting_grade between the read and the write, as when
	// the sweeper reverts it or a duplicate button press lands first.
	cards.SaveReviewResultFn = func(context.Context, uuid.UUID, store.ReviewResult) error {
		return store.ErrConflict
	}

	_, err := newTestService(cards, mocks.NewMockGateway()).ApplyGrade(
		context.Background(), card.ID, domain.GradeGood)
	assert.ErrorIs(t, err, ErrNotAwaitingGrade)
}

func TestActivate(t *testing.T) {
	t.Parallel()

	cards := mocks.NewMemoryCardStore()
	card := awaitingCard(t)
	card.Status = domain.CardStatusPending
	card.NextReviewAt = nil
	card.PendingChatID = nil
	card.PendingMessageID = nil
	card.AwaitingGradeSince = nil
	cards.Seed(card)

	before := time.Now().UTC()
	firstReviewAt, err := newTestService(cards, mocks.NewMockGateway()).Activate(
		context.Background(), card.ID)
	require.NoError(t, err)

	// Default initial delay is ten minutes.
	assert.True(t, firstReviewAt.After(before.Add(9*time.Minute)))
	assert.True(t, firstReviewAt.Before(before.Add(11*time.Minute)))

	stored := cards.Snapshot(card.ID)
	assert.Equal(t, domain.CardStatusLearning, stored.Status)
	require.NotNil(t, stored.NextReviewAt)
	assert.True(t, stored.NextReviewAt.Equal(firstReviewAt))
}

func TestActivateRejectsNonPending(t *testing.T) {
	t.Parallel()

	cards := mocks.NewMemoryCardStore()
	card := awaitingCard(t)
	cards.Seed(card)

	_, err := newTestService(cards, mocks.NewMockGateway()).Activate(
		context.Background(), card.ID)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestActivateUnknownCard(t *testing.T) {
	t.Parallel()

	cards := mocks.NewMemoryCardStore()
	_, err := newTestService(cards, mocks.NewMockGateway()).Activate(
		context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCardNotFound)
}
