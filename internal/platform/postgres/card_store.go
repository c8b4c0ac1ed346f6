package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Rrock-k/interval-learn-bot/internal/domain"
	"github.com/Rrock-k/interval-learn-bot/internal/store"
)

// psql builds queries with PostgreSQL-style $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// cardColumns is the canonical column order used by every card SELECT.
var cardColumns = []string{
	"id", "user_id",
	"source_chat_id", "source_message_ids",
	"kind", "preview", "file_ids",
	"status", "repetition", "interval_days", "easiness", "reminder_mode", "next_review_at",
	"pending_chat_id", "pending_message_id", "base_message_id", "awaiting_grade_since",
	"last_notified_at", "last_notify_reason", "last_notify_message_id",
	"created_at", "updated_at", "last_reviewed_at", "last_grade",
}

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the
// CardStore interface. It accepts a database connection or transaction that
// is initialized and managed by the caller. If logger is nil, the default
// logger is used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx implements store.CardStore.WithTx
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{db: tx, logger: s.logger}
}

// Create implements store.CardStore.Create
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	sourceIDs, err := json.Marshal(card.SourceMessageIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal source message ids: %w", err)
	}
	fileIDs, err := json.Marshal(card.FileIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal file ids: %w", err)
	}

	query := `
		INSERT INTO cards (
			id, user_id, source_chat_id, source_message_ids,
			kind, preview, file_ids,
			status, repetition, interval_days, easiness, reminder_mode,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = s.db.ExecContext(ctx, query,
		card.ID, card.UserID, card.SourceChatID, sourceIDs,
		string(card.Kind), card.Preview, fileIDs,
		string(card.Status), card.Repetition, card.IntervalDays, card.Easiness,
		string(card.ReminderMode),
		card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		return MapError(err)
	}

	return nil
}

// GetCard implements store.CardStore.GetCard
func (s *PostgresCardStore) GetCard(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query, args, err := psql.Select(cardColumns...).
		From("cards").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	card, err := scanCard(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrCardNotFound
		}
		return nil, MapError(err)
	}

	return card, nil
}

// ListDueCards implements store.CardStore.ListDueCards
func (s *PostgresCardStore) ListDueCards(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.Card, error) {
	query, args, err := psql.Select(cardColumns...).
		From("cards").
		Where(sq.Eq{"status": string(domain.CardStatusLearning)}).
		Where(sq.LtOrEq{"next_review_at": now}).
		OrderBy("next_review_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return s.queryCards(ctx, query, args...)
}

// ListExpiredAwaiting implements store.CardStore.ListExpiredAwaiting
func (s *PostgresCardStore) ListExpiredAwaiting(
	ctx context.Context,
	cutoff time.Time,
) ([]*domain.Card, error) {
	query, args, err := psql.Select(cardColumns...).
		From("cards").
		Where(sq.Eq{"status": string(domain.CardStatusAwaitingGrade)}).
		Where(sq.LtOrEq{"awaiting_grade_since": cutoff}).
		OrderBy("awaiting_grade_since ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return s.queryCards(ctx, query, args...)
}

// Activate implements store.CardStore.Activate
func (s *PostgresCardStore) Activate(
	ctx context.Context,
	id uuid.UUID,
	nextReviewAt time.Time,
) error {
	query := `
		UPDATE cards
		SET status = $1, next_review_at = $2, updated_at = $3
		WHERE id = $4 AND status = $5`

	return s.conditionalUpdate(ctx, id, query,
		string(domain.CardStatusLearning), nextReviewAt, time.Now().UTC(),
		id, string(domain.CardStatusPending),
	)
}

// MarkAwaitingGrade implements store.CardStore.MarkAwaitingGrade
func (s *PostgresCardStore) MarkAwaitingGrade(
	ctx context.Context,
	id uuid.UUID,
	chatID int64,
	messageID int,
	since time.Time,
) error {
	query := `
		UPDATE cards
		SET status = $1,
		    pending_chat_id = $2,
		    pending_message_id = $3,
		    awaiting_grade_since = $4,
		    updated_at = $5
		WHERE id = $6 AND status = $7`

	return s.conditionalUpdate(ctx, id, query,
		string(domain.CardStatusAwaitingGrade), chatID, messageID, since, time.Now().UTC(),
		id, string(domain.CardStatusLearning),
	)
}

// ClearAwaitingGrade implements store.CardStore.ClearAwaitingGrade
func (s *PostgresCardStore) ClearAwaitingGrade(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE cards
		SET status = $1,
		    pending_chat_id = NULL,
		    pending_message_id = NULL,
		    awaiting_grade_since = NULL,
		    updated_at = $2
		WHERE id = $3 AND status = $4`

	result, err := s.db.ExecContext(ctx, query,
		string(domain.CardStatusLearning), time.Now().UTC(),
		id, string(domain.CardStatusAwaitingGrade),
	)
	if err != nil {
		return MapError(err)
	}

	// Zero affected rows means the card already left awaiting_grade; the
	// clear is idempotent, so only a missing card is an error.
	if err := CheckRowsAffected(result, "card"); err != nil {
		if _, getErr := s.GetCard(ctx, id); getErr != nil {
			return getErr
		}
		return nil
	}

	return nil
}

// SaveReviewResult implements store.CardStore.SaveReviewResult
func (s *PostgresCardStore) SaveReviewResult(
	ctx context.Context,
	id uuid.UUID,
	result store.ReviewResult,
) error {
	query := `
		UPDATE cards
		SET status = $1,
		    repetition = $2,
		    interval_days = $3,
		    easiness = $4,
		    next_review_at = $5,
		    last_reviewed_at = $6,
		    last_grade = $7,
		    pending_chat_id = NULL,
		    pending_message_id = NULL,
		    awaiting_grade_since = NULL,
		    updated_at = $8
		WHERE id = $9 AND status = $10`

	return s.conditionalUpdate(ctx, id, query,
		string(domain.CardStatusLearning),
		result.Repetition, result.IntervalDays, result.Easiness,
		result.NextReviewAt, result.ReviewedAt, string(result.Grade),
		time.Now().UTC(),
		id, string(domain.CardStatusAwaitingGrade),
	)
}

// SetBaseMessage implements store.CardStore.SetBaseMessage
func (s *PostgresCardStore) SetBaseMessage(
	ctx context.Context,
	id uuid.UUID,
	messageID *int,
) error {
	query := `UPDATE cards SET base_message_id = $1, updated_at = $2 WHERE id = $3`

	result, err := s.db.ExecContext(ctx, query, messageID, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "card")
}

// Reschedule implements store.CardStore.Reschedule
func (s *PostgresCardStore) Reschedule(
	ctx context.Context,
	id uuid.UUID,
	nextReviewAt time.Time,
) error {
	query := `
		UPDATE cards
		SET next_review_at = $1, updated_at = $2
		WHERE id = $3 AND status = $4`

	return s.conditionalUpdate(ctx, id, query,
		nextReviewAt, time.Now().UTC(),
		id, string(domain.CardStatusLearning),
	)
}

// RecordNotification implements store.CardStore.RecordNotification
func (s *PostgresCardStore) RecordNotification(
	ctx context.Context,
	id uuid.UUID,
	messageID int,
	reason domain.NotifyReason,
	sentAt time.Time,
) error {
	// Two statements; when we hold the root connection, run them atomically
	// so the audit log and the card's last-notification fields cannot drift.
	if db, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return s.WithTx(tx).(*PostgresCardStore).recordNotification(
				ctx, id, messageID, reason, sentAt)
		})
	}
	return s.recordNotification(ctx, id, messageID, reason, sentAt)
}

func (s *PostgresCardStore) recordNotification(
	ctx context.Context,
	id uuid.UUID,
	messageID int,
	reason domain.NotifyReason,
	sentAt time.Time,
) error {
	insert := `
		INSERT INTO notification_log (card_id, message_id, reason, sent_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := s.db.ExecContext(ctx, insert, id, messageID, string(reason), sentAt); err != nil {
		return MapError(err)
	}

	update := `
		UPDATE cards
		SET last_notified_at = $1,
		    last_notify_reason = $2,
		    last_notify_message_id = $3,
		    updated_at = $4
		WHERE id = $5`

	result, err := s.db.ExecContext(ctx, update, sentAt, string(reason), messageID, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "card")
}

// ListNotifications implements store.CardStore.ListNotifications
func (s *PostgresCardStore) ListNotifications(
	ctx context.Context,
	id uuid.UUID,
	limit int,
) ([]store.Notification, error) {
	query, args, err := psql.Select("id", "card_id", "message_id", "reason", "sent_at").
		From("notification_log").
		Where(sq.Eq{"card_id": id}).
		OrderBy("sent_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []store.Notification
	for rows.Next() {
		var n store.Notification
		var reason string
		if err := rows.Scan(&n.ID, &n.CardID, &n.MessageID, &reason, &n.SentAt); err != nil {
			return nil, MapError(err)
		}
		n.Reason = domain.NotifyReason(reason)
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return notifications, nil
}

// Archive implements store.CardStore.Archive
func (s *PostgresCardStore) Archive(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE cards
		SET status = $1,
		    pending_chat_id = NULL,
		    pending_message_id = NULL,
		    awaiting_grade_since = NULL,
		    updated_at = $2
		WHERE id = $3`

	result, err := s.db.ExecContext(ctx, query,
		string(domain.CardStatusArchived), time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "card")
}

// Restore implements store.CardStore.Restore
func (s *PostgresCardStore) Restore(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE cards
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`

	return s.conditionalUpdate(ctx, id, query,
		string(domain.CardStatusLearning), time.Now().UTC(),
		id, string(domain.CardStatusArchived),
	)
}

// Delete implements store.CardStore.Delete
// Notification log rows go with the card via ON DELETE CASCADE.
func (s *PostgresCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "card")
}

// conditionalUpdate executes a status-guarded UPDATE and translates a zero
// row count into ErrCardNotFound (card missing) or ErrConflict (card exists
// but is not in the expected status, i.e. a concurrent transition won).
func (s *PostgresCardStore) conditionalUpdate(
	ctx context.Context,
	id uuid.UUID,
	query string,
	args ...any,
) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "card"); err != nil {
		if _, getErr := s.GetCard(ctx, id); getErr != nil {
			return getErr
		}
		return store.ErrConflict
	}

	return nil
}

// queryCards runs a card SELECT and scans all rows.
func (s *PostgresCardStore) queryCards(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, MapError(err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return cards, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCard maps one result row onto a domain.Card, unpacking the nullable
// delivery-bookkeeping columns and the JSONB id lists.
func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card             domain.Card
		kind             string
		status           string
		mode             string
		sourceIDs        []byte
		fileIDs          []byte
		nextReviewAt     sql.NullTime
		pendingChatID    sql.NullInt64
		pendingMessageID sql.NullInt64
		baseMessageID    sql.NullInt64
		awaitingSince    sql.NullTime
		lastNotifiedAt   sql.NullTime
		lastReason       sql.NullString
		lastMessageID    sql.NullInt64
		lastReviewedAt   sql.NullTime
		lastGrade        sql.NullString
	)

	err := row.Scan(
		&card.ID, &card.UserID,
		&card.SourceChatID, &sourceIDs,
		&kind, &card.Preview, &fileIDs,
		&status, &card.Repetition, &card.IntervalDays, &card.Easiness, &mode, &nextReviewAt,
		&pendingChatID, &pendingMessageID, &baseMessageID, &awaitingSince,
		&lastNotifiedAt, &lastReason, &lastMessageID,
		&card.CreatedAt, &card.UpdatedAt, &lastReviewedAt, &lastGrade,
	)
	if err != nil {
		return nil, err
	}

	card.Kind = domain.ContentKind(kind)
	card.Status = domain.CardStatus(status)
	card.ReminderMode = domain.ReminderMode(mode)

	if len(sourceIDs) > 0 {
		if err := json.Unmarshal(sourceIDs, &card.SourceMessageIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source message ids: %w", err)
		}
	}
	if len(fileIDs) > 0 {
		if err := json.Unmarshal(fileIDs, &card.FileIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal file ids: %w", err)
		}
	}

	if nextReviewAt.Valid {
		card.NextReviewAt = &nextReviewAt.Time
	}
	if pendingChatID.Valid {
		card.PendingChatID = &pendingChatID.Int64
	}
	if pendingMessageID.Valid {
		v := int(pendingMessageID.Int64)
		card.PendingMessageID = &v
	}
	if baseMessageID.Valid {
		v := int(baseMessageID.Int64)
		card.BaseMessageID = &v
	}
	if awaitingSince.Valid {
		card.AwaitingGradeSince = &awaitingSince.Time
	}
	if lastNotifiedAt.Valid {
		card.LastNotifiedAt = &lastNotifiedAt.Time
	}
	if lastReason.Valid {
		card.LastNotifyReason = domain.NotifyReason(lastReason.String)
	}
	if lastMessageID.Valid {
		v := int(lastMessageID.Int64)
		card.LastNotifyMessageID = &v
	}
	if lastReviewedAt.Valid {
		card.LastReviewedAt = &lastReviewedAt.Time
	}
	if lastGrade.Valid {
		card.LastGrade = domain.Grade(lastGrade.String)
	}

	return &card, nil
}
