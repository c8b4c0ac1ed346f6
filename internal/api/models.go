package api

import "time"

// GradeRequest is the grading callback payload.
type GradeRequest struct {
	Grade string `json:"grade" validate:"required,oneof=again hard good easy ok"`
}

// GradeResponse reports the schedule resulting from a grade.
type GradeResponse struct {
	CardID       string    `json:"card_id"`
	Grade        string    `json:"grade"`
	Repetition   int       `json:"repetition"`
	IntervalDays int       `json:"interval_days"`
	NextReviewAt time.Time `json:"next_review_at"`
}

// TriggerResponse acknowledges an immediate delivery.
type TriggerResponse struct {
	CardID    string `json:"card_id"`
	Triggered bool   `json:"triggered"`
}

// HistoryEntry is one delivery event in a card's audit log.
type HistoryEntry struct {
	MessageID int       `json:"message_id"`
	Reason    string    `json:"reason"`
	SentAt    time.Time `json:"sent_at"`
}

// HistoryResponse lists a card's delivery history, most recent first.
type HistoryResponse struct {
	CardID  string         `json:"card_id"`
	Entries []HistoryEntry `json:"entries"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
