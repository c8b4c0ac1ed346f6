package review

import "errors"

// Domain errors reported to the grading caller. None of them mutate state.
var (
	// ErrCardNotFound is returned when the graded card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrNotAwaitingGrade is returned when a grade arrives for a card that
	// is not awaiting one (already graded, swept, or never delivered).
	ErrNotAwaitingGrade = errors.New("card is not awaiting a grade")

	// ErrCardNotActivated is returned when an operation requires an
	// activated card but the card is still pending.
	ErrCardNotActivated = errors.New("card has not been activated")

	// ErrNotPending is returned when activation targets a card that has
	// already left the pending state.
	ErrNotPending = errors.New("card is not pending")

	// ErrInvalidGrade is returned when the grade is not valid for the
	// card's reminder mode and policy.
	ErrInvalidGrade = errors.New("invalid grade")
)
