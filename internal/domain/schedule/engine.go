// Package schedule implements the interval engine: pure computations mapping
// a card and a grade to the card's next scheduling state, under the ease,
// ladder and fixed policies.
package schedule

import (
	"errors"
	"time"

	"github.com/Rrock-k/interval-learn-bot/internal/domain"
)

// Common errors
var (
	ErrNilCard      = errors.New("card cannot be nil")
	ErrInvalidGrade = errors.New("invalid grade for this card's policy")
)

// Engine computes the next scheduling state for a card from a grade. It is a
// pure computation: no side effects, outputs only.
type Engine interface {
	// Review computes the card's next scheduling state for the given grade.
	Review(card *domain.Card, grade domain.Grade, now time.Time) (*Outcome, error)

	// InitialReviewAt returns when a freshly activated card should first
	// surface for review.
	InitialReviewAt(now time.Time) time.Time

	// AdaptivePolicy reports which adaptive policy the engine applies to
	// adaptive-mode cards.
	AdaptivePolicy() Policy
}

// defaultEngine is the standard implementation of the Engine interface.
type defaultEngine struct {
	params   *Params
	adaptive Policy
}

// NewEngine creates an interval engine with the given parameters and adaptive
// policy selection.
func NewEngine(params *Params, adaptive Policy) (Engine, error) {
	if params == nil {
		params = NewDefaultParams()
	}
	if adaptive != PolicyEase && adaptive != PolicyLadder {
		return nil, errors.New("unknown adaptive policy: " + string(adaptive))
	}
	return &defaultEngine{params: params, adaptive: adaptive}, nil
}

// NewDefaultEngine creates an engine with default parameters and the ease
// policy.
func NewDefaultEngine() Engine {
	return &defaultEngine{params: NewDefaultParams(), adaptive: PolicyEase}
}

// Review implements Engine.Review.
func (e *defaultEngine) Review(
	card *domain.Card,
	grade domain.Grade,
	now time.Time,
) (*Outcome, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	if !domain.ValidGradeFor(grade, card.ReminderMode, e.adaptive == PolicyLadder) {
		return nil, ErrInvalidGrade
	}

	outcome := &Outcome{
		Repetition:   card.Repetition,
		IntervalDays: card.IntervalDays,
		Easiness:     card.Easiness,
	}

	switch card.ReminderMode {
	case domain.ReminderModeFixedDaily, domain.ReminderModeFixedWeekly:
		// Fixed modes ignore the grade; repetition still increments so the
		// review count stays observable.
		outcome.Repetition = card.Repetition + 1
		outcome.IntervalDays = fixedInterval(card.ReminderMode)

	case domain.ReminderModeAdaptive:
		if e.adaptive == PolicyLadder {
			outcome.Repetition, outcome.IntervalDays = nextLadder(
				card.Repetition, grade, e.params)
		} else {
			outcome.Repetition, outcome.IntervalDays, outcome.Easiness = nextEase(
				card.Repetition, card.IntervalDays, card.Easiness, grade, e.params)
		}

	default:
		return nil, domain.ErrCardInvalidMode
	}

	outcome.NextReviewAt = nextReviewDate(outcome.IntervalDays, now)
	return outcome, nil
}

// InitialReviewAt implements Engine.InitialReviewAt.
func (e *defaultEngine) InitialReviewAt(now time.Time) time.Time {
	return initialReviewDate(now, e.params)
}

// AdaptivePolicy implements Engine.AdaptivePolicy.
func (e *defaultEngine) AdaptivePolicy() Policy {
	return e.adaptive
}
