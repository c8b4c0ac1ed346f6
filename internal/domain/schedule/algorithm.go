package schedule

import (
	"math"
	"time"

	"github.com/Rrock-k/interval-learn-bot/internal/domain"
)

// Outcome is the result of running the interval engine over a card and a
// grade. It carries the card's next scheduling state; callers persist it,
// the engine never mutates the card.
type Outcome struct {
	Repetition   int
	IntervalDays int
	Easiness     float64
	NextReviewAt time.Time
}

// clampInterval keeps an interval inside [1, MaxIntervalDays].
func clampInterval(interval int, params *Params) int {
	if interval < 1 {
		interval = 1
	}
	if interval > params.MaxIntervalDays {
		interval = params.MaxIntervalDays
	}
	return interval
}

// clampEasiness applies the easiness floor and, when one is configured, the
// ceiling. The default params set no ceiling.
func clampEasiness(easiness float64, params *Params) float64 {
	if easiness < params.MinEasiness {
		easiness = params.MinEasiness
	}
	if params.MaxEasiness > 0 && easiness > params.MaxEasiness {
		easiness = params.MaxEasiness
	}
	return easiness
}

// nextEase computes the ease-policy outcome. A failing grade (again) resets
// the repetition streak and the interval; passing grades increment the streak
// and grow the interval by the adjusted easiness factor, with the first two
// successful reviews pinned to fixed intervals.
func nextEase(
	repetition int,
	intervalDays int,
	easiness float64,
	grade domain.Grade,
	params *Params,
) (int, int, float64) {
	newEasiness := clampEasiness(easiness+params.EasinessAdjustment[grade], params)

	if grade == domain.GradeAgain {
		return 0, 1, newEasiness
	}

	newRepetition := repetition + 1

	var newInterval int
	switch newRepetition {
	case 1:
		newInterval = params.FirstInterval
	case 2:
		newInterval = params.SecondInterval
	default:
		newInterval = int(math.Round(float64(intervalDays) * newEasiness))
	}

	return newRepetition, clampInterval(newInterval, params), newEasiness
}

// nextLadder computes the ladder-policy outcome. A failing grade resets to
// the bottom of the ladder; a passing grade advances to the ladder entry
// indexed by the new repetition count, holding at the top rung.
func nextLadder(
	repetition int,
	grade domain.Grade,
	params *Params,
) (int, int) {
	if grade == domain.GradeAgain {
		return 0, 1
	}

	newRepetition := repetition + 1

	idx := newRepetition - 1
	if idx >= len(params.Ladder) {
		idx = len(params.Ladder) - 1
	}

	return newRepetition, clampInterval(params.Ladder[idx], params)
}

// fixedInterval returns the constant interval for a fixed reminder mode.
func fixedInterval(mode domain.ReminderMode) int {
	if mode == domain.ReminderModeFixedWeekly {
		return 7
	}
	return 1
}

// nextReviewDate converts an interval in days into the next review timestamp.
func nextReviewDate(intervalDays int, now time.Time) time.Time {
	return now.AddDate(0, 0, intervalDays)
}

// initialReviewDate is the first-review timestamp for a freshly activated
// card: minutes out rather than days, so a brand-new card surfaces quickly.
func initialReviewDate(now time.Time, params *Params) time.Time {
	return now.Add(time.Duration(params.InitialDelayMinutes) * time.Minute)
}
