package schedule

import (
	"testing"
	"time"

	"github.com/Rrock-k/interval-learn-bot/internal/domain"
)

func TestNextEase(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name         string
		repetition   int
		intervalDays int
		easiness     float64
		grade        domain.Grade
		wantRep      int
		wantInterval int
		wantEasiness float64
	}{
		{
			name:         "first successful review pins the first interval",
			repetition:   0,
			intervalDays: 0,
			easiness:     2.5,
			grade:        domain.GradeGood,
			wantRep:      1,
			wantInterval: 1,
			wantEasiness: 2.5,
		},
		{
			name:         "second successful review pins the second interval",
			repetition:   1,
			intervalDays: 1,
			easiness:     2.5,
			grade:        domain.GradeGood,
			wantRep:      2,
			wantInterval: 6,
			wantEasiness: 2.5,
		},
		{
			name:         "third review grows by easiness",
			repetition:   2,
			intervalDays: 6,
			easiness:     2.5,
			grade:        domain.GradeGood,
			wantRep:      3,
			wantInterval: 15, // 6 * 2.5 = 15
			wantEasiness: 2.5,
		},
		{
			name:         "hard lowers easiness before growing",
			repetition:   2,
			intervalDays: 6,
			easiness:     2.5,
			grade:        domain.GradeHard,
			wantRep:      3,
			wantInterval: 14, // 6 * 2.35 = 14.1 → 14
			wantEasiness: 2.35,
		},
		{
			name:         "easy raises easiness and grows the interval faster",
			repetition:   2,
			intervalDays: 6,
			easiness:     2.5,
			grade:        domain.GradeEasy,
			wantRep:      3,
			wantInterval: 16, // 6 * 2.65 = 15.9 → 16
			wantEasiness: 2.65,
		},
		{
			name:         "repeated easy keeps compounding",
			repetition:   3,
			intervalDays: 16,
			easiness:     2.65,
			grade:        domain.GradeEasy,
			wantRep:      4,
			wantInterval: 45, // 16 * 2.8 = 44.8 → 45
			wantEasiness: 2.8,
		},
		{
			name:         "again resets the streak and interval",
			repetition:   5,
			intervalDays: 30,
			easiness:     2.5,
			grade:        domain.GradeAgain,
			wantRep:      0,
			wantInterval: 1,
			wantEasiness: 2.3,
		},
		{
			name:         "easiness never drops below the floor",
			repetition:   3,
			intervalDays: 10,
			easiness:     1.3,
			grade:        domain.GradeAgain,
			wantRep:      0,
			wantInterval: 1,
			wantEasiness: 1.3,
		},
		{
			name:         "interval is capped at the maximum",
			repetition:   8,
			intervalDays: 300,
			easiness:     2.5,
			grade:        domain.GradeGood,
			wantRep:      9,
			wantInterval: 365, // 300 * 2.5 = 750 → cap
			wantEasiness: 2.5,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rep, interval, easiness := nextEase(
				tc.repetition, tc.intervalDays, tc.easiness, tc.grade, params)

			if rep != tc.wantRep {
				t.Errorf("repetition: expected %d, got %d", tc.wantRep, rep)
			}
			if interval != tc.wantInterval {
				t.Errorf("interval: expected %d, got %d", tc.wantInterval, interval)
			}
			if easiness != tc.wantEasiness {
				t.Errorf("easiness: expected %v, got %v", tc.wantEasiness, easiness)
			}
		})
	}
}

func TestNextEaseConfiguredCeiling(t *testing.T) {
	t.Parallel()

	// A ceiling is opt-in; only explicitly configured params clamp upward.
	params := NewParams(ParamsConfig{MaxEasiness: 2.6})

	_, _, easiness := nextEase(2, 6, 2.5, domain.GradeEasy, params)
	if easiness != 2.6 {
		t.Errorf("easiness: expected 2.6, got %v", easiness)
	}
}

func TestNextLadder(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams() // ladder 1, 3, 7, 14, 30

	testCases := []struct {
		name         string
		repetition   int
		grade        domain.Grade
		wantRep      int
		wantInterval int
	}{
		{
			name:         "first pass lands on the bottom rung",
			repetition:   0,
			grade:        domain.GradeOK,
			wantRep:      1,
			wantInterval: 1,
		},
		{
			name:         "second pass climbs to the next rung",
			repetition:   1,
			grade:        domain.GradeOK,
			wantRep:      2,
			wantInterval: 3,
		},
		{
			name:         "third pass",
			repetition:   2,
			grade:        domain.GradeOK,
			wantRep:      3,
			wantInterval: 7,
		},
		{
			name:         "fifth pass reaches the top rung",
			repetition:   4,
			grade:        domain.GradeOK,
			wantRep:      5,
			wantInterval: 30,
		},
		{
			name:         "passes beyond the ladder hold at the top",
			repetition:   9,
			grade:        domain.GradeOK,
			wantRep:      10,
			wantInterval: 30,
		},
		{
			name:         "again resets to the bottom",
			repetition:   4,
			grade:        domain.GradeAgain,
			wantRep:      0,
			wantInterval: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rep, interval := nextLadder(tc.repetition, tc.grade, params)

			if rep != tc.wantRep {
				t.Errorf("repetition: expected %d, got %d", tc.wantRep, rep)
			}
			if interval != tc.wantInterval {
				t.Errorf("interval: expected %d, got %d", tc.wantInterval, interval)
			}
		})
	}
}

func TestLadderIsMonotonicWhilePassing(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	rep := 0
	prev := 0
	for i := 0; i < 12; i++ {
		var interval int
		rep, interval = nextLadder(rep, domain.GradeOK, params)
		if interval < prev {
			t.Fatalf("interval shrank on pass %d: %d < %d", i+1, interval, prev)
		}
		prev = interval
	}
}

func TestFixedInterval(t *testing.T) {
	t.Parallel()

	if got := fixedInterval(domain.ReminderModeFixedDaily); got != 1 {
		t.Errorf("daily: expected 1, got %d", got)
	}
	if got := fixedInterval(domain.ReminderModeFixedWeekly); got != 7 {
		t.Errorf("weekly: expected 7, got %d", got)
	}
}

func TestNextReviewDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	got := nextReviewDate(6, now)
	want := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)

	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestInitialReviewDate(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	got := initialReviewDate(now, params)
	want := now.Add(10 * time.Minute)

	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
