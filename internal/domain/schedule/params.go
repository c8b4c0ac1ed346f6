package schedule

import (
	"github.com/Rrock-k/interval-learn-bot/internal/domain"
)

// Policy selects which adaptive interval policy governs adaptive-mode cards.
type Policy string

// Available adaptive policies
const (
	// PolicyEase is the four-grade, SM-2 style policy: intervals grow by the
	// card's easiness factor, which is nudged per grade.
	PolicyEase Policy = "ease"

	// PolicyLadder is the two-grade policy: passing grades walk a fixed
	// interval ladder indexed by repetition count.
	PolicyLadder Policy = "ladder"
)

// Params defines all configurable parameters for the interval engine.
type Params struct {
	// Easiness floor for the ease policy. Easy grades raise easiness without
	// bound unless MaxEasiness is set; a zero MaxEasiness means no ceiling.
	MinEasiness float64
	MaxEasiness float64

	// Per-grade easiness adjustments for the ease policy.
	EasinessAdjustment map[domain.Grade]float64

	// Fixed intervals for the first two successful reviews under the ease
	// policy.
	FirstInterval  int
	SecondInterval int

	// Ladder is the day ladder for the ladder policy, indexed by repetition.
	Ladder []int

	// MaxIntervalDays caps the interval produced by any policy.
	MaxIntervalDays int

	// InitialDelayMinutes is how soon after activation a never-reviewed card
	// surfaces for its first rehearsal.
	InitialDelayMinutes int
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero values keep the defaults.
type ParamsConfig struct {
	MinEasiness float64
	MaxEasiness float64

	AgainEasinessAdjustment float64
	HardEasinessAdjustment  float64
	GoodEasinessAdjustment  float64
	EasyEasinessAdjustment  float64

	FirstInterval  int
	SecondInterval int

	Ladder []int

	MaxIntervalDays     int
	InitialDelayMinutes int
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		MinEasiness: domain.MinEasiness,

		EasinessAdjustment: map[domain.Grade]float64{
			domain.GradeAgain: -0.20,
			domain.GradeHard:  -0.15,
			domain.GradeGood:  0.0,
			domain.GradeEasy:  0.15,
		},

		FirstInterval:  1,
		SecondInterval: 6,

		Ladder: []int{1, 3, 7, 14, 30},

		MaxIntervalDays:     365,
		InitialDelayMinutes: 10,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEasiness > 0 {
		params.MinEasiness = config.MinEasiness
	}
	if config.MaxEasiness > 0 {
		params.MaxEasiness = config.MaxEasiness
	}

	if config.AgainEasinessAdjustment != 0 {
		params.EasinessAdjustment[domain.GradeAgain] = config.AgainEasinessAdjustment
	}
	if config.HardEasinessAdjustment != 0 {
		params.EasinessAdjustment[domain.GradeHard] = config.HardEasinessAdjustment
	}
	if config.GoodEasinessAdjustment != 0 {
		params.EasinessAdjustment[domain.GradeGood] = config.GoodEasinessAdjustment
	}
	if config.EasyEasinessAdjustment != 0 {
		params.EasinessAdjustment[domain.GradeEasy] = config.EasyEasinessAdjustment
	}

	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}

	if len(config.Ladder) > 0 {
		params.Ladder = config.Ladder
	}

	if config.MaxIntervalDays > 0 {
		params.MaxIntervalDays = config.MaxIntervalDays
	}
	if config.InitialDelayMinutes > 0 {
		params.InitialDelayMinutes = config.InitialDelayMinutes
	}

	return params
}
