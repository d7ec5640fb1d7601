package scoring

import (
	"math"
	"slices"
)

const (
	minScore = 0
	maxScore = 100
)

// Engine scores intakes with a fixed profile. It is safe for concurrent use.
type Engine struct {
	profile Profile
}

// NewEngine builds an engine for p.
func NewEngine(p Profile) *Engine {
	return &Engine{profile: p}
}

// ProfileName returns the name of the active profile.
func (e *Engine) ProfileName() string {
	return e.profile.Name
}

// Score maps an intake to a result. It never fails: absent sections and
// unreadable numbers fall back to the package defaults.
func (e *Engine) Score(in Intake) Result {
	p := e.profile
	score := p.Baseline

	var (
		personal  PersonalInfo
		history   HealthHistory
		lifestyle Lifestyle
	)
	if in.PersonalInfo != nil {
		personal = *in.PersonalInfo
	}
	if in.HealthHistory != nil {
		history = *in.HealthHistory
	}
	if in.Lifestyle != nil {
		lifestyle = *in.Lifestyle
	}

	age := personal.Age.IntOr(DefaultAge)
	score += bracketDelta(p.Age, float64(age))

	height := personal.Height.FloatOr(DefaultHeightCM)
	weight := personal.Weight.FloatOr(DefaultWeightKG)
	score += bracketDelta(p.BMI, BMI(height, weight))

	score += p.Activity[personal.ActivityLevel]
	score += conditionDelta(p.Conditions, history.ChronicConditions)
	score += p.Exercise[lifestyle.ExerciseFrequency]

	sleep := lifestyle.SleepHours.IntOr(DefaultSleepHours)
	score += bracketDelta(p.Sleep, float64(sleep))

	score += p.Diet[lifestyle.DietQuality]
	score += p.Stress[lifestyle.StressLevel]

	score = clamp(score)
	return Result{
		Score:           score,
		Recommendations: e.recommendations(score),
		Status:          e.Status(score),
	}
}

// Status labels a score with the profile's status tiers.
func (e *Engine) Status(score int) Status {
	for _, tier := range e.profile.Statuses {
		if score >= tier.AtLeast {
			return tier.Status
		}
	}
	return StatusNeedsImprovement
}

func (e *Engine) recommendations(score int) []string {
	for _, tier := range e.profile.Recommendations {
		if tier.Below == nil || score < *tier.Below {
			return slices.Clone(tier.Recommendations)
		}
	}
	return []string{}
}

// BMI computes weight / (height in metres)^2.
func BMI(heightCM, weightKG float64) float64 {
	metres := heightCM / 100
	return weightKG / math.Pow(metres, 2)
}

func bracketDelta(brackets []Bracket, v float64) int {
	for _, b := range brackets {
		if b.matches(v) {
			return b.Delta
		}
	}
	return 0
}

func conditionDelta(rule ConditionRule, conditions []string) int {
	if len(conditions) == 0 || slices.Contains(conditions, NoneCondition) {
		return rule.NoneBonus
	}
	return rule.PerCondition * len(conditions)
}

func clamp(score int) int {
	return max(minScore, min(maxScore, score))
}
