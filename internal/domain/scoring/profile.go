package scoring

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in profile names.
const (
	ProfileServer = "server"
	ProfileLocal  = "local"
)

// Defaults applied to missing, malformed or zero numeric fields.
const (
	DefaultAge        = 30
	DefaultHeightCM   = 170.0
	DefaultWeightKG   = 70.0
	DefaultSleepHours = 7
)

// Profile is the bracket table that drives the engine.
type Profile struct {
	Name            string         `yaml:"name"`
	Baseline        int            `yaml:"baseline"`
	Age             []Bracket      `yaml:"age"`
	BMI             []Bracket      `yaml:"bmi"`
	Sleep           []Bracket      `yaml:"sleep"`
	Activity        map[string]int `yaml:"activity"`
	Exercise        map[string]int `yaml:"exercise"`
	Diet            map[string]int `yaml:"diet"`
	Stress          map[string]int `yaml:"stress"`
	Conditions      ConditionRule  `yaml:"conditions"`
	Recommendations []Tier         `yaml:"recommendations"`
	Statuses        []StatusTier   `yaml:"statuses"`
}

// Bracket adds Delta when a value falls inside every bound that is set.
// A bracket with no bounds matches everything.
type Bracket struct {
	Above *float64 `yaml:"above,omitempty"`
	From  *float64 `yaml:"from,omitempty"`
	Below *float64 `yaml:"below,omitempty"`
	To    *float64 `yaml:"to,omitempty"`
	Delta int      `yaml:"delta"`
}

func (b Bracket) matches(v float64) bool {
	if b.Above != nil && !(v > *b.Above) {
		return false
	}
	if b.From != nil && !(v >= *b.From) {
		return false
	}
	if b.Below != nil && !(v < *b.Below) {
		return false
	}
	if b.To != nil && !(v <= *b.To) {
		return false
	}
	return true
}

// ConditionRule prices the chronic condition list: PerCondition times the
// list length, or NoneBonus when the list is empty or contains "None".
type ConditionRule struct {
	PerCondition int `yaml:"perCondition"`
	NoneBonus    int `yaml:"noneBonus"`
}

// Tier selects recommendations for scores strictly below Below.
// A nil Below is the catch-all and must come last.
type Tier struct {
	Below           *int     `yaml:"below,omitempty"`
	Recommendations []string `yaml:"recommendations"`
}

// StatusTier labels scores at or above AtLeast; tiers are checked in order.
type StatusTier struct {
	AtLeast int    `yaml:"atLeast"`
	Status  Status `yaml:"status"`
}

// ServerProfile is the variant run by the health functions: start at 100
// and subtract for risk factors.
func ServerProfile() Profile {
	return Profile{
		Name:     ProfileServer,
		Baseline: 100,
		Age: []Bracket{
			{Above: f(50), Delta: -10},
			{Above: f(40), Delta: -5},
		},
		BMI: []Bracket{
			{Below: f(18.5), Delta: -15},
			{Above: f(25), Delta: -15},
		},
		Sleep: []Bracket{
			{Below: f(6), Delta: -10},
			{Above: f(9), Delta: -10},
			{From: f(7), To: f(8), Delta: 5},
		},
		Activity: map[string]int{
			"sedentary":   -20,
			"light":       -10,
			"very-active": 10,
		},
		Exercise: map[string]int{
			"Never":              -15,
			"Rarely":             -10,
			"3-4 times per week": 5,
			"Daily":              10,
		},
		Diet: map[string]int{
			"Poor (fast food, processed foods)":      -15,
			"Average (mixed healthy and unhealthy)":  -5,
			"Excellent (well-balanced, nutritious)": 10,
		},
		Stress: map[string]int{
			"Very High": -10,
			"High":      -10,
			"Very Low":  5,
			"Low":       5,
		},
		Conditions: ConditionRule{PerCondition: -5},
		Recommendations: []Tier{
			{Below: i(40), Recommendations: []string{
				"Consider consulting a healthcare professional for a comprehensive health check",
				"Consider developing a comprehensive health improvement plan",
			}},
			{Below: i(60), Recommendations: []string{
				"Consider improving lifestyle habits and increasing exercise frequency",
				"Consider adjusting diet structure and reducing processed foods",
			}},
			{Below: i(80), Recommendations: []string{
				"Continue maintaining good lifestyle habits",
				"Consider further optimizing exercise intensity and nutritional balance",
			}},
			{Recommendations: []string{
				"Congratulations! Your health status is excellent",
				"Continue maintaining your current healthy lifestyle",
			}},
		},
		Statuses: defaultStatuses(),
	}
}

// LocalProfile is the additive variant: start at 0 and add for healthy habits.
func LocalProfile() Profile {
	return Profile{
		Name:     ProfileLocal,
		Baseline: 0,
		Age: []Bracket{
			{Below: f(30), Delta: 20},
			{Below: f(40), Delta: 15},
			{Below: f(50), Delta: 10},
			{Delta: 5},
		},
		BMI: []Bracket{
			{From: f(18.5), To: f(25), Delta: 20},
			{From: f(25), To: f(30), Delta: 10},
			{Delta: 5},
		},
		Sleep: []Bracket{
			{From: f(7), To: f(8), Delta: 10},
			{From: f(6), To: f(9), Delta: 5},
		},
		Activity: map[string]int{
			"very-active": 20,
			"active":      15,
			"moderate":    10,
			"light":       5,
		},
		Exercise: map[string]int{
			"Daily":              15,
			"5-6 times per week": 12,
			"3-4 times per week": 10,
			"1-2 times per week": 5,
		},
		Diet: map[string]int{
			"Excellent (well-balanced, nutritious)":        15,
			"Good (mostly healthy with occasional treats)": 10,
			"Fair (some healthy choices)":                  5,
		},
		Stress: map[string]int{
			"Very Low": 10,
			"Low":      10,
			"Moderate": 5,
		},
		Conditions: ConditionRule{PerCondition: -5, NoneBonus: 10},
		Recommendations: []Tier{
			{Below: i(50), Recommendations: []string{
				"Consult a healthcare professional for a comprehensive health check",
				"Improve lifestyle habits and increase exercise frequency",
			}},
			{Below: i(70), Recommendations: []string{
				"Continue maintaining good lifestyle habits",
				"Consider further optimizing exercise and diet",
			}},
			{Recommendations: []string{
				"Congratulations! Your health status is good",
				"Continue maintaining your current healthy lifestyle",
			}},
		},
		Statuses: defaultStatuses(),
	}
}

func defaultStatuses() []StatusTier {
	return []StatusTier{
		{AtLeast: 80, Status: StatusExcellent},
		{AtLeast: 60, Status: StatusGood},
		{AtLeast: 40, Status: StatusFair},
		{AtLeast: 0, Status: StatusNeedsImprovement},
	}
}

// ProfileByName returns a built-in profile.
func ProfileByName(name string) (Profile, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProfileServer, "":
		return ServerProfile(), true
	case ProfileLocal:
		return LocalProfile(), true
	default:
		return Profile{}, false
	}
}

// LoadProfile reads a custom profile from a YAML file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read scoring profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse scoring profile: %w", err)
	}
	if p.Name == "" {
		p.Name = "custom"
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("invalid scoring profile %q: %w", path, err)
	}
	return p, nil
}

// Validate checks that every score maps to a recommendation tier and a status.
func (p Profile) Validate() error {
	if len(p.Recommendations) == 0 {
		return errors.New("recommendations cannot be empty")
	}
	for idx, tier := range p.Recommendations {
		last := idx == len(p.Recommendations)-1
		if tier.Below == nil && !last {
			return fmt.Errorf("recommendation tier %d has no bound but is not last", idx)
		}
		if tier.Below != nil && last {
			return errors.New("last recommendation tier must be a catch-all")
		}
		if idx > 0 && tier.Below != nil && *tier.Below <= *p.Recommendations[idx-1].Below {
			return fmt.Errorf("recommendation tier %d bound must increase", idx)
		}
	}
	if len(p.Statuses) == 0 {
		return errors.New("statuses cannot be empty")
	}
	for idx, tier := range p.Statuses {
		if tier.Status == "" {
			return fmt.Errorf("status tier %d has no label", idx)
		}
		if idx > 0 && tier.AtLeast >= p.Statuses[idx-1].AtLeast {
			return fmt.Errorf("status tier %d threshold must decrease", idx)
		}
	}
	if p.Statuses[len(p.Statuses)-1].AtLeast > 0 {
		return errors.New("last status tier must cover a score of 0")
	}
	return nil
}

func f(v float64) *float64 { return &v }

func i(v int) *int { return &v }
