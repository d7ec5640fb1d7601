package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Status is the label attached to a score.
type Status string

const (
	StatusExcellent        Status = "Excellent"
	StatusGood             Status = "Good"
	StatusFair             Status = "Fair"
	StatusNeedsImprovement Status = "Needs Improvement"
)

// NoneCondition marks an intake that reports no chronic condition.
const NoneCondition = "None"

// Intake is the questionnaire submitted by a user.
type Intake struct {
	PersonalInfo  *PersonalInfo   `json:"personalInfo"`
	HealthHistory *HealthHistory  `json:"healthHistory"`
	Lifestyle     *Lifestyle      `json:"lifestyle"`
	Goals         json.RawMessage `json:"goals"`
}

// PersonalInfo holds body metrics and the self-reported activity level.
type PersonalInfo struct {
	Age           Number `json:"age"`
	Height        Number `json:"height"`
	Weight        Number `json:"weight"`
	ActivityLevel string `json:"activityLevel"`
}

// HealthHistory lists chronic conditions.
type HealthHistory struct {
	ChronicConditions []string `json:"chronicConditions"`
}

// Lifestyle captures habits.
type Lifestyle struct {
	ExerciseFrequency string `json:"exerciseFrequency"`
	SleepHours        Number `json:"sleepHours"`
	DietQuality       string `json:"dietQuality"`
	StressLevel       string `json:"stressLevel"`
}

// Result is the outcome of scoring one intake.
type Result struct {
	Score           int      `json:"score"`
	Recommendations []string `json:"recommendations"`
	Status          Status   `json:"status"`
}

// Validate rejects results that the engine could never produce. An empty
// status is accepted and derived by the caller.
func (r Result) Validate() error {
	if r.Score < minScore || r.Score > maxScore {
		return fmt.Errorf("score %d outside [%d, %d]", r.Score, minScore, maxScore)
	}
	if len(r.Recommendations) == 0 {
		return errors.New("no recommendations")
	}
	switch r.Status {
	case "", StatusExcellent, StatusGood, StatusFair, StatusNeedsImprovement:
		return nil
	default:
		return fmt.Errorf("unknown status %q", r.Status)
	}
}

// MissingSections returns the names of absent top-level sections.
func (in Intake) MissingSections() []string {
	var missing []string
	if in.PersonalInfo == nil {
		missing = append(missing, "personalInfo")
	}
	if in.HealthHistory == nil {
		missing = append(missing, "healthHistory")
	}
	if in.Lifestyle == nil {
		missing = append(missing, "lifestyle")
	}
	if isFalsyJSON(in.Goals) {
		missing = append(missing, "goals")
	}
	return missing
}

// Complete reports whether every top-level section is present.
func (in Intake) Complete() bool {
	return len(in.MissingSections()) == 0
}

func isFalsyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "false", "0", `""`:
		return true
	}
	return false
}

// Number is a lenient numeric field: it accepts a JSON number or a string
// and parses the leading numeric prefix, so "180cm" reads as 180.
type Number string

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*n = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	*n = Number(trimmed)
	return nil
}

// MarshalJSON emits a bare number when the value is numeric.
func (n Number) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return []byte(s), nil
	}
	return json.Marshal(string(n))
}

// Float parses the leading decimal prefix.
func (n Number) Float() (float64, bool) {
	match := floatPrefix.FindString(strings.TrimSpace(string(n)))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int parses the leading integer prefix, truncating any fraction.
func (n Number) Int() (int, bool) {
	match := intPrefix.FindString(strings.TrimSpace(string(n)))
	if match == "" {
		return 0, false
	}
	v, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FloatOr returns the parsed value, or fallback when absent, malformed or zero.
func (n Number) FloatOr(fallback float64) float64 {
	if v, ok := n.Float(); ok && v != 0 {
		return v
	}
	return fallback
}

// IntOr returns the parsed integer, or fallback when absent, malformed or zero.
func (n Number) IntOr(fallback int) int {
	if v, ok := n.Int(); ok && v != 0 {
		return v
	}
	return fallback
}
