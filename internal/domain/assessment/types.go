package assessment

import (
	"time"

	"github.com/yanqian/mens-health/internal/domain/scoring"
)

// Trend labels reported by Stats.
const (
	TrendImproving = "Improving"
	TrendDeclining = "Declining"
	TrendStable    = "Stable"
	TrendNoData    = "No data"
)

// Sources reported by History.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// DefaultType labels submissions that do not name an assessment type.
const DefaultType = "general"

// Config tunes the orchestrator.
type Config struct {
	// MaxStored caps the local history; the oldest entries are evicted.
	MaxStored int
}

// SubmitRequest is one questionnaire submission.
type SubmitRequest struct {
	Type   string         `json:"type"`
	Intake scoring.Intake `json:"intake"`
}

// StoredAssessment is a scored submission kept in local persistence.
type StoredAssessment struct {
	ID              string         `json:"id"`
	Date            string         `json:"date,omitempty"`
	Type            string         `json:"type"`
	Score           int            `json:"score"`
	Status          scoring.Status `json:"status"`
	Recommendations []string       `json:"recommendations"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// History is the assessment list returned to the caller with its origin.
type History struct {
	Assessments []StoredAssessment `json:"assessments"`
	Source      string             `json:"source"`
}

// Stats summarizes the local history.
type Stats struct {
	Total        int            `json:"total"`
	AverageScore int            `json:"averageScore"`
	ByType       map[string]int `json:"byType"`
	RecentTrend  string         `json:"recentTrend"`
}

// scorePayload is the body sent to the remote scoring function.
type scorePayload struct {
	scoring.Intake
	UserID string `json:"userId,omitempty"`
	Type   string `json:"type,omitempty"`
}

type historyPayload struct {
	UserID string `json:"userId,omitempty"`
}

type historyResponse struct {
	Assessments []StoredAssessment `json:"assessments"`
}
