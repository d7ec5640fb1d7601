package healthfn

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yanqian/mens-health/internal/domain/scoring"
)

// User facing messages of the function surface.
const (
	MsgMissingAssessment = "Missing required assessment data."
	MsgMissingEmail      = "Missing required parameters: recipientEmail or articleContent."
	MsgEmailSent         = "Health article sent successfully!"
	MsgScoreFailed       = "Failed to calculate health score"
	MsgHistoryFailed     = "Failed to get health history"
	MsgEmailFailed       = "Failed to send email"
	defaultSenderName    = "Anonymous"
	defaultUserID        = "test-user"
)

// Config tunes the function surface.
type Config struct {
	// DefaultUserID owns requests that do not carry a userId.
	DefaultUserID string
}

// CalculateRequest is the calculateHealthScore body. UserID is the verified
// caller set by the transport, never read from the body; empty means the
// configured default user.
type CalculateRequest struct {
	scoring.Intake
	UserID string `json:"-"`
	Type   string `json:"type,omitempty"`
}

// AssessmentDocument is one scored intake kept in the remote store.
type AssessmentDocument struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"userId"`
	Type            string                 `json:"type,omitempty"`
	Score           int                    `json:"score"`
	Status          scoring.Status         `json:"status"`
	Recommendations []string               `json:"recommendations"`
	PersonalInfo    *scoring.PersonalInfo  `json:"personalInfo,omitempty"`
	HealthHistory   *scoring.HealthHistory `json:"healthHistory,omitempty"`
	Lifestyle       *scoring.Lifestyle     `json:"lifestyle,omitempty"`
	Goals           json.RawMessage        `json:"goals,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// HistoryRequest selects whose documents getHealthHistory lists. UserID is
// the verified caller, set the same way as in CalculateRequest.
type HistoryRequest struct {
	UserID string `json:"-"`
}

// HistoryResponse lists documents newest first.
type HistoryResponse struct {
	Assessments []AssessmentDocument `json:"assessments"`
}

// Article is the piece of content mailed by sendHealthEmail.
type Article struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// EmailRequest is the sendHealthEmail body.
type EmailRequest struct {
	RecipientEmail string   `json:"recipientEmail"`
	SenderName     string   `json:"senderName,omitempty"`
	ArticleContent *Article `json:"articleContent"`
}

// EmailResponse acknowledges a sent article.
type EmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// EmailMessage is what the mail provider needs to render the template.
type EmailMessage struct {
	ToEmail  string
	FromName string
	Article  Article
}

// Repository persists assessment documents.
type Repository interface {
	Save(ctx context.Context, doc AssessmentDocument) error
	ListByUser(ctx context.Context, userID string) ([]AssessmentDocument, error)
}

// EmailSender delivers one article email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}
