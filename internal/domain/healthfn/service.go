package healthfn

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/yanqian/mens-health/internal/domain/scoring"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
	"github.com/yanqian/mens-health/pkg/util"
)

// Service implements the server side of the remote function surface.
type Service interface {
	CalculateHealthScore(ctx context.Context, req CalculateRequest) (scoring.Result, error)
	GetHealthHistory(ctx context.Context, req HistoryRequest) (HistoryResponse, error)
	SendHealthEmail(ctx context.Context, req EmailRequest) (EmailResponse, error)
}

type service struct {
	cfg    Config
	engine *scoring.Engine
	repo   Repository
	sender EmailSender
	logger *slog.Logger
}

// NewService constructs the function service.
func NewService(cfg Config, engine *scoring.Engine, repo Repository, sender EmailSender, logger *slog.Logger) Service {
	if strings.TrimSpace(cfg.DefaultUserID) == "" {
		cfg.DefaultUserID = defaultUserID
	}
	return &service{
		cfg:    cfg,
		engine: engine,
		repo:   repo,
		sender: sender,
		logger: logger.With("component", "healthfn.service"),
	}
}

func (s *service) CalculateHealthScore(ctx context.Context, req CalculateRequest) (scoring.Result, error) {
	if !req.Intake.Complete() {
		return scoring.Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, MsgMissingAssessment, nil)
	}
	result := s.engine.Score(req.Intake)

	doc := AssessmentDocument{
		ID:              uuid.NewString(),
		UserID:          s.userID(req.UserID),
		Type:            strings.TrimSpace(req.Type),
		Score:           result.Score,
		Status:          result.Status,
		Recommendations: result.Recommendations,
		PersonalInfo:    req.PersonalInfo,
		HealthHistory:   req.HealthHistory,
		Lifestyle:       req.Lifestyle,
		Goals:           req.Goals,
		CreatedAt:       util.NowUTC(),
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		s.logger.Error("failed to store assessment", "userId", doc.UserID, "error", err)
		return scoring.Result{}, apperrors.Wrap(apperrors.CodeUpstream, MsgScoreFailed, err)
	}
	return result, nil
}

func (s *service) GetHealthHistory(ctx context.Context, req HistoryRequest) (HistoryResponse, error) {
	userID := s.userID(req.UserID)
	docs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list assessments", "userId", userID, "error", err)
		return HistoryResponse{}, apperrors.Wrap(apperrors.CodeUpstream, MsgHistoryFailed, err)
	}
	if docs == nil {
		docs = []AssessmentDocument{}
	}
	return HistoryResponse{Assessments: docs}, nil
}

func (s *service) SendHealthEmail(ctx context.Context, req EmailRequest) (EmailResponse, error) {
	recipient := strings.TrimSpace(req.RecipientEmail)
	if recipient == "" || req.ArticleContent == nil {
		return EmailResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, MsgMissingEmail, nil)
	}
	sender := strings.TrimSpace(req.SenderName)
	if sender == "" {
		sender = defaultSenderName
	}
	err := s.sender.Send(ctx, EmailMessage{
		ToEmail:  recipient,
		FromName: sender,
		Article:  *req.ArticleContent,
	})
	if err != nil {
		s.logger.Error("failed to send article email", "articleId", req.ArticleContent.ID, "error", err)
		return EmailResponse{}, apperrors.Wrap(apperrors.CodeUpstream, MsgEmailFailed, err)
	}
	return EmailResponse{Success: true, Message: MsgEmailSent}, nil
}

func (s *service) userID(requested string) string {
	if id := strings.TrimSpace(requested); id != "" {
		return id
	}
	return s.cfg.DefaultUserID
}
