package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/mens-health/internal/domain/article"
	"github.com/yanqian/mens-health/internal/domain/assessment"
	"github.com/yanqian/mens-health/internal/domain/auth"
	"github.com/yanqian/mens-health/internal/domain/fitness"
	"github.com/yanqian/mens-health/internal/domain/healthfn"
	"github.com/yanqian/mens-health/internal/domain/rating"
	"github.com/yanqian/mens-health/internal/infra/config"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	cfg         *config.Config
	authSvc     auth.Service
	functions   healthfn.Service
	assessments assessment.Service
	ratings     rating.Service
	fitness     fitness.Service
	articles    article.Service
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(
	cfg *config.Config,
	authSvc auth.Service,
	functions healthfn.Service,
	assessments assessment.Service,
	ratings rating.Service,
	fitnessSvc fitness.Service,
	articles article.Service,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		cfg:         cfg,
		authSvc:     authSvc,
		functions:   functions,
		assessments: assessments,
		ratings:     ratings,
		fitness:     fitnessSvc,
		articles:    articles,
		logger:      logger.With("component", "http.handler"),
	}
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// mustSession returns the session set by authMiddleware. Routes using it are
// always mounted behind the middleware.
func mustSession(c *gin.Context) (auth.Session, bool) {
	session, ok := getSession(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeUnauthorized, "login required", nil))
	}
	return session, ok
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
