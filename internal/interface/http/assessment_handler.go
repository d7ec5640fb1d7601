package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/mens-health/internal/domain/assessment"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
)

// SubmitAssessment scores an intake for the caller and stores the result.
func (h *Handler) SubmitAssessment(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	var req assessment.SubmitRequest
	if !bindJSON(c, &req) {
		return
	}
	stored, err := h.assessments.Submit(c.Request.Context(), session.User.ID, req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusCreated, stored)
}

// ListAssessments returns the locally stored assessments, optionally by type.
func (h *Handler) ListAssessments(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	list, err := h.assessments.Local(c.Request.Context(), session.User.ID, c.Query("type"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessments": list})
}

// LatestAssessment returns the newest stored assessment.
func (h *Handler) LatestAssessment(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	latest, found, err := h.assessments.Latest(c.Request.Context(), session.User.ID)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	if !found {
		abortWithError(c, NewHTTPError(http.StatusNotFound, apperrors.CodeNotFound, "no assessments stored", nil))
		return
	}
	c.JSON(http.StatusOK, latest)
}

// AssessmentStats summarizes the stored assessments.
func (h *Handler) AssessmentStats(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	stats, err := h.assessments.Stats(c.Request.Context(), session.User.ID)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AssessmentHistory prefers the remote history and falls back to local data.
func (h *Handler) AssessmentHistory(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	history, err := h.assessments.History(c.Request.Context(), session.User.ID)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, history)
}

// DeleteAssessment removes one stored assessment.
func (h *Handler) DeleteAssessment(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	if err := h.assessments.Delete(c.Request.Context(), session.User.ID, c.Param("id")); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearAssessments removes every stored assessment of the caller.
func (h *Handler) ClearAssessments(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	if err := h.assessments.Clear(c.Request.Context(), session.User.ID); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.Status(http.StatusNoContent)
}
