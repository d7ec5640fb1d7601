package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/mens-health/internal/domain/healthfn"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
)

const msgMethodNotAllowed = "Method Not Allowed"

// CalculateHealthScore scores an intake and stores the assessment document.
func (h *Handler) CalculateHealthScore(c *gin.Context) {
	if !requirePost(c) {
		return
	}
	var req healthfn.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithFunctionError(c, http.StatusBadRequest, healthfn.MsgMissingAssessment)
		return
	}
	req.UserID = callerID(c)
	result, err := h.functions.CalculateHealthScore(c.Request.Context(), req)
	if err != nil {
		h.functionFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetHealthHistory lists the stored assessment documents of the caller.
// The body is accepted for compatibility but cannot pick the user.
func (h *Handler) GetHealthHistory(c *gin.Context) {
	if !requirePost(c) {
		return
	}
	req := healthfn.HistoryRequest{UserID: callerID(c)}
	resp, err := h.functions.GetHealthHistory(c.Request.Context(), req)
	if err != nil {
		h.functionFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SendHealthEmail mails an article through the email provider.
func (h *Handler) SendHealthEmail(c *gin.Context) {
	if !requirePost(c) {
		return
	}
	var req healthfn.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithFunctionError(c, http.StatusBadRequest, healthfn.MsgMissingEmail)
		return
	}
	resp, err := h.functions.SendHealthEmail(c.Request.Context(), req)
	if err != nil {
		h.functionFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// callerID is the signed-in user, or "" so the service applies its default user.
func callerID(c *gin.Context) string {
	if session, ok := getSession(c); ok {
		return session.User.ID
	}
	return ""
}

func requirePost(c *gin.Context) bool {
	if c.Request.Method == http.MethodPost {
		return true
	}
	abortWithFunctionError(c, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	return false
}

func (h *Handler) functionFailure(c *gin.Context, err error) {
	if apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		abortWithFunctionError(c, http.StatusBadRequest, apperrors.MessageOf(err))
		return
	}
	h.logger.Error("function failed", "path", c.Request.URL.Path, "error", err)
	abortWithFunctionError(c, http.StatusInternalServerError, err.Error())
}
