package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/mens-health/internal/domain/access"
)

type accessSummary struct {
	Role            string   `json:"role"`
	RoleName        string   `json:"roleName"`
	RoleDescription string   `json:"roleDescription"`
	Views           []string `json:"views"`
	AdminViews      []string `json:"adminViews"`
}

// AccessibleViews lists what the caller may open. Anonymous callers get the
// public views.
func (h *Handler) AccessibleViews(c *gin.Context) {
	role := sessionRole(c)
	summary := accessSummary{
		Role:       role,
		Views:      access.AccessibleViews(role),
		AdminViews: access.AdminViews(),
	}
	if role != "" {
		summary.RoleName = access.RoleDisplayName(role)
		summary.RoleDescription = access.RoleDescription(role)
	}
	c.JSON(http.StatusOK, summary)
}

// CanAccessView answers whether the caller may open one view.
func (h *Handler) CanAccessView(c *gin.Context) {
	view := c.Param("view")
	c.JSON(http.StatusOK, gin.H{
		"view":    view,
		"known":   access.KnownView(view),
		"admin":   access.IsAdminView(view),
		"allowed": access.CanAccess(sessionRole(c), view),
	})
}
