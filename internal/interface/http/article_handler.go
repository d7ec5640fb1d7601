package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/mens-health/internal/domain/article"
)

// RandomArticle returns one article from the catalog.
func (h *Handler) RandomArticle(c *gin.Context) {
	c.JSON(http.StatusOK, h.articles.Random(c.Request.Context()))
}

// ArticleHTML renders an article as a standalone page.
func (h *Handler) ArticleHTML(c *gin.Context) {
	a, err := h.articles.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	page, err := article.RenderHTML(a)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "render_failed", "failed to render article", err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// ShareArticle mails a random article. The sender defaults to the caller name.
func (h *Handler) ShareArticle(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	var req article.ShareRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.SenderName) == "" {
		req.SenderName = session.User.Name
	}
	result, err := h.articles.Share(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}
