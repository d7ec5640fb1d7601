package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/mens-health/internal/domain/rating"
)

// SubmitRating stores or replaces the caller rating.
func (h *Handler) SubmitRating(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	var req rating.SubmitRequest
	if !bindJSON(c, &req) {
		return
	}
	rater := rating.Rater{ID: session.User.ID, Email: session.User.Email, Name: session.User.Name}
	stored, err := h.ratings.Add(c.Request.Context(), rater, req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, stored)
}

// MyRating returns the caller rating, if any.
func (h *Handler) MyRating(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	stored, found, err := h.ratings.ForUser(c.Request.Context(), session.User.ID)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"hasRated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasRated": true, "rating": stored})
}

// RatingStats aggregates every rating.
func (h *Handler) RatingStats(c *gin.Context) {
	stats, err := h.ratings.Stats(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, stats)
}
