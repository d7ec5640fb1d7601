package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// WorkoutProgress returns the progress of one workout.
func (h *Handler) WorkoutProgress(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	progress, err := h.fitness.Progress(c.Request.Context(), session.User.ID, c.Param("workout"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, progress)
}

// StartWorkout resets and starts a workout.
func (h *Handler) StartWorkout(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	progress, err := h.fitness.Start(c.Request.Context(), session.User.ID, c.Param("workout"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, progress)
}

// CompleteExercise marks one exercise of a workout done.
func (h *Handler) CompleteExercise(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "exercise index must be a number", err))
		return
	}
	progress, err := h.fitness.CompleteExercise(c.Request.Context(), session.User.ID, c.Param("workout"), index)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, progress)
}

// FinishWorkout marks a workout completed.
func (h *Handler) FinishWorkout(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	progress, err := h.fitness.Finish(c.Request.Context(), session.User.ID, c.Param("workout"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, progress)
}

// WorkoutPercent reports completion against the total exercise count.
func (h *Handler) WorkoutPercent(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	total, err := strconv.Atoi(c.DefaultQuery("total", "0"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "total must be a number", err))
		return
	}
	percent, err := h.fitness.Percent(c.Request.Context(), session.User.ID, c.Param("workout"), total)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"percent": percent})
}

// FitnessStats summarizes every workout of the caller.
func (h *Handler) FitnessStats(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	stats, err := h.fitness.Stats(c.Request.Context(), session.User.ID)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, stats)
}
