package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/service"

	"github.com/gin-gonic/gin"
)

// ListTasks returns the task catalog with rewards scaled by prestige and the
// active task flagged.
func (h *Handler) ListTasks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	views, err := h.Tasks.ListTasks(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": views})
}

// ActiveTask returns the task the user is currently executing, if any.
func (h *Handler) ActiveTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	task, err := h.Tasks.ActiveTask(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if task == nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"active": true, "task": task})
}

// StartTask attempts to begin a task. Business declines (busy, broke, level
// too low) come back as 200 with a status field so the frontend can explain
// them to the player.
func (h *Handler) StartTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	result, err := h.Tasks.StartTask(c.Request.Context(), userID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		}
		return
	}

	resp := gin.H{
		"status":   result.Status.String(),
		"task":     result.Task.Name,
		"currency": result.NewBalance,
	}
	if result.Status == domain.StartAlreadyExecuting && result.ActiveTask != nil {
		resp["active_task"] = result.ActiveTask.Name
	}
	c.JSON(http.StatusOK, resp)
}
