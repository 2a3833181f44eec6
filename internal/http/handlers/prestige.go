package handlers

import (
	"errors"
	"net/http"

	"tycoon_bot/internal/service"

	"github.com/gin-gonic/gin"
)

// Prestige returns the current prestige rank and the cost of the next one.
func (h *Handler) Prestige(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	status, err := h.Progression.PrestigeStatus(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prestige":  status.Prestige,
		"next_cost": status.NextCost,
	})
}

// PrestigeUp buys the next prestige rank, resetting the empire.
func (h *Handler) PrestigeUp(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	result, err := h.Progression.PrestigeUp(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrInsufficientFunds):
			c.JSON(http.StatusOK, gin.H{"purchased": false, "reason": "insufficient_funds"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purchased": true,
		"prestige":  result.Prestige,
		"currency":  result.Currency,
	})
}
