package handlers

import (
	"net/http"

	"tycoon_bot/internal/domain"

	"github.com/gin-gonic/gin"
)

// Me returns the player's full status: balance, passive income, level
// progress and prestige.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	income, err := h.Users.IncomePerTick(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":              user.ID,
		"tg_id":           user.TgID,
		"username":        user.Username,
		"first_name":      user.FirstName,
		"created_at":      user.CreatedAt,
		"currency":        user.Currency,
		"income_per_tick": income,
		"level":           user.Level,
		"exp":             user.XP,
		"exp_to_next":     domain.RequiredXP(user.Level),
		"prestige":        user.Prestige,
		"busy":            user.ActiveTaskID != nil,
	})
}
