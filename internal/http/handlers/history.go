package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetHistory returns recent currency transactions for the current user.
func (h *Handler) GetHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	transactions, err := h.TransactionRepo.GetByUserID(c.Request.Context(), userID, 200)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	var out []map[string]interface{}
	for _, tx := range transactions {
		out = append(out, map[string]interface{}{
			"id":     tx.ID,
			"type":   tx.Type,
			"amount": tx.Amount,
			"meta":   tx.Meta,
			"date":   tx.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": out})
}
