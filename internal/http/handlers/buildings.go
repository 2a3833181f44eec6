package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"tycoon_bot/internal/service"

	"github.com/gin-gonic/gin"
)

// ListBuildings returns the catalog with income already multiplied by the
// user's prestige and per-building ownership counts.
func (h *Handler) ListBuildings(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	views, err := h.Economy.ListBuildings(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"buildings": views})
}

// BuyBuilding handles a purchase attempt. An unaffordable purchase is a
// declined result, not an error.
func (h *Handler) BuyBuilding(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	buildingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid building id"})
		return
	}

	result, err := h.Economy.PurchaseBuilding(c.Request.Context(), userID, buildingID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrBuildingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "building not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		}
		return
	}

	if !result.Purchased {
		c.JSON(http.StatusOK, gin.H{
			"purchased": false,
			"reason":    "insufficient_funds",
			"currency":  result.NewBalance,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purchased": true,
		"building":  result.Building.Name,
		"owned":     result.Owned,
		"currency":  result.NewBalance,
	})
}
