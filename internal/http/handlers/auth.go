package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/service"
	"tycoon_bot/internal/telegram"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"init_data"`
}

func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	// DEV MODE: пропускаем валидацию
	if os.Getenv("DEV_MODE") == "true" {
		var userId int64 = 12345

		if strings.Contains(req.InitData, "\"id\":") {
			start := strings.Index(req.InitData, "\"id\":") + 5
			end := start
			for end < len(req.InitData) && req.InitData[end] >= '0' && req.InitData[end] <= '9' {
				end++
			}
			if parsed, err := strconv.ParseInt(req.InitData[start:end], 10, 64); err == nil {
				userId = parsed
			}
		}

		h.authAs(c, userId, fmt.Sprintf("testuser%d", userId), "Test")
		return
	}

	// Обычная валидация для прода
	if len(req.InitData) > 4096 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data too long"})
		return
	}

	values, ok := telegram.ValidateInitData(req.InitData, h.BotToken)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or stale telegram data"})
		return
	}

	userRaw := values.Get("user")
	if userRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user not found"})
		return
	}

	var tgUser telegram.WebAppUser
	if err := json.Unmarshal([]byte(userRaw), &tgUser); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user json"})
		return
	}

	h.authAs(c, tgUser.ID, tgUser.Username, tgUser.FirstName)
}

// authAs loads or registers the user by telegram id and hands back a token.
func (h *Handler) authAs(c *gin.Context, tgID int64, username, firstName string) {
	ctx := c.Request.Context()

	user, err := h.Users.GetByTgID(ctx, tgID)
	if err != nil {
		user = &domain.User{
			TgID:      tgID,
			Username:  username,
			FirstName: firstName,
			Currency:  h.StartingCurrency,
		}
		if err := h.Users.Create(ctx, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}
	}

	token, err := service.GenerateJWT(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"tg_id":      user.TgID,
			"username":   user.Username,
			"first_name": user.FirstName,
			"currency":   user.Currency,
			"level":      user.Level,
			"prestige":   user.Prestige,
		},
	})
}
