package handlers

import (
	"tycoon_bot/internal/repository"
	"tycoon_bot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB               *pgxpool.Pool
	BotToken         string
	StartingCurrency int64
	Economy          *service.EconomyService
	Progression      *service.ProgressionService
	Tasks            *service.TaskService
	Users            repository.UserStore
	TransactionRepo  *repository.TransactionRepository
}

func NewHandler(db *pgxpool.Pool, botToken string, startingCurrency int64, economy *service.EconomyService, progression *service.ProgressionService, tasks *service.TaskService) *Handler {
	return &Handler{
		DB:               db,
		BotToken:         botToken,
		StartingCurrency: startingCurrency,
		Economy:          economy,
		Progression:      progression,
		Tasks:            tasks,
		Users:            repository.WithLogging(repository.NewUserRepository(db)),
		TransactionRepo:  repository.NewTransactionRepository(db),
	}
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
