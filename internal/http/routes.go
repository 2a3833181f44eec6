package http

import (
	"os"
	"strconv"
	"time"

	"tycoon_bot/internal/config"
	"tycoon_bot/internal/http/handlers"
	"tycoon_bot/internal/http/middleware"
	"tycoon_bot/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config, version string, h *handlers.Handler, hub *ws.Hub) {
	healthHandler := handlers.NewHealthHandler(db, version)

	apiRateLimit := cfg.APIRateLimit
	apiRateWindow := cfg.APIRateWindow

	authRateLimit := 5
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute
	if v := os.Getenv("AUTH_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateWindow = time.Duration(n) * time.Second
		}
	}

	// actions = purchases, task starts, prestige buys (per user)
	actionRateLimit := 30
	if v := os.Getenv("ACTION_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			actionRateLimit = n
		}
	}
	actionRateWindow := time.Minute

	// Health checks and metrics (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))
	registerAPIRoutes(v1, h, authRateLimit, authRateWindow, actionRateLimit, actionRateWindow)

	// Legacy /api routes for backward compatibility
	api := r.Group("/api")
	api.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))
	api.GET("/health", healthHandler.Health)
	registerAPIRoutes(api, h, authRateLimit, authRateWindow, actionRateLimit, actionRateWindow)

	// WebSocket game event stream
	r.GET("/ws", ws.HandleWS(hub))
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, authRateLimit int, authRateWindow time.Duration, actionRateLimit int, actionRateWindow time.Duration) {
	// Auth
	api.POST("/auth", middleware.RedisRateLimit(authRateLimit, authRateWindow), h.Auth)

	// Player status
	api.GET("/me", middleware.JWT(), h.Me)
	api.GET("/history", middleware.JWT(), h.GetHistory)

	// Action rate limiter middleware (per user, not per IP)
	actionRL := middleware.ActionRateLimit(actionRateLimit, actionRateWindow)

	// Buildings
	api.GET("/buildings", middleware.JWT(), h.ListBuildings)
	api.POST("/buildings/:id/buy", middleware.JWT(), actionRL, h.BuyBuilding)

	// Tasks
	api.GET("/tasks", middleware.JWT(), h.ListTasks)
	api.GET("/tasks/active", middleware.JWT(), h.ActiveTask)
	api.POST("/tasks/:id/start", middleware.JWT(), actionRL, h.StartTask)

	// Prestige
	api.GET("/prestige", middleware.JWT(), h.Prestige)
	api.POST("/prestige", middleware.JWT(), actionRL, h.PrestigeUp)
}
