package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tycoon_bot/internal/bot"
	"tycoon_bot/internal/config"
	"tycoon_bot/internal/db"
	"tycoon_bot/internal/domain"
	httpServer "tycoon_bot/internal/http"
	"tycoon_bot/internal/http/handlers"
	"tycoon_bot/internal/http/middleware"
	"tycoon_bot/internal/logger"
	"tycoon_bot/internal/repository"
	"tycoon_bot/internal/scheduler"
	"tycoon_bot/internal/service"
	"tycoon_bot/internal/ws"

	"github.com/gin-gonic/gin"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// scheduler over the durable job store
	sched := scheduler.New(repository.NewJobRepository(dbPool), cfg.PollInterval)

	users := repository.WithLogging(repository.NewUserRepository(dbPool))
	economy := service.NewEconomyService(dbPool, cfg.TickInterval)
	progression := service.NewProgressionService(dbPool, cfg.PrestigeBaseCost)
	tasks := service.NewTaskService(dbPool, progression, sched, cfg.TickInterval)
	admin := service.NewAdminService(dbPool)

	hub := ws.NewHub()

	var gameBot *bot.GameBot
	if cfg.BotToken != "" {
		var err error
		gameBot, err = bot.NewGameBot(cfg.BotToken, users, economy, progression, tasks, admin, cfg.AdminTelegramIDs, cfg.StartingCurrency)
		if err != nil {
			logger.Fatal("failed to start bot", "error", err)
		}
	} else {
		logger.Warn("BOT_TOKEN not set, running API only")
	}

	// every finished task is pushed over the socket and announced in chat
	tasks.SetCompletionHandler(func(outcome domain.TaskOutcome) {
		hub.Notify(outcome.UserID, ws.EventTaskCompleted, ws.TaskCompletedPayload{
			TaskID:     outcome.Task.ID,
			TaskName:   outcome.Task.Name,
			RewardPaid: outcome.RewardPaid,
			XPAwarded:  outcome.XPAwarded,
			LeveledUp:  outcome.LeveledUp,
			NewLevel:   outcome.NewLevel,
		})
		if gameBot != nil {
			gameBot.NotifyTaskComplete(outcome)
		}
	})

	// re-arm completions left over from the previous run before accepting
	// new traffic
	if err := tasks.RestoreJobs(rootCtx); err != nil {
		logger.Fatal("failed to restore scheduled jobs", "error", err)
	}
	go sched.Run(rootCtx)

	selfCheck(rootCtx, sched)

	go economy.RunTicker(rootCtx)

	if gameBot != nil {
		go gameBot.Start()
	}

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	h := handlers.NewHandler(dbPool, cfg.BotToken, cfg.StartingCurrency, economy, progression, tasks)
	httpServer.RegisterRoutes(r, dbPool, cfg, version, h, hub)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	cancel()

	if gameBot != nil {
		gameBot.Stop()
	}

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

// selfCheck schedules a trivial job and waits for it to round-trip through
// the store and the dispatcher, so a broken scheduler fails the boot instead
// of silently eating every task completion.
func selfCheck(ctx context.Context, sched *scheduler.Scheduler) {
	id, err := sched.ScheduleAfter(ctx, 100*time.Millisecond,
		scheduler.Job{Kind: "selfcheck"},
		func(ctx context.Context) (string, error) { return "ok", nil },
		nil,
	)
	if err != nil {
		logger.Fatal("scheduler self-check failed to schedule", "error", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := sched.WaitFor(waitCtx, id); err != nil {
		logger.Fatal("scheduler self-check failed", "error", err)
	}
	logger.Info("scheduler self-check passed")
}
