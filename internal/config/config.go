package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"tycoon_bot/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	BotToken    string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AdminTelegramIDs []int64

	// Economy
	TickInterval     time.Duration // passive income tick period
	PollInterval     time.Duration // scheduler completion poll period
	PrestigeBaseCost int64         // K in cost(p) = p^2 * K
	StartingCurrency int64         // currency granted on registration

	// API limits
	APIRateLimit  int
	APIRateWindow time.Duration

	LogLevel string
	LogJSON  bool
}

// Load reads configuration from the environment (.env supported).
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	// Optional: without it the bot frontend is disabled and web auth only
	// works in DEV_MODE.
	botToken := os.Getenv("BOT_TOKEN")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Admin tg ids, comma separated.
	var adminIDs []int64
	if s := os.Getenv("ADMIN_TELEGRAM_IDS"); s != "" {
		for _, idStr := range strings.Split(s, ",") {
			idStr = strings.TrimSpace(idStr)
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				adminIDs = append(adminIDs, id)
			}
		}
	}

	tickInterval := 60 * time.Second
	if v := os.Getenv("TICK_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			tickInterval = time.Duration(n) * time.Second
		}
	}

	pollInterval := 10 * time.Second
	if v := os.Getenv("SCHEDULER_POLL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pollInterval = time.Duration(n) * time.Second
		}
	}

	prestigeBaseCost := int64(10_000_000)
	if v := os.Getenv("PRESTIGE_BASE_COST"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			prestigeBaseCost = n
		}
	}

	startingCurrency := int64(0)
	if v := os.Getenv("STARTING_CURRENCY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			startingCurrency = n
		}
	}

	apiRateLimit := 30
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			apiRateLimit = n
		}
	}

	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return &Config{
		AppPort:          port,
		DatabaseURL:      dbURL,
		BotToken:         botToken,
		JWTSecret:        jwtSecret,
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          redisDB,
		AdminTelegramIDs: adminIDs,
		TickInterval:     tickInterval,
		PollInterval:     pollInterval,
		PrestigeBaseCost: prestigeBaseCost,
		StartingCurrency: startingCurrency,
		APIRateLimit:     apiRateLimit,
		APIRateWindow:    apiRateWindow,
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogJSON:          os.Getenv("LOG_JSON") == "true",
	}
}
