package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var (
	TelegramToken string
	AdminID       int64

	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	BaseURL    string
	MatchesURL string
	EventsURL  string
	RankingURL string

	PageLoadTimeoutSeconds  int
	FetchRetryDelaySeconds  int
	SendRatePerSecond       float64
	BaselineIntervalHours   int
	RefreshIntervalHours    int
	HealthFlushSeconds      int

	LogFilePath string
)

// Load reads configuration from the environment, optionally seeded from a
// .env file in the working directory. Missing required values are fatal.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}

	AdminID, _ = strconv.ParseInt(os.Getenv("ADMIN_ID"), 10, 64)

	DatabaseType = getEnvOrDefault("DATABASE_TYPE", "sqlite")
	DatabasePath = getEnvOrDefault("DATABASE_PATH", "data/app.db")
	DatabaseURL = os.Getenv("DATABASE_URL")

	BaseURL = getEnvOrDefault("BASE_URL", "https://www.hltv.org")
	MatchesURL = BaseURL + "/matches/"
	EventsURL = BaseURL + "/events#tab-ALL"
	RankingURL = BaseURL + "/ranking/teams/"

	PageLoadTimeoutSeconds = getEnvIntOrDefault("PAGE_LOAD_TIMEOUT_SECONDS", 60)
	FetchRetryDelaySeconds = getEnvIntOrDefault("FETCH_RETRY_DELAY_SECONDS", 5)
	SendRatePerSecond = getEnvFloatOrDefault("SEND_RATE_PER_SECOND", 25)
	BaselineIntervalHours = getEnvIntOrDefault("BASELINE_INTERVAL_HOURS", 24)
	RefreshIntervalHours = getEnvIntOrDefault("REFRESH_INTERVAL_HOURS", 24)
	HealthFlushSeconds = getEnvIntOrDefault("HEALTH_FLUSH_SECONDS", 30)

	LogFilePath = getEnvOrDefault("LOG_FILE_PATH", "logs/logs.log")
}

// GetDatabaseConnectionString returns the DSN matching DatabaseType.
func GetDatabaseConnectionString() string {
	if DatabaseType == "postgres" {
		return DatabaseURL
	}
	return DatabasePath
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
