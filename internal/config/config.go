package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server and CLI read from the environment.
type Config struct {
	DBPath    string
	Port      int
	JWTSecret string
	TokenTTL  time.Duration
	LogLevel  slog.Level
}

// Load reads configuration from the environment, with a best-effort
// .env file on top (missing file is fine).
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DBPath:    getEnv("PIQ_DB_PATH", "./pipelineiq.db"),
		Port:      getEnvInt("PIQ_PORT", 8080),
		JWTSecret: getEnv("PIQ_JWT_SECRET", "dev-secret-key-change-in-production"),
		TokenTTL:  time.Duration(getEnvInt("PIQ_TOKEN_TTL_MINUTES", 30)) * time.Minute,
		LogLevel:  getEnvLevel("PIQ_LOG_LEVEL", slog.LevelInfo),
	}
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
