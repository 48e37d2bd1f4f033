package config

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
)

type AppConfig struct {
	PostgresURL    string
	Query          string
	PostsLimit     int
	CommentsLimit  int // max 100
	RepliesLimit   int // max 100
	Workers        int
	RedditBaseURL  string
	UserAgent      string
	RequestTimeout int    // seconds
	MetricsAddr    string // empty disables the /metrics listener
	LogLevel       slog.Level
}

var Config AppConfig

func LoadConfig() {
	cfg := AppConfig{}

	cfg.PostgresURL = loadRequired("POSTGRES_URL")
	cfg.Query = loadRequired("HARVEST_QUERY")
	cfg.PostsLimit = loadOptionalInt("POSTS_LIMIT", 300)
	cfg.CommentsLimit = loadOptionalInt("COMMENTS_LIMIT", 50)
	cfg.RepliesLimit = loadOptionalInt("REPLIES_LIMIT", 20)
	cfg.Workers = loadOptionalInt("WORKERS", runtime.NumCPU())
	cfg.RedditBaseURL = loadOptional("REDDIT_BASE_URL", "https://www.reddit.com")
	cfg.UserAgent = loadOptional("USER_AGENT", "threadmine:v0.1")
	cfg.RequestTimeout = loadOptionalInt("REQUEST_TIMEOUT_SECONDS", 15)
	cfg.MetricsAddr = loadOptional("METRICS_ADDR", "")

	lvlString := loadOptional("LOG_LEVEL", "INFO")
	var err error
	cfg.LogLevel, err = parseLogLevel(lvlString)
	if err != nil {
		slog.Error("Invalid LOG_LEVEL", "error", err)
		cfg.LogLevel = slog.LevelInfo
	}

	Config = cfg
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	var err = level.UnmarshalText([]byte(s))
	return level, err
}

func loadRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error("Required env var not set", "key", key)
		os.Exit(1)
	}
	return value
}

func loadOptional(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func loadOptionalInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Error("Invalid int env var, using default", "key", key, "value", value)
		return defaultValue
	}
	return parsed
}
