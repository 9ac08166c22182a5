package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	// Redis checkpoint backend; empty means checkpoints live in SQLite.
	RedisAddr string

	ScanWorkerCount int
	ScanQueueSize   int

	// Auto-scan step policy.
	ScanMaxAttempts          int
	ScanMaxConsecutiveErrors int
	ScanPageDelimiter        string

	// Study queue assembly.
	StudyPageSize     int
	NewCardCap        int
	NewCardInterleave int

	// How often overdue exam sessions are swept into the expired state.
	SessionSweepMinutes int

	ExtractorBaseURL string
	DrafterBaseURL   string
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:      envOr("ADDR", ":8080"),
		DBPath:    envOr("DB_PATH", "file:cardforge.db"),
		LogLevel:  envOr("LOG_LEVEL", "INFO"),
		RedisAddr: envOr("REDIS_ADDR", ""),

		ScanWorkerCount: envIntOr("SCAN_WORKER_COUNT", 2),
		ScanQueueSize:   envIntOr("SCAN_QUEUE_SIZE", 16),

		ScanMaxAttempts:          envIntOr("SCAN_MAX_ATTEMPTS", 2),
		ScanMaxConsecutiveErrors: envIntOr("SCAN_MAX_CONSECUTIVE_ERRORS", 3),
		ScanPageDelimiter:        envOr("SCAN_PAGE_DELIMITER", "\n\n--- PAGE BREAK ---\n\n"),

		StudyPageSize:     envIntOr("STUDY_PAGE_SIZE", 20),
		NewCardCap:        envIntOr("NEW_CARD_CAP", 10),
		NewCardInterleave: envIntOr("NEW_CARD_INTERLEAVE", 3),

		SessionSweepMinutes: envIntOr("SESSION_SWEEP_MINUTES", 1),

		ExtractorBaseURL: envOr("EXTRACTOR_BASE_URL", "http://localhost:9090"),
		DrafterBaseURL:   envOr("DRAFTER_BASE_URL", "http://localhost:9091"),
	}
}

// Validate checks that the configuration is internally consistent. All
// problems are reported at once so the operator can fix the .env in one pass.
func (c Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if c.DBPath == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		problems = append(problems, "LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR")
	}
	if c.ScanWorkerCount < 1 {
		problems = append(problems, "SCAN_WORKER_COUNT must be at least 1")
	}
	if c.ScanQueueSize < 1 {
		problems = append(problems, "SCAN_QUEUE_SIZE must be at least 1")
	}
	if c.ScanMaxAttempts < 1 {
		problems = append(problems, "SCAN_MAX_ATTEMPTS must be at least 1")
	}
	if c.ScanMaxConsecutiveErrors < 1 {
		problems = append(problems, "SCAN_MAX_CONSECUTIVE_ERRORS must be at least 1")
	}
	if c.StudyPageSize < 1 {
		problems = append(problems, "STUDY_PAGE_SIZE must be at least 1")
	}
	if c.NewCardCap < 0 {
		problems = append(problems, "NEW_CARD_CAP cannot be negative")
	}
	if c.NewCardInterleave < 1 {
		problems = append(problems, "NEW_CARD_INTERLEAVE must be at least 1")
	}
	if c.SessionSweepMinutes < 1 {
		problems = append(problems, "SESSION_SWEEP_MINUTES must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
