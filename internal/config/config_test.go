package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ederson/cardforge/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:                     ":8080",
		DBPath:                   "test.db",
		LogLevel:                 "INFO",
		ScanWorkerCount:          2,
		ScanQueueSize:            16,
		ScanMaxAttempts:          2,
		ScanMaxConsecutiveErrors: 3,
		StudyPageSize:            20,
		NewCardCap:               10,
		NewCardInterleave:        3,
		SessionSweepMinutes:      1,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR cannot be empty")
}

func TestValidate_EmptyDBPath(t *testing.T) {
	cfg := validConfig()
	cfg.DBPath = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PATH cannot be empty")
}

func TestValidate_LogLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "debug", level: "DEBUG"},
		{name: "info", level: "INFO"},
		{name: "warn", level: "WARN"},
		{name: "error", level: "ERROR"},
		{name: "lowercase accepted", level: "debug"},
		{name: "invalid level", level: "INVALID", wantErr: true},
		{name: "empty level", level: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.LogLevel = tt.level

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "LOG_LEVEL")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_ScanSettings(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*config.Config)
		expectedError string
	}{
		{
			name:          "zero scan workers",
			mutate:        func(c *config.Config) { c.ScanWorkerCount = 0 },
			expectedError: "SCAN_WORKER_COUNT",
		},
		{
			name:          "zero scan queue",
			mutate:        func(c *config.Config) { c.ScanQueueSize = 0 },
			expectedError: "SCAN_QUEUE_SIZE",
		},
		{
			name:          "zero attempts",
			mutate:        func(c *config.Config) { c.ScanMaxAttempts = 0 },
			expectedError: "SCAN_MAX_ATTEMPTS",
		},
		{
			name:          "zero consecutive error threshold",
			mutate:        func(c *config.Config) { c.ScanMaxConsecutiveErrors = 0 },
			expectedError: "SCAN_MAX_CONSECUTIVE_ERRORS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestValidate_StudySettings(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*config.Config)
		expectedError string
	}{
		{
			name:          "zero page size",
			mutate:        func(c *config.Config) { c.StudyPageSize = 0 },
			expectedError: "STUDY_PAGE_SIZE",
		},
		{
			name:          "negative new card cap",
			mutate:        func(c *config.Config) { c.NewCardCap = -1 },
			expectedError: "NEW_CARD_CAP",
		},
		{
			name:          "zero interleave ratio",
			mutate:        func(c *config.Config) { c.NewCardInterleave = 0 },
			expectedError: "NEW_CARD_INTERLEAVE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := config.Config{}

	err := cfg.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "ADDR cannot be empty")
	assert.Contains(t, errStr, "DB_PATH cannot be empty")
	assert.Contains(t, errStr, "LOG_LEVEL")
	assert.Contains(t, errStr, "SCAN_WORKER_COUNT")
	assert.Contains(t, errStr, "STUDY_PAGE_SIZE")
	assert.Contains(t, errStr, "SESSION_SWEEP_MINUTES")
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DB_PATH", "custom.db")
	t.Setenv("SCAN_MAX_CONSECUTIVE_ERRORS", "5")

	cfg := config.Load()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "custom.db", cfg.DBPath)
	assert.Equal(t, 5, cfg.ScanMaxConsecutiveErrors)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("ADDR")
	os.Unsetenv("SCAN_MAX_ATTEMPTS")

	cfg := config.Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 2, cfg.ScanMaxAttempts)
	assert.Equal(t, 3, cfg.ScanMaxConsecutiveErrors)
	assert.NoError(t, cfg.Validate())
}
