package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("PORT", "")
	t.Setenv("USE_LOCAL_DB", "")
	t.Setenv("REMINDER_HORIZON_DAYS", "")
	t.Setenv("REMINDER_INTERVAL_SECONDS", "")

	cfg := LoadConfig()

	if cfg.Port != "3000" {
		t.Errorf("default port = %q, want 3000", cfg.Port)
	}
	if !cfg.UseLocalDB {
		t.Error("development should default to the local database")
	}
	if cfg.ReminderHorizonDays != 1 {
		t.Errorf("default horizon = %d, want 1", cfg.ReminderHorizonDays)
	}
	if cfg.ReminderInterval != 30*time.Second {
		t.Errorf("default interval = %s, want 30s", cfg.ReminderInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default development config should validate: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("REMINDER_HORIZON_DAYS", "3")
	t.Setenv("REMINDER_INTERVAL_SECONDS", "120")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := LoadConfig()

	if cfg.ReminderHorizonDays != 3 {
		t.Errorf("horizon = %d, want 3", cfg.ReminderHorizonDays)
	}
	if cfg.ReminderInterval != 2*time.Minute {
		t.Errorf("interval = %s, want 2m", cfg.ReminderInterval)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("allowed origins = %v, want 2 entries", cfg.AllowedOrigins)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment:         "development",
			Port:                "3000",
			UseLocalDB:          true,
			JWTSecret:           "secret",
			ReminderHorizonDays: 1,
			ReminderInterval:    time.Minute,
		}
	}

	cfg := base()
	cfg.Port = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty port should fail validation")
	}

	cfg = base()
	cfg.ReminderHorizonDays = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero horizon should fail validation")
	}

	cfg = base()
	cfg.ReminderInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero interval should fail validation")
	}

	cfg = base()
	cfg.UseLocalDB = false
	cfg.PostgresDSN = ""
	if err := cfg.Validate(); err == nil {
		t.Error("postgres mode without DSN should fail validation")
	}

	cfg = base()
	cfg.Environment = "production"
	cfg.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Error("production without JWT secret should fail validation")
	}
}
