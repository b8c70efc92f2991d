package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/tutorlink/appointments/internal/schedule"
)

type Config struct {
	DBDSN          string
	Environment    string
	TelegramToken  string // optional; empty disables chat notifications
	MigrationsPath string
	SweepInterval  time.Duration

	BusinessHours schedule.BusinessHours
	Policy        schedule.Policy
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables win either way
	if err := godotenv.Load(".env"); err == nil {
		log.Println("Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    os.Getenv("ENV"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		SweepInterval:  time.Hour,
		BusinessHours:  schedule.DefaultBusinessHours(),
		Policy:         schedule.DefaultPolicy(),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse SWEEP_INTERVAL: %w", err)
		}
		cfg.SweepInterval = d
	}

	if err := cfg.applyPolicyOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyPolicyOverrides lets deployments tune the ambiguous cutoffs without
// touching code: the Saturday and weekday closing hours differ between
// markets, as do the advance-notice buffer and the dispute policy.
func (c *Config) applyPolicyOverrides() error {
	if v := os.Getenv("BUFFER_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("BUFFER_MINUTES must be a non-negative integer, got %q", v)
		}
		c.Policy.BufferMinutes = n
	}

	if v := os.Getenv("DISPUTE_POLICY"); v != "" {
		p := schedule.DisputePolicy(v)
		if !p.Valid() {
			return fmt.Errorf("DISPUTE_POLICY must be %q or %q, got %q", schedule.DisputeCancel, schedule.DisputeRevert, v)
		}
		c.Policy.Dispute = p
	}

	if v := os.Getenv("BUSINESS_HOURS_SAT_END"); v != "" {
		end, err := parseHour(v)
		if err != nil {
			return fmt.Errorf("BUSINESS_HOURS_SAT_END: %w", err)
		}
		w := c.BusinessHours[time.Saturday]
		w.EndMinute = end * 60
		c.BusinessHours[time.Saturday] = w
	}

	if v := os.Getenv("BUSINESS_HOURS_WEEKDAY_END"); v != "" {
		end, err := parseHour(v)
		if err != nil {
			return fmt.Errorf("BUSINESS_HOURS_WEEKDAY_END: %w", err)
		}
		for d := time.Monday; d <= time.Friday; d++ {
			w := c.BusinessHours[d]
			w.EndMinute = end * 60
			c.BusinessHours[d] = w
		}
	}

	return nil
}

func parseHour(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 24 {
		return 0, fmt.Errorf("must be an hour between 0 and 24, got %q", v)
	}
	return n, nil
}
