package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Reminder modes. Daily fires once per day at ReminderHour:ReminderMinute,
// accelerated fires every ReminderIntervalSeconds and exists for manual
// verification only.
const (
	ReminderModeDaily       = "daily"
	ReminderModeAccelerated = "accelerated"
)

type Config struct {
	Token       string
	DatabaseDSN string

	ReminderMode            string
	ReminderHour            int
	ReminderMinute          int
	ReminderIntervalSeconds int
}

// Load reads configuration from environment variables. A .env file, if
// present, is picked up by the godotenv autoload import in main.
func Load() (Config, error) {
	cfg := Config{
		DatabaseDSN:             "bot.db",
		ReminderMode:            ReminderModeDaily,
		ReminderHour:            10,
		ReminderMinute:          0,
		ReminderIntervalSeconds: 20,
	}

	cfg.Token = os.Getenv("TELEGRAM_APITOKEN")
	if cfg.Token == "" {
		return Config{}, errors.New("TELEGRAM_APITOKEN environment variable is required")
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.DatabaseDSN = dsn
	}

	if mode := os.Getenv("REMINDER_MODE"); mode != "" {
		if mode != ReminderModeDaily && mode != ReminderModeAccelerated {
			return Config{}, errors.Errorf("unknown REMINDER_MODE %q", mode)
		}
		cfg.ReminderMode = mode
	}

	if at := os.Getenv("REMINDER_TIME"); at != "" {
		hour, minute, err := parseClockTime(at)
		if err != nil {
			return Config{}, errors.Wrap(err, "invalid REMINDER_TIME")
		}
		cfg.ReminderHour, cfg.ReminderMinute = hour, minute
	}

	if secs := os.Getenv("REMINDER_INTERVAL_SECONDS"); secs != "" {
		n, err := strconv.Atoi(secs)
		if err != nil || n <= 0 {
			return Config{}, errors.Errorf("invalid REMINDER_INTERVAL_SECONDS %q", secs)
		}
		cfg.ReminderIntervalSeconds = n
	}

	return cfg, nil
}

// ReminderSpec returns the cron spec the reminder scheduler runs jobs on.
func (c Config) ReminderSpec() string {
	if c.ReminderMode == ReminderModeAccelerated {
		return fmt.Sprintf("@every %ds", c.ReminderIntervalSeconds)
	}
	return fmt.Sprintf("%d %d * * *", c.ReminderMinute, c.ReminderHour)
}

func parseClockTime(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("expected HH:MM, got %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
