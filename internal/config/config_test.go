package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_APITOKEN", "token")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("REMINDER_MODE", "")
	t.Setenv("REMINDER_TIME", "")
	t.Setenv("REMINDER_INTERVAL_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bot.db", cfg.DatabaseDSN)
	assert.Equal(t, ReminderModeDaily, cfg.ReminderMode)
	assert.Equal(t, "0 10 * * *", cfg.ReminderSpec())
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_APITOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_APITOKEN")
}

func TestLoadReminderTime(t *testing.T) {
	t.Setenv("TELEGRAM_APITOKEN", "token")
	t.Setenv("REMINDER_MODE", "daily")
	t.Setenv("REMINDER_TIME", "18:30")
	t.Setenv("REMINDER_INTERVAL_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "30 18 * * *", cfg.ReminderSpec())
}

func TestLoadAcceleratedMode(t *testing.T) {
	t.Setenv("TELEGRAM_APITOKEN", "token")
	t.Setenv("REMINDER_MODE", "accelerated")
	t.Setenv("REMINDER_TIME", "")
	t.Setenv("REMINDER_INTERVAL_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "@every 5s", cfg.ReminderSpec())
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown mode", "REMINDER_MODE", "hourly"},
		{"bad hour", "REMINDER_TIME", "25:00"},
		{"bad minute", "REMINDER_TIME", "10:61"},
		{"no separator", "REMINDER_TIME", "1000"},
		{"negative interval", "REMINDER_INTERVAL_SECONDS", "-1"},
		{"non-numeric interval", "REMINDER_INTERVAL_SECONDS", "soon"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TELEGRAM_APITOKEN", "token")
			t.Setenv("REMINDER_MODE", "")
			t.Setenv("REMINDER_TIME", "")
			t.Setenv("REMINDER_INTERVAL_SECONDS", "")
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
