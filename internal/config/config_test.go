package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("дефолты опроса и rate limit", func(t *testing.T) {
		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, cfg.Poller.MeetingInterval)
		assert.Equal(t, 2*time.Second, cfg.Poller.MessageInterval)
		assert.Equal(t, 100, cfg.RateLimit.Requests)
		assert.Equal(t, 60*time.Second, cfg.RateLimit.Window)
	})

	t.Run("переопределение через окружение", func(t *testing.T) {
		t.Setenv("POLLER_MEETING_INTERVAL", "10s")
		t.Setenv("POLLER_MESSAGE_INTERVAL", "1s")
		t.Setenv("RATE_LIMIT_REQUESTS", "7")
		t.Setenv("RATE_LIMIT_WINDOW", "30s")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, cfg.Poller.MeetingInterval)
		assert.Equal(t, time.Second, cfg.Poller.MessageInterval)
		assert.Equal(t, 7, cfg.RateLimit.Requests)
		assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	})

	t.Run("ошибка: нулевой лимит запросов", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_REQUESTS", "0")

		_, err := Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limit")
	})

	t.Run("ошибка: нулевой интервал опроса", func(t *testing.T) {
		t.Setenv("POLLER_MEETING_INTERVAL", "0s")

		_, err := Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "poller")
	})
}
