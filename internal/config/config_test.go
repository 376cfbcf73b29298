package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://backend.test/api/")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("API_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://backend.test/api/", cfg.APIBaseURL)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, 15*time.Second, cfg.APITimeout)
	require.Equal(t, 20, cfg.AuthRateLimitRPM)
	require.Equal(t, "/login", cfg.LoginPath)
	require.Equal(t, "/", cfg.HomePath)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			ListenAddr:      "127.0.0.1:0",
			APIBaseURL:      "http://backend.test/api/",
			APITimeout:      time.Second,
			RequestTimeout:  time.Second,
			ResolveTimeout:  time.Second,
			APIRateLimitRPS: 1,
			LoginPath:       "/login",
			HomePath:        "/",
		}
	}

	t.Run("accepts a complete config", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("rejects relative api url", func(t *testing.T) {
		cfg := valid()
		cfg.APIBaseURL = "/api/"
		require.Error(t, cfg.Validate())
	})

	t.Run("rejects identical login and home paths", func(t *testing.T) {
		cfg := valid()
		cfg.HomePath = "/login"
		require.Error(t, cfg.Validate())
	})
}

func TestSplitCSV(t *testing.T) {
	t.Parallel()

	require.Nil(t, splitCSV("  "))
	require.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b "))
}
