package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WEBTAROT_DATABASE_URL", "postgres://localhost:5432/webtarot")
	t.Setenv("WEBTAROT_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		validEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "info", cfg.Server.LogLevel)
		assert.Equal(t, 2, cfg.Task.WorkerCount)
		assert.Equal(t, 100, cfg.Task.QueueSize)
		assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.OpenAIBaseURL)
		assert.NotEmpty(t, cfg.LLM.OpenAIModel)
		assert.NotEmpty(t, cfg.LLM.GeminiModel)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		validEnv(t)
		t.Setenv("WEBTAROT_SERVER_PORT", "9000")
		t.Setenv("WEBTAROT_SERVER_LOG_LEVEL", "debug")
		t.Setenv("WEBTAROT_TASK_WORKER_COUNT", "8")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Server.LogLevel)
		assert.Equal(t, 8, cfg.Task.WorkerCount)
	})

	t.Run("rejects missing database url", func(t *testing.T) {
		t.Setenv("WEBTAROT_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects short jwt secret", func(t *testing.T) {
		t.Setenv("WEBTAROT_DATABASE_URL", "postgres://localhost:5432/webtarot")
		t.Setenv("WEBTAROT_AUTH_JWT_SECRET", "short")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects invalid log level", func(t *testing.T) {
		validEnv(t)
		t.Setenv("WEBTAROT_SERVER_LOG_LEVEL", "verbose")

		_, err := Load()
		assert.Error(t, err)
	})
}
