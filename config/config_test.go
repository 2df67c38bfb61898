package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "memory", cfg.Storage.StatusBackend)
	assert.Equal(t, "log", cfg.Events.Backend)
	assert.Equal(t, 5*time.Second, cfg.Checkout.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.Checkout.PollBudget)
	assert.NotEmpty(t, cfg.JWT.Secret, "development falls back to a dev secret")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/paylink")
	t.Setenv("STATUS_BACKEND", "redis")
	t.Setenv("EVENTS_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("POLL_BUDGET", "1m")
	t.Setenv("PAYMENT_LINK_BASE_URL", "https://pay.example.com/")

	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 2*time.Second, cfg.Checkout.PollInterval)
	assert.Equal(t, time.Minute, cfg.Checkout.PollBudget)
	assert.Equal(t, "https://pay.example.com", cfg.Checkout.PaymentLinkBaseURL)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret in production": {"APP_ENV": "production", "JWT_SECRET": ""},
		"unknown storage":              {"STORAGE_BACKEND": "mongo"},
		"postgres without url":         {"STORAGE_BACKEND": "postgres", "DATABASE_URL": ""},
		"unknown events backend":       {"EVENTS_BACKEND": "nats"},
		"budget below interval":        {"POLL_INTERVAL": "10s", "POLL_BUDGET": "5s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			t.Setenv("JWT_SECRET", "x")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(zap.NewNop())
			assert.Error(t, err)
		})
	}
}
