package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "SERVER_ENV", "DB_DRIVER", "DATABASE_URL", "JWT_SECRET", "STRIPE_MODE",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "STRIPE_WEBHOOK_TOLERANCE",
		"REDIS_ADDR", "REDIS_DB", "KAFKA_BROKERS", "RATE_LIMIT_STORE", "ATTEMPT_STORE",
		"LOGIN_LOCK_THRESHOLD", "OUTBOX_POLL_INTERVAL", "OUTBOX_MAX_ATTEMPTS", "ALLOWED_CURRENCIES",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Payment.WebhookTolerance)
	assert.Equal(t, []string{"USD"}, cfg.Payment.AllowedCurrencies)
	assert.Equal(t, 6, cfg.Security.LockThreshold)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 10, cfg.Kafka.MaxAttempts)
	assert.False(t, cfg.Server.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("STRIPE_WEBHOOK_TOLERANCE", "90s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ATTEMPT_STORE", "redis")
	t.Setenv("OUTBOX_MAX_ATTEMPTS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 90*time.Second, cfg.Payment.WebhookTolerance)
	assert.Equal(t, "redis", cfg.Security.AttemptStore)
	assert.Equal(t, 3, cfg.Kafka.MaxAttempts)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing jwt secret":  {},
		"bad driver":          {"JWT_SECRET": "s", "DB_DRIVER": "oracle"},
		"live without keys":   {"JWT_SECRET": "s", "STRIPE_MODE": "live"},
		"redis store no addr": {"JWT_SECRET": "s", "RATE_LIMIT_STORE": "redis"},
		"bad duration":        {"JWT_SECRET": "s", "STRIPE_WEBHOOK_TOLERANCE": "soon"},
		"bad threshold":       {"JWT_SECRET": "s", "LOGIN_LOCK_THRESHOLD": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
