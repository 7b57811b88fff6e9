package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 7, cfg.JWT.TokenLifetimeDays)
	assert.Equal(t, "telegram", cfg.Notifier.Backend)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.APIBaseURL)
	assert.True(t, cfg.RabbitMQ.QueueDurable)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TOKEN_LIFETIME_DAYS", "30")
	t.Setenv("NOTIFIER_BACKEND", "rabbitmq")
	t.Setenv("DB_USE_SSL", "true")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 30, cfg.JWT.TokenLifetimeDays)
	assert.Equal(t, "rabbitmq", cfg.Notifier.Backend)
	assert.True(t, cfg.Database.UseSSL)
}
