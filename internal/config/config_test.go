package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, CatalogSourceSeed, cfg.CatalogSource)
	assert.False(t, cfg.MessagingEnabled)
	assert.True(t, cfg.RestockOnCancel)
	assert.Equal(t, 2*time.Second, cfg.ReserveTimeout)
	assert.Equal(t, "fulfillment.events", cfg.RabbitMQ.Exchange)
	assert.Equal(t, 5432, cfg.Database.Port)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CATALOG_SOURCE", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("RESTOCK_ON_CANCEL", "false")
	t.Setenv("RESERVE_TIMEOUT", "500ms")
	t.Setenv("PAYMENT_FAILURE_RATE", "0.25")
	t.Setenv("MESSAGING_ENABLED", "true")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, CatalogSourcePostgres, cfg.CatalogSource)
	assert.False(t, cfg.RestockOnCancel)
	assert.Equal(t, 500*time.Millisecond, cfg.ReserveTimeout)
	assert.Equal(t, 0.25, cfg.PaymentFailureRate)
	assert.True(t, cfg.MessagingEnabled)
	assert.Equal(t, "host=db port=5432 user=postgres password=postgres dbname=shop sslmode=disable", cfg.Database.DSN())
}

func TestLoad_MalformedValuesFailValidation(t *testing.T) {
	t.Setenv("RESERVE_TIMEOUT", "abc")
	t.Setenv("DB_PORT", "five")
	t.Setenv("RESTOCK_ON_CANCEL", "maybe")

	cfg := Load()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESERVE_TIMEOUT")
	assert.Contains(t, err.Error(), "DB_PORT")
	assert.Contains(t, err.Error(), "RESTOCK_ON_CANCEL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown catalog source", func(c *Config) { c.CatalogSource = "mongo" }},
		{"failure rate above one", func(c *Config) { c.PaymentFailureRate = 1.5 }},
		{"negative failure rate", func(c *Config) { c.PaymentFailureRate = -0.1 }},
		{"negative reserve timeout", func(c *Config) { c.ReserveTimeout = -time.Second }},
		{"messaging without retries", func(c *Config) {
			c.MessagingEnabled = true
			c.RabbitMQ.RetryCount = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
