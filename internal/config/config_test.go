package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "SERVICE_FEE", "CART_TTL", "CHECKOUT_POLL_INTERVAL", "CHECKOUT_POLL_MAX_ATTEMPTS", "KAFKA_BROKERS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.True(t, cfg.ServiceFee.Equal(decimal.RequireFromString("2.00")))
	assert.Equal(t, 720*time.Hour, cfg.CartTTL)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 60, cfg.PollMaxAttempts)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVICE_FEE", "3.50")
	t.Setenv("CART_TTL", "24h")
	t.Setenv("CHECKOUT_POLL_INTERVAL", "2s")
	t.Setenv("CHECKOUT_POLL_MAX_ATTEMPTS", "10")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")

	cfg := Load()
	assert.True(t, cfg.ServiceFee.Equal(decimal.RequireFromString("3.50")))
	assert.Equal(t, 24*time.Hour, cfg.CartTTL)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.PollMaxAttempts)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestDurationFallsBackOnGarbage(t *testing.T) {
	assert.Equal(t, 5*time.Second, duration("soon", 5*time.Second))
	assert.Equal(t, 5*time.Second, duration("-2s", 5*time.Second))
	assert.Equal(t, 10*time.Second, duration("10s", 5*time.Second))
}

func TestAtoiGuardsLowerBound(t *testing.T) {
	assert.Equal(t, 1, atoi("0"))
	assert.Equal(t, 1, atoi("nope"))
	assert.Equal(t, 42, atoi("42"))
}
