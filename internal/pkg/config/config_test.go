package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "REDIS_ADDR", "CART_TTL", "MEMBER_DISCOUNT_RATE", "OTEL_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 72*time.Hour, cfg.CartTTL)
	assert.True(t, decimal.RequireFromString("0.03").Equal(cfg.MemberDiscountRate))
	assert.False(t, cfg.OTelEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CART_TTL", "30m")
	t.Setenv("MEMBER_DISCOUNT_RATE", "0.05")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Minute, cfg.CartTTL)
	assert.True(t, decimal.RequireFromString("0.05").Equal(cfg.MemberDiscountRate))
	assert.True(t, cfg.OTelEnabled)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("CART_TTL", "soon")
	t.Setenv("MEMBER_DISCOUNT_RATE", "1.5")
	t.Setenv("OTEL_ENABLED", "maybe")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CART_TTL")
	assert.Contains(t, err.Error(), "MEMBER_DISCOUNT_RATE")
	assert.Contains(t, err.Error(), "OTEL_ENABLED")
}
