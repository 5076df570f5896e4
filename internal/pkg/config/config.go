// Package config reads the storefront's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPAddr   string
	GRPCAddr   string
	SQLitePath string
	// RedisAddr empty keeps carts and guest identities in memory.
	RedisAddr string
	CartTTL   time.Duration

	MemberDiscountRate decimal.Decimal

	LogLevel string

	OTelEnabled     bool
	OTelServiceName string
	OTelEndpoint    string
	Environment     string
}

// Load reads the environment. Invalid values are reported together.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:        getEnv("GRPC_ADDR", ":9090"),
		SQLitePath:      getEnv("SQLITE_PATH", "./data/storefront.db"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		OTelServiceName: getEnv("OTEL_SERVICE_NAME", "storefront"),
		OTelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Environment:     getEnv("OTEL_RESOURCE_ATTRIBUTES_ENV", "local"),
	}

	var errs []error

	ttl, err := time.ParseDuration(getEnv("CART_TTL", "72h"))
	if err != nil || ttl < 0 {
		errs = append(errs, fmt.Errorf("config: CART_TTL: invalid duration %q", os.Getenv("CART_TTL")))
	}
	cfg.CartTTL = ttl

	rate, err := decimal.NewFromString(getEnv("MEMBER_DISCOUNT_RATE", "0.03"))
	if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("config: MEMBER_DISCOUNT_RATE: want a fraction between 0 and 1, got %q", os.Getenv("MEMBER_DISCOUNT_RATE")))
	}
	cfg.MemberDiscountRate = rate

	enabled, err := strconv.ParseBool(getEnv("OTEL_ENABLED", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("config: OTEL_ENABLED: %w", err))
	}
	cfg.OTelEnabled = enabled

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
