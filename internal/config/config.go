// Package config loads service settings from the environment through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"crackerstore/internal/coupon"
	"crackerstore/internal/orderapi"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config is the typed view of every setting the service reads.
type Config struct {
	AppPort         string
	OrderAPIBaseURL string
	OrderAPITimeout time.Duration
	DatabaseDriver  string
	DatabaseDSN     string
	JWTSecret       string
	RabbitMQURL     string
	CouponCodes     []string
	LogLevel        zerolog.Level
}

// SetDefaults registers the default for every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("ORDER_API_BASE_URL", orderapi.DefaultBaseURL)
	v.SetDefault("ORDER_API_TIMEOUT", "15s")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "crackerstore.db")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("COUPON_CODES", strings.Join(coupon.DefaultCodes, ","))
	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	timeout, err := time.ParseDuration(v.GetString("ORDER_API_TIMEOUT"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ORDER_API_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("invalid ORDER_API_TIMEOUT: must be positive")
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_DRIVER")))
	switch driver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("LOG_LEVEL")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	var codes []string
	for _, c := range strings.Split(v.GetString("COUPON_CODES"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}

	return Config{
		AppPort:         v.GetString("APP_PORT"),
		OrderAPIBaseURL: v.GetString("ORDER_API_BASE_URL"),
		OrderAPITimeout: timeout,
		DatabaseDriver:  driver,
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		RabbitMQURL:     strings.TrimSpace(v.GetString("RABBITMQ_URL")),
		CouponCodes:     codes,
		LogLevel:        level,
	}, nil
}
