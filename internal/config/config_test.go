package config_test

import (
	"testing"
	"time"

	"crackerstore/internal/config"
	"crackerstore/internal/orderapi"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, orderapi.DefaultBaseURL, cfg.OrderAPIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.OrderAPITimeout)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Equal(t, []string{"FIRSTSALE15"}, cfg.CouponCodes)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ORDER_API_TIMEOUT", "3s")
	t.Setenv("COUPON_CODES", " firstsale15 , DIWALI10 ,,")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.OrderAPITimeout)
	assert.Equal(t, []string{"firstsale15", "DIWALI10"}, cfg.CouponCodes)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestFromViper_Invalid(t *testing.T) {
	cases := map[string]string{
		"ORDER_API_TIMEOUT": "soon",
		"DATABASE_DRIVER":   "mysql",
		"LOG_LEVEL":         "loud",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			v := viper.New()
			config.SetDefaults(v)
			v.Set(key, value)
			_, err := config.FromViper(v)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
