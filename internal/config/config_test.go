package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealwatch/backend/internal/apperror"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment to test defaults
	_ = os.Unsetenv("PORT")
	_ = os.Unsetenv("ENV")
	_ = os.Unsetenv("DATABASE_URL")
	_ = os.Unsetenv("DISCOUNT_THRESHOLD")
	_ = os.Unsetenv("DELIVERY_CHANNEL")
	_ = os.Unsetenv("TRACKER_SCHEDULE")
	_ = os.Unsetenv("CURRENCY")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Contains(t, cfg.DatabaseURL, "postgres://")
	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:3000")
	assert.Equal(t, 10, cfg.Tracker.DiscountThreshold)
	assert.True(t, cfg.Tracker.NotifyFirstSighting)
	assert.Equal(t, "0 */4 * * *", cfg.Tracker.Schedule)
	assert.Equal(t, ChannelLog, cfg.Delivery.Channel)
	assert.Equal(t, "USD", cfg.Currency.Code)
	assert.Equal(t, 587, cfg.Delivery.SMTPPort)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_WithEnvVars(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://test:5432/testdb")
	t.Setenv("ALLOWED_ORIGINS", "http://example.com,http://test.com")
	t.Setenv("DISCOUNT_THRESHOLD", "25")
	t.Setenv("NOTIFY_FIRST_SIGHTING", "false")
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("TRACKER_TIMEOUT", "2m")
	t.Setenv("DELIVERY_CHANNEL", "kafka")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CURRENCY", "EUR")
	t.Setenv("EXCHANGE_RATES_TTL", "1h")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "postgres://test:5432/testdb", cfg.DatabaseURL)
	assert.Len(t, cfg.AllowedOrigins, 2)
	assert.Equal(t, 25, cfg.Tracker.DiscountThreshold)
	assert.False(t, cfg.Tracker.NotifyFirstSighting)
	assert.Equal(t, 8, cfg.Tracker.FetchConcurrency)
	assert.Equal(t, 2*time.Minute, cfg.Tracker.Timeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Delivery.KafkaBrokers)
	assert.Equal(t, "EUR", cfg.Currency.Code)
	assert.Equal(t, time.Hour, cfg.Currency.RatesTTL)
	assert.NoError(t, cfg.Validate())
}

func validConfig() *Config {
	return &Config{
		Env:          "development",
		DatabaseURL:  "postgres://localhost/dealwatch",
		StoreBackend: BackendPostgres,
		Feed: FeedConfig{
			BaseURL:           "https://feed.example",
			RequestsPerMinute: 60,
			MaxAttempts:       3,
		},
		Tracker: TrackerConfig{
			Enabled:           true,
			Schedule:          "0 */4 * * *",
			DiscountThreshold: 10,
			FetchConcurrency:  4,
		},
		Delivery: DeliveryConfig{Channel: ChannelLog},
		Currency: CurrencyConfig{Code: "USD", RatesURL: "https://rates.example"},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"valid", func(*Config) {}, ""},
		{"memory backend without database", func(c *Config) { c.StoreBackend = BackendMemory; c.DatabaseURL = "" }, ""},
		{"unknown backend", func(c *Config) { c.StoreBackend = "sqlite" }, "STORE_BACKEND"},
		{"postgres without url", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"threshold above 100", func(c *Config) { c.Tracker.DiscountThreshold = 101 }, "DISCOUNT_THRESHOLD"},
		{"negative threshold", func(c *Config) { c.Tracker.DiscountThreshold = -1 }, "DISCOUNT_THRESHOLD"},
		{"zero concurrency", func(c *Config) { c.Tracker.FetchConcurrency = 0 }, "FETCH_CONCURRENCY"},
		{"bad schedule", func(c *Config) { c.Tracker.Schedule = "every day" }, "TRACKER_SCHEDULE"},
		{"descriptor schedule", func(c *Config) { c.Tracker.Schedule = "@every 4h" }, ""},
		{"six field schedule", func(c *Config) { c.Tracker.Schedule = "0 0 */4 * * *" }, "TRACKER_SCHEDULE"},
		{"bad schedule ignored when disabled", func(c *Config) { c.Tracker.Enabled = false; c.Tracker.Schedule = "x" }, ""},
		{"telegram without token", func(c *Config) { c.Delivery.Channel = ChannelTelegram }, "TELEGRAM_BOT_TOKEN"},
		{"telegram with token", func(c *Config) { c.Delivery.Channel = ChannelTelegram; c.Delivery.TelegramToken = "t" }, ""},
		{"kafka without brokers", func(c *Config) { c.Delivery.Channel = ChannelKafka }, "KAFKA_BROKERS"},
		{"email without host", func(c *Config) { c.Delivery.Channel = ChannelEmail; c.Delivery.EmailFrom = "a@b.c" }, "SMTP_HOST"},
		{"email without sender", func(c *Config) { c.Delivery.Channel = ChannelEmail; c.Delivery.SMTPHost = "smtp" }, "NOTIFICATION_EMAIL"},
		{"email configured", func(c *Config) {
			c.Delivery.Channel = ChannelEmail
			c.Delivery.SMTPHost = "smtp"
			c.Delivery.EmailFrom = "a@b.c"
		}, ""},
		{"unknown channel", func(c *Config) { c.Delivery.Channel = "smtp" }, "DELIVERY_CHANNEL"},
		{"unsupported currency", func(c *Config) { c.Currency.Code = "XYZ" }, "CURRENCY"},
		{"lowercase currency", func(c *Config) { c.Currency.Code = "eur" }, "CURRENCY"},
		{"converted currency", func(c *Config) { c.Currency.Code = "JPY" }, ""},
		{"converted currency without rates", func(c *Config) { c.Currency.Code = "JPY"; c.Currency.RatesURL = "" }, "EXCHANGE_RATES_URL"},
		{"zero rate", func(c *Config) { c.Feed.RequestsPerMinute = 0 }, "FEED_REQUESTS_PER_MINUTE"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.key == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *apperror.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env      string
		expected bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Env: tt.env}
			assert.Equal(t, tt.expected, cfg.IsDevelopment())
			assert.Equal(t, tt.env == "production", cfg.IsProduction())
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")

	assert.Equal(t, "test_value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT_VAR", "default"))
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, getIntEnv("TEST_INT", 1))

	t.Setenv("TEST_INT", "forty")
	assert.Equal(t, 1, getIntEnv("TEST_INT", 1))
}

func TestGetBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		setEnv       bool
		defaultValue bool
		expected     bool
	}{
		{"true value", "true", true, false, true},
		{"false value", "false", true, true, false},
		{"1 value", "1", true, false, true},
		{"0 value", "0", true, true, false},
		{"invalid value uses default", "invalid", true, true, true},
		{"unset uses default true", "", false, true, true},
		{"unset uses default false", "", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv("TEST_BOOL", tt.envValue)
			} else {
				_ = os.Unsetenv("TEST_BOOL")
			}
			assert.Equal(t, tt.expected, getBoolEnv("TEST_BOOL", tt.defaultValue))
		})
	}
}
