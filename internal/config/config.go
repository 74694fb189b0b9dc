package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/scheduler"
	"github.com/dealwatch/backend/pkg/currency"
)

// Delivery channels
const (
	ChannelTelegram = "telegram"
	ChannelKafka    = "kafka"
	ChannelEmail    = "email"
	ChannelLog      = "log"
)

// Store backends
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// FeedConfig holds settings for the discount feed client.
type FeedConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	MaxAttempts       int
	CacheTTL          time.Duration // Response cache for search/details/deals queries
}

// TrackerConfig holds settings for the polling cycle.
type TrackerConfig struct {
	Enabled             bool
	Schedule            string        // Cron expression (e.g., "0 */4 * * *")
	Timeout             time.Duration // Timeout for a complete cycle
	RunOnStart          bool
	DiscountThreshold   int
	NotifyFirstSighting bool
	FetchConcurrency    int
}

// DeliveryConfig selects and configures the notification channel.
type DeliveryConfig struct {
	Channel        string // "telegram", "kafka", "email", "log"
	TelegramToken  string
	TelegramAPIURL string
	TelegramPerSec int
	KafkaBrokers   []string
	KafkaTopic     string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	EmailFrom      string
}

// CurrencyConfig selects the currency prices are shown in. Feed prices are USD.
type CurrencyConfig struct {
	Code     string
	RatesURL string
	RatesTTL time.Duration
}

type Config struct {
	// Server
	Port     string
	Env      string // "development", "production"
	LogLevel string

	// Storage
	DatabaseURL  string
	StoreBackend string // "postgres", "memory"
	RedisURL     string // Empty disables the feed response cache

	// CORS
	AllowedOrigins []string

	Feed     FeedConfig
	Tracker  TrackerConfig
	Delivery DeliveryConfig
	Currency CurrencyConfig
}

func Load() *Config {
	return &Config{
		// Server
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Storage
		DatabaseURL:  getEnv("DATABASE_URL", "postgres://localhost:5432/dealwatch?sslmode=disable"),
		StoreBackend: getEnv("STORE_BACKEND", BackendPostgres),
		RedisURL:     os.Getenv("REDIS_URL"),

		// CORS
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		Feed: FeedConfig{
			BaseURL:           getEnv("FEED_BASE_URL", "https://www.cheapshark.com/api/1.0"),
			Timeout:           getDurationEnv("FEED_TIMEOUT", 10*time.Second),
			RequestsPerMinute: getIntEnv("FEED_REQUESTS_PER_MINUTE", 60),
			MaxAttempts:       getIntEnv("FEED_MAX_ATTEMPTS", 3),
			CacheTTL:          getDurationEnv("FEED_CACHE_TTL", time.Hour),
		},

		Tracker: TrackerConfig{
			Enabled:             getBoolEnv("TRACKER_ENABLED", true),
			Schedule:            getEnv("TRACKER_SCHEDULE", "0 */4 * * *"), // Default: every 4 hours
			Timeout:             getDurationEnv("TRACKER_TIMEOUT", 10*time.Minute),
			RunOnStart:          getBoolEnv("TRACKER_RUN_ON_START", true),
			DiscountThreshold:   getIntEnv("DISCOUNT_THRESHOLD", 10),
			NotifyFirstSighting: getBoolEnv("NOTIFY_FIRST_SIGHTING", true),
			FetchConcurrency:    getIntEnv("FETCH_CONCURRENCY", 4),
		},

		Delivery: DeliveryConfig{
			Channel:        getEnv("DELIVERY_CHANNEL", ChannelLog),
			TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
			TelegramAPIURL: getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
			TelegramPerSec: getIntEnv("TELEGRAM_MESSAGES_PER_SECOND", 25),
			KafkaBrokers:   splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			KafkaTopic:     getEnv("KAFKA_TOPIC", "price-drops"),
			SMTPHost:       os.Getenv("SMTP_HOST"),
			SMTPPort:       getIntEnv("SMTP_PORT", 587),
			SMTPUsername:   os.Getenv("SMTP_USERNAME"),
			SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
			EmailFrom:      os.Getenv("NOTIFICATION_EMAIL"),
		},

		Currency: CurrencyConfig{
			Code:     getEnv("CURRENCY", "USD"),
			RatesURL: getEnv("EXCHANGE_RATES_URL", "https://api.exchangerate-api.com/v4"),
			RatesTTL: getDurationEnv("EXCHANGE_RATES_TTL", 6*time.Hour),
		},
	}
}

// Validate reports the first setting that makes the service unable to start.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return apperror.NewConfigError("DATABASE_URL", "is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return apperror.NewConfigError("STORE_BACKEND", "must be postgres or memory")
	}

	if c.Feed.BaseURL == "" {
		return apperror.NewConfigError("FEED_BASE_URL", "is required")
	}
	if c.Feed.RequestsPerMinute <= 0 {
		return apperror.NewConfigError("FEED_REQUESTS_PER_MINUTE", "must be positive")
	}
	if c.Feed.MaxAttempts <= 0 {
		return apperror.NewConfigError("FEED_MAX_ATTEMPTS", "must be positive")
	}

	if c.Tracker.DiscountThreshold < 0 || c.Tracker.DiscountThreshold > 100 {
		return apperror.NewConfigError("DISCOUNT_THRESHOLD", "must be between 0 and 100")
	}
	if c.Tracker.FetchConcurrency <= 0 {
		return apperror.NewConfigError("FETCH_CONCURRENCY", "must be positive")
	}
	if c.Tracker.Enabled {
		if err := scheduler.ValidateSchedule(c.Tracker.Schedule); err != nil {
			return apperror.NewConfigError("TRACKER_SCHEDULE", err.Error())
		}
	}

	if !currency.IsValid(c.Currency.Code) {
		return apperror.NewConfigError("CURRENCY", "must be one of USD, EUR, GBP, CAD, AUD, JPY")
	}
	if c.Currency.Code != string(currency.USD) && c.Currency.RatesURL == "" {
		return apperror.NewConfigError("EXCHANGE_RATES_URL", "is required for non-USD currencies")
	}

	switch c.Delivery.Channel {
	case ChannelTelegram:
		if c.Delivery.TelegramToken == "" {
			return apperror.NewConfigError("TELEGRAM_BOT_TOKEN", "is required for the telegram channel")
		}
	case ChannelKafka:
		if len(c.Delivery.KafkaBrokers) == 0 {
			return apperror.NewConfigError("KAFKA_BROKERS", "is required for the kafka channel")
		}
	case ChannelEmail:
		if c.Delivery.SMTPHost == "" {
			return apperror.NewConfigError("SMTP_HOST", "is required for the email channel")
		}
		if c.Delivery.EmailFrom == "" {
			return apperror.NewConfigError("NOTIFICATION_EMAIL", "is required for the email channel")
		}
	case ChannelLog:
	default:
		return apperror.NewConfigError("DELIVERY_CHANNEL", "must be telegram, kafka, email or log")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitNonEmpty(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
