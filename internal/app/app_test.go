package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealwatch/backend/internal/config"
	"github.com/dealwatch/backend/internal/logger"
	"github.com/dealwatch/backend/internal/notify"
)

func memoryConfig() *config.Config {
	cfg := config.Load()
	cfg.StoreBackend = config.BackendMemory
	cfg.RedisURL = ""
	cfg.Delivery.Channel = config.ChannelLog
	cfg.Tracker.Enabled = false
	return cfg
}

func TestNew_MemoryBackend(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logger.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Nil(t, a.DB)
	assert.NotNil(t, a.Tracker)
	assert.IsType(t, &notify.LogChannel{}, a.Channel)

	report, err := a.Tracker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.GamesPolled)
}

func TestNew_SelectsChannel(t *testing.T) {
	cfg := memoryConfig()
	cfg.Delivery.Channel = config.ChannelTelegram
	cfg.Delivery.TelegramToken = "token"

	a, err := New(context.Background(), cfg, logger.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	assert.IsType(t, &notify.TelegramChannel{}, a.Channel)

	cfg = memoryConfig()
	cfg.Delivery.Channel = config.ChannelKafka
	cfg.Delivery.KafkaBrokers = []string{"localhost:9092"}

	b, err := New(context.Background(), cfg, logger.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	assert.IsType(t, &notify.KafkaChannel{}, b.Channel)

	cfg = memoryConfig()
	cfg.Delivery.Channel = config.ChannelEmail
	cfg.Delivery.SMTPHost = "smtp.example.com"
	cfg.Delivery.EmailFrom = "alerts@example.com"
	cfg.Currency = config.CurrencyConfig{Code: "EUR", RatesURL: "https://rates.example"}

	c, err := New(context.Background(), cfg, logger.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.IsType(t, &notify.EmailChannel{}, c.Channel)
}

func TestRouter_UserProfile(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logger.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	router := a.Router()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/42", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/users/42", strings.NewReader(`{"email":"bat@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/42", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "bat@example.com")
}

func TestRouter_Health(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logger.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	rr := httptest.NewRecorder()
	a.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tracker/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No polling cycles recorded yet")
}
