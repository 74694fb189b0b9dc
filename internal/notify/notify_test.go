package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/pkg/currency"
)

func testEvent(previous string) model.DropEvent {
	ev := model.DropEvent{
		GameID:    "612",
		GameTitle: "LEGO Batman",
		StoreID:   "1",
		StoreName: "Steam",
		Current: model.PriceSnapshot{
			GameID:          "612",
			StoreID:         "1",
			Price:           decimal.NewFromInt(30),
			RetailPrice:     decimal.NewFromInt(80),
			DiscountPercent: 62,
		},
		Users: []int64{1, 2},
	}
	if previous != "" {
		ev.Previous = &model.PriceSnapshot{Price: decimal.RequireFromString(previous)}
	}
	return ev
}

type fixedRates map[currency.Currency]string

func (f fixedRates) Rate(_ context.Context, to currency.Currency) (decimal.Decimal, error) {
	r, ok := f[to]
	if !ok {
		return decimal.Zero, errors.New("rate service unavailable")
	}
	return decimal.RequireFromString(r), nil
}

func TestFormatDropMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		event    model.DropEvent
		quote    currency.Quote
		expected string
	}{
		{
			name:     "known previous price",
			event:    testEvent("40"),
			quote:    currency.USDQuote(),
			expected: "🔥 Price Drop Alert! 🔥\n\nGame: LEGO Batman\n\n🏪 Steam: $30.00 (was $40.00, -62%)\n\nUse /search LEGO Batman to get more details!",
		},
		{
			name:     "first sighting",
			event:    testEvent(""),
			quote:    currency.USDQuote(),
			expected: "🔥 Price Drop Alert! 🔥\n\nGame: LEGO Batman\n\n🏪 Steam: $30.00 (was unknown, regular $80.00, -62%)\n\nUse /search LEGO Batman to get more details!",
		},
		{
			name:     "yen amounts are converted",
			event:    testEvent("40"),
			quote:    currency.Quote{Currency: currency.JPY, Rate: decimal.NewFromInt(150)},
			expected: "🔥 Price Drop Alert! 🔥\n\nGame: LEGO Batman\n\n🏪 Steam: ¥4500 (was ¥6000, -62%)\n\nUse /search LEGO Batman to get more details!",
		},
		{
			name:     "euro first sighting converts regular price",
			event:    testEvent(""),
			quote:    currency.Quote{Currency: currency.EUR, Rate: decimal.RequireFromString("0.5")},
			expected: "🔥 Price Drop Alert! 🔥\n\nGame: LEGO Batman\n\n🏪 Steam: 15.00€ (was unknown, regular 40.00€, -62%)\n\nUse /search LEGO Batman to get more details!",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, FormatDropMessage(tt.event, tt.quote))
		})
	}
}

func TestQuoteFor(t *testing.T) {
	t.Parallel()

	t.Run("converts with available rate", func(t *testing.T) {
		t.Parallel()

		q := quoteFor(context.Background(), currency.NewQuoter(currency.JPY, fixedRates{currency.JPY: "150"}), nil)
		assert.Equal(t, "¥4500", q.Format(decimal.NewFromInt(30)))
	})

	t.Run("falls back to usd without a rate", func(t *testing.T) {
		t.Parallel()

		q := quoteFor(context.Background(), currency.NewQuoter(currency.EUR, fixedRates{}), nil)
		assert.Equal(t, "$30.00", q.Format(decimal.NewFromInt(30)))
	})
}

func TestTelegramChannel_Deliver(t *testing.T) {
	t.Parallel()

	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botsecret/sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	t.Cleanup(srv.Close)

	ch := NewTelegramChannel(TelegramConfig{Token: "secret", APIURL: srv.URL, MessagesPerSecond: 100}, nil)

	err := ch.Deliver(context.Background(), 42, testEvent("40"))

	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ChatID)
	assert.Contains(t, got.Text, "🏪 Steam: $30.00 (was $40.00, -62%)")
}

func TestTelegramChannel_ConvertsCurrency(t *testing.T) {
	t.Parallel()

	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	t.Cleanup(srv.Close)

	quoter := currency.NewQuoter(currency.JPY, fixedRates{currency.JPY: "150"})
	ch := NewTelegramChannel(TelegramConfig{Token: "secret", APIURL: srv.URL, MessagesPerSecond: 100, Quoter: quoter}, nil)

	require.NoError(t, ch.Deliver(context.Background(), 42, testEvent("40")))
	assert.Contains(t, got.Text, "🏪 Steam: ¥4500 (was ¥6000, -62%)")
}

func TestTelegramChannel_DeliverFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	t.Cleanup(srv.Close)

	ch := NewTelegramChannel(TelegramConfig{Token: "t", APIURL: srv.URL, MessagesPerSecond: 100}, nil)

	err := ch.Deliver(context.Background(), 7, testEvent("40"))

	var de *apperror.DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, int64(7), de.UserID)
	assert.Equal(t, "telegram", de.Channel)
	assert.Contains(t, err.Error(), "bot was blocked")
}

func TestTelegramChannel_ContextCancelled(t *testing.T) {
	t.Parallel()

	ch := NewTelegramChannel(TelegramConfig{Token: "t", APIURL: "http://127.0.0.1:1", MessagesPerSecond: 1}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ch.Deliver(ctx, 7, testEvent("40"))

	var de *apperror.DeliveryError
	assert.True(t, errors.As(err, &de))
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func TestKafkaChannel_Deliver(t *testing.T) {
	t.Parallel()

	w := new(mockWriter)
	ch := &KafkaChannel{writer: w}

	var captured []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).([]kafka.Message) }).
		Return(nil).Once()

	require.NoError(t, ch.Deliver(context.Background(), 42, testEvent("40")))

	require.Len(t, captured, 1)
	assert.Equal(t, "42", string(captured[0].Key))

	var n DropNotification
	require.NoError(t, json.Unmarshal(captured[0].Value, &n))
	assert.Equal(t, int64(42), n.UserID)
	assert.Equal(t, []int64{42}, n.Event.Users)
	assert.Equal(t, "612", n.Event.GameID)
	assert.Contains(t, n.Text, "LEGO Batman")
	w.AssertExpectations(t)
}

func TestKafkaChannel_DeliverError(t *testing.T) {
	t.Parallel()

	w := new(mockWriter)
	ch := &KafkaChannel{writer: w}
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("leader not available"))

	err := ch.Deliver(context.Background(), 42, testEvent("40"))

	var de *apperror.DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "kafka", de.Channel)
}

func TestKafkaChannel_DoesNotMutateEvent(t *testing.T) {
	t.Parallel()

	w := new(mockWriter)
	ch := &KafkaChannel{writer: w}
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(nil)

	ev := testEvent("40")
	require.NoError(t, ch.Deliver(context.Background(), 1, ev))
	assert.Equal(t, []int64{1, 2}, ev.Users)
}

func TestLogChannel_Deliver(t *testing.T) {
	t.Parallel()

	ch := NewLogChannel(currency.NewQuoter(currency.USD, nil), nil)
	assert.NoError(t, ch.Deliver(context.Background(), 1, testEvent("")))
}

func TestNewKafkaChannel(t *testing.T) {
	t.Parallel()

	ch := NewKafkaChannel([]string{"localhost:9092"}, "price-drops", nil, nil)
	w, ok := ch.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "price-drops", w.Topic)
	assert.Less(t, time.Duration(0), w.BatchTimeout)
}
