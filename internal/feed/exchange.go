package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dealwatch/backend/pkg/currency"
)

// DefaultRatesURL serves the latest exchange rates with USD as the base.
const DefaultRatesURL = "https://api.exchangerate-api.com/v4"

// DefaultRatesTTL is how long a rate table is reused before refetching.
const DefaultRatesTTL = 6 * time.Hour

// RatesConfig holds exchange rate client settings.
type RatesConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	Retry             RetryConfig
	TTL               time.Duration
}

type ratesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// RatesClient converts feed prices (always USD) into a display currency.
// It shares the feed client's limiter, retry and error handling.
type RatesClient struct {
	client *Client
	ttl    time.Duration

	mu        sync.Mutex
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

// NewRatesClient creates a rate-limited exchange rate client.
func NewRatesClient(cfg RatesConfig, logger *slog.Logger, opts ...Option) *RatesClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultRatesURL
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultRatesTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RatesClient{
		client: NewClient(Config{
			BaseURL:           cfg.BaseURL,
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
			Retry:             cfg.Retry,
		}, logger.With("source", "exchange_rates"), opts...),
		ttl: cfg.TTL,
	}
}

// Rate returns how many units of to one US dollar buys.
func (r *RatesClient) Rate(ctx context.Context, to currency.Currency) (decimal.Decimal, error) {
	if to == currency.USD {
		return decimal.NewFromInt(1), nil
	}

	rates, err := r.load(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	rate, ok := rates[string(to)]
	if !ok {
		return decimal.Zero, fmt.Errorf("no exchange rate for %s", to)
	}
	return rate, nil
}

func (r *RatesClient) load(ctx context.Context) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rates != nil && r.client.now().Sub(r.fetchedAt) < r.ttl {
		return r.rates, nil
	}

	var resp ratesResponse
	if err := r.client.getJSON(ctx, "rates", "", "/latest/"+string(currency.USD), nil, &resp); err != nil {
		if r.rates != nil {
			r.client.logger.Warn("using stale exchange rates", slog.String("error", err.Error()))
			return r.rates, nil
		}
		return nil, err
	}
	if resp.Base != "" && resp.Base != string(currency.USD) {
		return nil, fmt.Errorf("exchange rates based on %s, want USD", resp.Base)
	}

	r.rates = resp.Rates
	r.fetchedAt = r.client.now()
	return r.rates, nil
}

var _ currency.RateSource = (*RatesClient)(nil)
