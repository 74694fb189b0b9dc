// Package feed is the HTTP client for the CheapShark discount feed.
//
// Every request waits on a token bucket limiter and is retried with
// exponential backoff when the failure is transient (network, 5xx, 429).
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/pkg/currency"
)

// ErrGameNotFound is returned when the feed does not know a game ID.
var ErrGameNotFound = errors.New("game not found in feed")

// DefaultStoresTTL is how long the store list is reused before refetching.
const DefaultStoresTTL = 24 * time.Hour

// Config holds client settings.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	Retry             RetryConfig
	CacheTTL          time.Duration
	StoresTTL         time.Duration
}

// Client talks to the discount feed.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retry      RetryConfig
	logger     *slog.Logger
	cache      Cache
	cacheTTL   time.Duration
	now        func() time.Time

	storesMu        sync.Mutex
	stores          map[string]model.Store
	storesFetchedAt time.Time
	storesTTL       time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCache enables the response cache for the query endpoints.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock overrides time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a feed client with rate limiting.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.StoresTTL <= 0 {
		cfg.StoresTTL = DefaultStoresTTL
	}

	rps := float64(cfg.RequestsPerMinute) / 60.0
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		retry:      cfg.Retry,
		logger:     logger.With("component", "feed"),
		cacheTTL:   cfg.CacheTTL,
		now:        time.Now,
		storesTTL:  cfg.StoresTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchSnapshot returns the current price of a game at every store.
// Errors are *apperror.FetchError; the caller skips the game for this cycle.
func (c *Client) FetchSnapshot(ctx context.Context, gameID string) (*GameSnapshot, error) {
	lookup, err := c.lookupGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	observedAt := c.now().UTC()
	snap := &GameSnapshot{
		GameID:    gameID,
		Title:     lookup.Info.Title,
		Thumbnail: lookup.Info.Thumb,
		Prices:    make(map[string]model.PriceSnapshot, len(lookup.Deals)),
	}

	for _, d := range lookup.Deals {
		ps, err := toSnapshot(gameID, d.StoreID, d.Price, d.RetailPrice, d.Savings, observedAt)
		if err != nil {
			c.logger.Warn("skipping malformed deal",
				slog.String("game_id", gameID),
				slog.String("store_id", d.StoreID),
				slog.String("error", err.Error()),
			)
			continue
		}
		// One row per store is expected; keep the cheaper one if the feed repeats a store.
		if existing, ok := snap.Prices[d.StoreID]; ok && existing.Price.LessThanOrEqual(ps.Price) {
			continue
		}
		snap.Prices[d.StoreID] = ps
	}

	return snap, nil
}

// GameDetails returns a game with its per-store prices and store names.
func (c *Client) GameDetails(ctx context.Context, gameID string) (*model.GameDetails, error) {
	cacheKey := "game:" + gameID
	var cached model.GameDetails
	if c.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	snap, err := c.FetchSnapshot(ctx, gameID)
	if err != nil {
		return nil, err
	}

	details := &model.GameDetails{
		GameID:    snap.GameID,
		Title:     snap.Title,
		Thumbnail: snap.Thumbnail,
		Prices:    make([]model.StorePrice, 0, len(snap.Prices)),
	}
	for storeID, ps := range snap.Prices {
		details.Prices = append(details.Prices, model.StorePrice{
			StoreID:         storeID,
			StoreName:       c.StoreName(ctx, storeID),
			Price:           ps.Price,
			RetailPrice:     ps.RetailPrice,
			DiscountPercent: ps.DiscountPercent,
		})
	}
	sortStorePrices(details.Prices)

	c.cacheSet(ctx, cacheKey, details)
	return details, nil
}

// SearchGames looks games up by title.
func (c *Client) SearchGames(ctx context.Context, query string, limit int) ([]model.GameSummary, error) {
	if limit <= 0 || limit > 60 {
		limit = 10
	}

	cacheKey := "search:" + strconv.Itoa(limit) + ":" + query
	var cached []model.GameSummary
	if c.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	params := url.Values{}
	params.Set("title", query)
	params.Set("limit", strconv.Itoa(limit))

	var results []gameSearchResult
	if err := c.getJSON(ctx, "search", "", "/games", params, &results); err != nil {
		return nil, err
	}

	games := make([]model.GameSummary, 0, len(results))
	for _, r := range results {
		cheapest, err := currency.ParsePrice(r.Cheapest)
		if err != nil {
			c.logger.Debug("unparseable cheapest price", slog.String("game_id", r.GameID), slog.String("error", err.Error()))
		}
		games = append(games, model.GameSummary{
			GameID:       r.GameID,
			Title:        r.External,
			Cheapest:     cheapest,
			Thumbnail:    r.Thumb,
			CheapestDeal: r.CheapestDealID,
		})
	}

	c.cacheSet(ctx, cacheKey, games)
	return games, nil
}

// CurrentDeals returns the deals with the highest savings.
func (c *Client) CurrentDeals(ctx context.Context, limit int) ([]model.Deal, error) {
	if limit <= 0 || limit > 60 {
		limit = 20
	}

	cacheKey := "deals:" + strconv.Itoa(limit)
	var cached []model.Deal
	if c.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("sortBy", "Savings")

	var results []dealResult
	if err := c.getJSON(ctx, "deals", "", "/deals", params, &results); err != nil {
		return nil, err
	}

	deals := make([]model.Deal, 0, len(results))
	for _, r := range results {
		ps, err := toSnapshot(r.GameID, r.StoreID, r.SalePrice, r.NormalPrice, r.Savings, c.now())
		if err != nil {
			continue
		}
		deals = append(deals, model.Deal{
			DealID:          r.DealID,
			GameID:          r.GameID,
			Title:           r.Title,
			StoreID:         r.StoreID,
			StoreName:       c.StoreName(ctx, r.StoreID),
			Price:           ps.Price,
			RetailPrice:     ps.RetailPrice,
			DiscountPercent: ps.DiscountPercent,
			Thumbnail:       r.Thumb,
		})
	}

	c.cacheSet(ctx, cacheKey, deals)
	return deals, nil
}

// Stores returns the store list, refetched at most once per StoresTTL.
func (c *Client) Stores(ctx context.Context) ([]model.Store, error) {
	c.storesMu.Lock()
	defer c.storesMu.Unlock()

	if c.stores != nil && c.now().Sub(c.storesFetchedAt) < c.storesTTL {
		return storeList(c.stores), nil
	}

	var results []storeResult
	if err := c.getJSON(ctx, "stores", "", "/stores", nil, &results); err != nil {
		if c.stores != nil {
			// Stale names beat no names
			return storeList(c.stores), nil
		}
		return nil, err
	}

	stores := make(map[string]model.Store, len(results))
	for _, r := range results {
		stores[r.StoreID] = model.Store{
			ID:       r.StoreID,
			Name:     r.StoreName,
			Logo:     r.Images.Logo,
			IsActive: r.IsActive == 1,
		}
	}
	c.stores = stores
	c.storesFetchedAt = c.now()
	return storeList(stores), nil
}

// StoreName resolves a store ID, falling back to a placeholder when the
// store list is unavailable or does not contain it.
func (c *Client) StoreName(ctx context.Context, storeID string) string {
	stores, err := c.Stores(ctx)
	if err != nil {
		c.logger.Warn("store list unavailable", slog.String("error", err.Error()))
	}
	for _, s := range stores {
		if s.ID == storeID {
			return s.Name
		}
	}
	return "Store #" + storeID
}

func (c *Client) lookupGame(ctx context.Context, gameID string) (*gameLookupResponse, error) {
	params := url.Values{}
	params.Set("id", gameID)

	body, err := c.getRaw(ctx, "lookup", gameID, "/games", params)
	if err != nil {
		return nil, err
	}
	if isEmptyJSON(bytes.TrimSpace(body)) {
		return nil, apperror.NewFetchError(gameID, "lookup", ErrGameNotFound, false)
	}

	var lookup gameLookupResponse
	if err := json.Unmarshal(body, &lookup); err != nil {
		return nil, apperror.NewFetchError(gameID, "lookup", fmt.Errorf("decode response: %w", err), false)
	}
	if lookup.Info.Title == "" {
		return nil, apperror.NewFetchError(gameID, "lookup", ErrGameNotFound, false)
	}
	return &lookup, nil
}

func (c *Client) getJSON(ctx context.Context, op, gameID, path string, params url.Values, out any) error {
	body, err := c.getRaw(ctx, op, gameID, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperror.NewFetchError(gameID, op, fmt.Errorf("decode response: %w", err), false)
	}
	return nil
}

// getRaw performs a rate-limited GET with retries and returns the body.
func (c *Client) getRaw(ctx context.Context, op, gameID, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body []byte
	err := WithRetry(ctx, c.retry, c.logger.With("op", op, "game_id", gameID), func() error {
		b, err := c.do(ctx, op, gameID, u)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		var fe *apperror.FetchError
		if !errors.As(err, &fe) {
			err = apperror.NewFetchError(gameID, op, err, false)
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, op, gameID, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.NewFetchError(gameID, op, fmt.Errorf("rate limit wait: %w", err), false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apperror.NewFetchError(gameID, op, fmt.Errorf("create request: %w", err), false)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.NewFetchError(gameID, op, err, isTransient(ctx, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.NewFetchError(gameID, op, fmt.Errorf("read response body: %w", err), true)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, apperror.NewFetchError(gameID, op,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200)), retryable)
	}
	return body, nil
}

func (c *Client) cacheGet(ctx context.Context, key string, dest any) bool {
	if c.cache == nil {
		return false
	}
	ok, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.logger.Warn("cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return ok
}

func (c *Client) cacheSet(ctx context.Context, key string, value any) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, value, c.cacheTTL); err != nil {
		c.logger.Warn("cache set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func toSnapshot(gameID, storeID, price, retail, savings string, observedAt time.Time) (model.PriceSnapshot, error) {
	p, err := currency.ParsePrice(price)
	if err != nil {
		return model.PriceSnapshot{}, err
	}
	rp, err := currency.ParsePrice(retail)
	if err != nil {
		return model.PriceSnapshot{}, err
	}
	pct, err := currency.ParsePercent(savings)
	if err != nil {
		return model.PriceSnapshot{}, err
	}
	ps := model.PriceSnapshot{
		GameID:          gameID,
		StoreID:         storeID,
		Price:           p,
		RetailPrice:     rp,
		DiscountPercent: pct,
		ObservedAt:      observedAt,
	}
	return ps, ps.Validate()
}

// isTransient reports whether a transport error is worth retrying.
// A cancelled or expired caller context never is.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return !errors.Is(err, context.Canceled)
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
