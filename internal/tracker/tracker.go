// Package tracker runs the polling cycle: fetch subscribed games, detect price drops and dispatch alerts.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dealwatch/backend/internal/feed"
	"github.com/dealwatch/backend/internal/logger"
	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/internal/repository"
)

var (
	// ErrCycleInProgress is returned when a cycle is requested while another is running.
	ErrCycleInProgress = errors.New("polling cycle already in progress")
	// ErrShuttingDown is returned for cycles requested after Shutdown.
	ErrShuttingDown = errors.New("tracker is shutting down")
)

// DefaultFetchConcurrency bounds parallel feed lookups
const DefaultFetchConcurrency = 4

// Feed is the part of the price feed the tracker needs
type Feed interface {
	FetchSnapshot(ctx context.Context, gameID string) (*feed.GameSnapshot, error)
	StoreName(ctx context.Context, storeID string) string
}

// Config holds tracker configuration
type Config struct {
	Policy           Policy
	FetchConcurrency int
}

// DefaultConfig returns the default tracker configuration
func DefaultConfig() Config {
	return Config{
		Policy:           DefaultPolicy(),
		FetchConcurrency: DefaultFetchConcurrency,
	}
}

// CycleReport summarizes one polling cycle
type CycleReport struct {
	CycleID          string        `json:"cycleId"`
	StartedAt        time.Time     `json:"startedAt"`
	Duration         time.Duration `json:"duration"`
	GamesPolled      int           `json:"gamesPolled"`
	FetchFailures    int           `json:"fetchFailures"`
	StoreFailures    int           `json:"storeFailures"`
	PairsEvaluated   int           `json:"pairsEvaluated"`
	Events           int           `json:"events"`
	Sent             int           `json:"sent"`
	DeliveryFailures int           `json:"deliveryFailures"`
}

// Tracker coordinates one polling cycle at a time
type Tracker struct {
	config        Config
	feed          Feed
	prices        repository.PriceRepository
	subscriptions repository.SubscriptionRepository
	catalog       repository.CatalogRepository
	dispatcher    *Dispatcher
	metrics       *MetricsCollector
	logger        *slog.Logger
	running       atomic.Bool

	mu       sync.Mutex
	stopping bool
	inflight sync.WaitGroup
}

// New creates a new Tracker. catalog may be nil.
func New(
	cfg Config,
	f Feed,
	prices repository.PriceRepository,
	subscriptions repository.SubscriptionRepository,
	catalog repository.CatalogRepository,
	channel Deliverer,
	log *slog.Logger,
) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = DefaultFetchConcurrency
	}

	return &Tracker{
		config:        cfg,
		feed:          f,
		prices:        prices,
		subscriptions: subscriptions,
		catalog:       catalog,
		dispatcher:    NewDispatcher(channel, log),
		metrics:       NewMetricsCollector(),
		logger:        log,
	}
}

// IsRunning reports whether a cycle is in progress
func (t *Tracker) IsRunning() bool {
	return t.running.Load()
}

// Metrics returns the metrics collector
func (t *Tracker) Metrics() *MetricsCollector {
	return t.metrics
}

// Health returns the tracker health status
func (t *Tracker) Health(nextRun time.Time) HealthStatus {
	status := t.metrics.GetHealthStatus(nextRun)
	status.Running = t.IsRunning()
	return status
}

// RunOnce executes one complete polling cycle and blocks until it finishes.
// A call while another cycle is running does nothing and returns ErrCycleInProgress.
func (t *Tracker) RunOnce(ctx context.Context) (CycleReport, error) {
	if err := t.begin(); err != nil {
		return CycleReport{}, err
	}
	defer t.end()

	return t.runCycle(ctx)
}

// Trigger starts a cycle in the background. It returns ErrCycleInProgress
// immediately when a cycle is already running.
func (t *Tracker) Trigger(ctx context.Context, timeout time.Duration) error {
	if err := t.begin(); err != nil {
		return err
	}

	go func() {
		defer t.end()

		runCtx := context.WithoutCancel(ctx)
		if timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, timeout)
			defer cancel()
		}
		if _, err := t.runCycle(runCtx); err != nil {
			t.logger.Error("Triggered polling cycle failed", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Shutdown refuses new cycles and waits for the running one to finish.
// It returns ctx.Err() if ctx ends first.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.stopping = true
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopping {
		return ErrShuttingDown
	}
	if !t.running.CompareAndSwap(false, true) {
		return ErrCycleInProgress
	}
	t.inflight.Add(1)
	return nil
}

func (t *Tracker) end() {
	t.running.Store(false)
	t.inflight.Done()
}

type fetchResult struct {
	gameID   string
	snapshot *feed.GameSnapshot
	err      error
}

func (t *Tracker) runCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{
		CycleID:   uuid.New().String(),
		StartedAt: time.Now(),
	}
	ctx = logger.WithCycleID(ctx, report.CycleID)
	log := logger.Enrich(ctx, t.logger)

	defer func() {
		report.Duration = time.Since(report.StartedAt)
		t.metrics.FinishRun(report)
	}()

	gameIDs, err := t.subscriptions.ListSubscribedGames(ctx)
	if err != nil {
		log.Error("Failed to list subscribed games", slog.String("error", err.Error()))
		return report, err
	}
	sort.Strings(gameIDs)

	log.Info("Starting polling cycle", slog.Int("games", len(gameIDs)))

	results := t.fetchAll(ctx, gameIDs)
	for _, res := range results {
		report.GamesPolled++
		if res.err != nil {
			report.FetchFailures++
			log.Warn("Skipping game after feed failure",
				slog.String("game_id", res.gameID),
				slog.String("error", res.err.Error()),
			)
			continue
		}
		t.processGame(ctx, log, res.snapshot, &report)
	}

	log.Info("Polling cycle completed",
		slog.Int("games_polled", report.GamesPolled),
		slog.Int("fetch_failures", report.FetchFailures),
		slog.Int("store_failures", report.StoreFailures),
		slog.Int("pairs_evaluated", report.PairsEvaluated),
		slog.Int("events", report.Events),
		slog.Int("sent", report.Sent),
		slog.Int("delivery_failures", report.DeliveryFailures),
		slog.Duration("duration", time.Since(report.StartedAt)),
	)

	return report, nil
}

// fetchAll looks up every game in parallel. Results keep the order of gameIDs.
func (t *Tracker) fetchAll(ctx context.Context, gameIDs []string) []fetchResult {
	results := make([]fetchResult, len(gameIDs))

	var g errgroup.Group
	g.SetLimit(t.config.FetchConcurrency)
	for i, gameID := range gameIDs {
		i, gameID := i, gameID
		g.Go(func() error {
			t.metrics.StartFetch(gameID)
			snap, err := t.feed.FetchSnapshot(ctx, gameID)
			if err != nil {
				t.metrics.RecordFailure(gameID, err)
			} else {
				t.metrics.RecordSuccess(gameID, len(snap.Prices))
			}
			results[i] = fetchResult{gameID: gameID, snapshot: snap, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (t *Tracker) processGame(ctx context.Context, log *slog.Logger, snap *feed.GameSnapshot, report *CycleReport) {
	log = log.With(slog.String("game_id", snap.GameID))

	if t.catalog != nil && snap.Title != "" {
		if err := t.catalog.UpsertGame(ctx, &model.Game{ID: snap.GameID, Title: snap.Title, Thumbnail: snap.Thumbnail}); err != nil {
			log.Warn("Failed to refresh game title", slog.String("error", err.Error()))
		}
	}

	subs, err := t.subscriptions.ListSubscribers(ctx, snap.GameID)
	if err != nil {
		report.StoreFailures++
		log.Error("Failed to load subscribers", slog.String("error", err.Error()))
		return
	}

	storeIDs := make([]string, 0, len(snap.Prices))
	for id := range snap.Prices {
		storeIDs = append(storeIDs, id)
	}
	sort.Strings(storeIDs)

	for _, storeID := range storeIDs {
		current := snap.Prices[storeID]
		report.PairsEvaluated++

		if !t.config.Policy.Qualifies(current) {
			continue
		}

		previous, err := t.prices.Put(ctx, current)
		if err != nil {
			report.StoreFailures++
			log.Error("Failed to store price snapshot",
				slog.String("store_id", storeID),
				slog.String("error", err.Error()),
			)
			continue
		}

		users := Evaluate(t.config.Policy, previous, current, subs)
		if len(users) == 0 {
			continue
		}

		event := model.DropEvent{
			GameID:    snap.GameID,
			GameTitle: snap.Title,
			StoreID:   storeID,
			StoreName: t.feed.StoreName(ctx, storeID),
			Previous:  previous,
			Current:   current,
			Users:     users,
		}
		report.Events++

		log.Info("Price drop detected",
			slog.String("store_id", storeID),
			slog.String("previous", event.PreviousPriceLabel()),
			slog.String("current", current.Price.StringFixed(2)),
			slog.Int("discount", current.DiscountPercent),
			slog.Int("users", len(users)),
		)

		res := t.dispatcher.Dispatch(ctx, event)
		report.Sent += res.Sent
		report.DeliveryFailures += res.Failed
	}
}
