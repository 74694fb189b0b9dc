// Package app wires configuration, storage, the feed and delivery into a runnable service.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/dealwatch/backend/internal/config"
	"github.com/dealwatch/backend/internal/feed"
	"github.com/dealwatch/backend/internal/handler"
	"github.com/dealwatch/backend/internal/notify"
	"github.com/dealwatch/backend/internal/repository"
	"github.com/dealwatch/backend/internal/scheduler"
	"github.com/dealwatch/backend/internal/service"
	"github.com/dealwatch/backend/internal/tracker"
	"github.com/dealwatch/backend/pkg/currency"
)

// App holds the constructed components. Close releases everything it opened.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *sqlx.DB
	Feed          *feed.Client
	Prices        repository.PriceRepository
	Subscriptions repository.SubscriptionRepository
	Catalog       repository.CatalogRepository
	Users         repository.UserRepository
	Channel       tracker.Deliverer
	Tracker       *tracker.Tracker
	Scheduler     *scheduler.Scheduler

	closers []io.Closer
}

// OpenDB connects to Postgres
func OpenDB(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// New builds every component from cfg. On error, whatever was opened is closed.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err := a.openStores(ctx); err != nil {
		return nil, err
	}

	var feedOpts []feed.Option
	if cfg.RedisURL != "" {
		rdb, err := feed.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb)
		feedOpts = append(feedOpts, feed.WithCache(feed.NewRedisCache(rdb)))
		log.Info("Feed response cache enabled", slog.Duration("ttl", cfg.Feed.CacheTTL))
	}

	retry := feed.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Feed.MaxAttempts
	a.Feed = feed.NewClient(feed.Config{
		BaseURL:           cfg.Feed.BaseURL,
		Timeout:           cfg.Feed.Timeout,
		RequestsPerMinute: cfg.Feed.RequestsPerMinute,
		Retry:             retry,
		CacheTTL:          cfg.Feed.CacheTTL,
	}, log, feedOpts...)

	a.Channel = a.newChannel()

	a.Tracker = tracker.New(tracker.Config{
		Policy: tracker.Policy{
			Threshold:           cfg.Tracker.DiscountThreshold,
			NotifyFirstSighting: cfg.Tracker.NotifyFirstSighting,
		},
		FetchConcurrency: cfg.Tracker.FetchConcurrency,
	}, a.Feed, a.Prices, a.Subscriptions, a.Catalog, a.Channel, log)

	a.Scheduler = scheduler.New(scheduler.Config{
		Schedule:   cfg.Tracker.Schedule,
		Timeout:    cfg.Tracker.Timeout,
		Enabled:    cfg.Tracker.Enabled,
		RunOnStart: cfg.Tracker.RunOnStart,
	}, a.Tracker, log)

	return a, nil
}

func (a *App) openStores(ctx context.Context) error {
	if a.Config.StoreBackend == config.BackendMemory {
		a.Prices = repository.NewMemoryPriceRepository()
		a.Subscriptions = repository.NewMemorySubscriptionRepository()
		a.Catalog = repository.NewMemoryCatalogRepository()
		a.Users = repository.NewMemoryUserRepository()
		a.Logger.Warn("Using in-memory stores, data is lost on restart")
		return nil
	}

	db, err := OpenDB(a.Config.DatabaseURL)
	if err != nil {
		return err
	}
	a.DB = db
	a.closers = append(a.closers, db)

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	a.Prices = repository.NewPriceRepository(db)
	a.Subscriptions = repository.NewSubscriptionRepository(db)
	a.Catalog = repository.NewCatalogRepository(db)
	a.Users = repository.NewUserRepository(db)
	return nil
}

func (a *App) newChannel() tracker.Deliverer {
	cfg := a.Config
	quoter := a.newQuoter()

	switch cfg.Delivery.Channel {
	case config.ChannelTelegram:
		return notify.NewTelegramChannel(notify.TelegramConfig{
			Token:             cfg.Delivery.TelegramToken,
			APIURL:            cfg.Delivery.TelegramAPIURL,
			MessagesPerSecond: cfg.Delivery.TelegramPerSec,
			Quoter:            quoter,
		}, a.Logger)
	case config.ChannelKafka:
		ch := notify.NewKafkaChannel(cfg.Delivery.KafkaBrokers, cfg.Delivery.KafkaTopic, quoter, a.Logger)
		a.closers = append(a.closers, ch)
		return ch
	case config.ChannelEmail:
		sender := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.Delivery.SMTPHost,
			Port:     cfg.Delivery.SMTPPort,
			Username: cfg.Delivery.SMTPUsername,
			Password: cfg.Delivery.SMTPPassword,
			From:     cfg.Delivery.EmailFrom,
		})
		return notify.NewEmailChannel(sender, a.Users, quoter, a.Logger)
	default:
		return notify.NewLogChannel(quoter, a.Logger)
	}
}

// newQuoter converts USD amounts into the configured display currency.
// Only non-USD currencies talk to the exchange-rate API.
func (a *App) newQuoter() *currency.Quoter {
	cfg := a.Config
	code := currency.Currency(cfg.Currency.Code)
	if code == "" || code == currency.USD {
		return currency.NewQuoter(currency.USD, nil)
	}

	retry := feed.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Feed.MaxAttempts
	rates := feed.NewRatesClient(feed.RatesConfig{
		BaseURL: cfg.Currency.RatesURL,
		Timeout: cfg.Feed.Timeout,
		Retry:   retry,
		TTL:     cfg.Currency.RatesTTL,
	}, a.Logger)
	return currency.NewQuoter(code, rates)
}

// Router builds the HTTP API
func (a *App) Router() http.Handler {
	catalogService := service.NewCatalogService(a.Feed, a.Catalog, a.Logger)
	subscriptionService := service.NewSubscriptionService(a.Subscriptions, a.Prices, a.Catalog, a.Users, a.Feed, a.Logger)
	userService := service.NewUserService(a.Users, a.Logger)

	return handler.NewRouter(handler.RouterConfig{
		Games:          handler.NewGameHandler(catalogService),
		Subscriptions:  handler.NewSubscriptionHandler(subscriptionService),
		Users:          handler.NewUserHandler(userService),
		Tracker:        handler.NewTrackerHandler(a.Tracker, a.Scheduler.GetNextRunTime, a.Config.Tracker.Timeout),
		AllowedOrigins: a.Config.AllowedOrigins,
	})
}

// Close releases resources in reverse order of opening
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
