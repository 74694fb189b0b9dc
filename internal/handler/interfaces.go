package handler

import (
	"context"
	"time"

	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/internal/service"
	"github.com/dealwatch/backend/internal/tracker"
)

// CatalogServiceInterface for handler testing
type CatalogServiceInterface interface {
	SearchGames(ctx context.Context, query string, limit int) ([]model.GameSummary, error)
	GetGame(ctx context.Context, gameID string) (*model.GameDetails, error)
	CurrentDeals(ctx context.Context, limit int) ([]model.Deal, error)
	ListStores(ctx context.Context) ([]model.Store, error)
}

// SubscriptionServiceInterface for handler testing
type SubscriptionServiceInterface interface {
	Subscribe(ctx context.Context, userID int64, input service.SubscribeInput) (*model.Subscription, error)
	Unsubscribe(ctx context.Context, userID int64, gameID string) error
	UpdateFilters(ctx context.Context, userID int64, gameID string, filters model.SubscriptionFilters) error
	ListForUser(ctx context.Context, userID int64) ([]model.UserSubscription, error)
	PriceHistory(ctx context.Context, gameID, storeID string, limit int) ([]model.PriceSnapshot, error)
}

// UserServiceInterface for handler testing
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, profile model.UserProfile) (*model.User, error)
}

// TrackerInterface for handler testing
type TrackerInterface interface {
	Trigger(ctx context.Context, timeout time.Duration) error
	Health(nextRun time.Time) tracker.HealthStatus
}

// Compile-time interface checks
var (
	_ CatalogServiceInterface      = (*service.CatalogService)(nil)
	_ SubscriptionServiceInterface = (*service.SubscriptionService)(nil)
	_ UserServiceInterface         = (*service.UserService)(nil)
	_ TrackerInterface             = (*tracker.Tracker)(nil)
)
