package repository

import (
	"context"
	"fmt"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
)

var (
	ErrSubscriptionNotFound = fmt.Errorf("subscription: %w", apperror.ErrNotFound)
	ErrSubscriptionExists   = fmt.Errorf("subscription: %w", apperror.ErrAlreadyExists)
	ErrGameNotFound         = fmt.Errorf("game: %w", apperror.ErrNotFound)
	ErrStoreNotFound        = fmt.Errorf("store: %w", apperror.ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user: %w", apperror.ErrNotFound)
)

// DefaultHistoryLimit caps History when the caller passes a non-positive limit.
const DefaultHistoryLimit = 50

// PriceRepository holds the last observed snapshot per (game, store) pair.
// Every error it returns for a malfunction is an *apperror.StoreError;
// an absent pair is never reported as an error.
type PriceRepository interface {
	GetLast(ctx context.Context, gameID, storeID string) (*model.PriceSnapshot, error)
	// Put replaces the current snapshot for the pair and returns the one it replaced,
	// or nil on the first observation. Concurrent Puts for one pair are serialized.
	Put(ctx context.Context, snapshot model.PriceSnapshot) (*model.PriceSnapshot, error)
	History(ctx context.Context, gameID, storeID string, limit int) ([]model.PriceSnapshot, error)
	LatestForGame(ctx context.Context, gameID string) ([]model.PriceSnapshot, error)
}

// SubscriptionRepository maps games to subscribed users and their filters.
// Results carry no ordering guarantee.
type SubscriptionRepository interface {
	Add(ctx context.Context, sub *model.Subscription) error
	Remove(ctx context.Context, userID int64, gameID string) error
	UpdateFilters(ctx context.Context, userID int64, gameID string, filters model.SubscriptionFilters) error
	ListForUser(ctx context.Context, userID int64) ([]model.Subscription, error)
	ListSubscribers(ctx context.Context, gameID string) ([]model.Subscription, error)
	ListSubscribedGames(ctx context.Context) ([]string, error)
}

// CatalogRepository stores game and store reference data.
type CatalogRepository interface {
	UpsertGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id string) (*model.Game, error)
	UpsertStores(ctx context.Context, stores []model.Store) error
	ListStores(ctx context.Context) ([]model.Store, error)
	GetStore(ctx context.Context, id string) (*model.Store, error)
}

// UserRepository stores user profiles.
type UserRepository interface {
	// Upsert creates the user or applies the non-nil profile fields.
	Upsert(ctx context.Context, userID int64, profile model.UserProfile) (*model.User, error)
	Get(ctx context.Context, userID int64) (*model.User, error)
}
