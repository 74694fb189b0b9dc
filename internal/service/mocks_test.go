package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dealwatch/backend/internal/model"
)

// MockGameFeed is a mock implementation of GameFeed
type MockGameFeed struct {
	mock.Mock
}

func (m *MockGameFeed) GameDetails(ctx context.Context, gameID string) (*model.GameDetails, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GameDetails), args.Error(1)
}

func (m *MockGameFeed) SearchGames(ctx context.Context, query string, limit int) ([]model.GameSummary, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GameSummary), args.Error(1)
}

func (m *MockGameFeed) CurrentDeals(ctx context.Context, limit int) ([]model.Deal, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Deal), args.Error(1)
}

func (m *MockGameFeed) Stores(ctx context.Context) ([]model.Store, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Store), args.Error(1)
}

// MockSubscriptionRepository is a mock implementation of SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Add(ctx context.Context, sub *model.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *MockSubscriptionRepository) Remove(ctx context.Context, userID int64, gameID string) error {
	return m.Called(ctx, userID, gameID).Error(0)
}

func (m *MockSubscriptionRepository) UpdateFilters(ctx context.Context, userID int64, gameID string, filters model.SubscriptionFilters) error {
	return m.Called(ctx, userID, gameID, filters).Error(0)
}

func (m *MockSubscriptionRepository) ListForUser(ctx context.Context, userID int64) ([]model.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListSubscribers(ctx context.Context, gameID string) ([]model.Subscription, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListSubscribedGames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockPriceRepository is a mock implementation of PriceRepository
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) GetLast(ctx context.Context, gameID, storeID string) (*model.PriceSnapshot, error) {
	args := m.Called(ctx, gameID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PriceSnapshot), args.Error(1)
}

func (m *MockPriceRepository) Put(ctx context.Context, snapshot model.PriceSnapshot) (*model.PriceSnapshot, error) {
	args := m.Called(ctx, snapshot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PriceSnapshot), args.Error(1)
}

func (m *MockPriceRepository) History(ctx context.Context, gameID, storeID string, limit int) ([]model.PriceSnapshot, error) {
	args := m.Called(ctx, gameID, storeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PriceSnapshot), args.Error(1)
}

func (m *MockPriceRepository) LatestForGame(ctx context.Context, gameID string) ([]model.PriceSnapshot, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PriceSnapshot), args.Error(1)
}

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) UpsertGame(ctx context.Context, game *model.Game) error {
	return m.Called(ctx, game).Error(0)
}

func (m *MockCatalogRepository) GetGame(ctx context.Context, id string) (*model.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Game), args.Error(1)
}

func (m *MockCatalogRepository) UpsertStores(ctx context.Context, stores []model.Store) error {
	return m.Called(ctx, stores).Error(0)
}

func (m *MockCatalogRepository) ListStores(ctx context.Context) ([]model.Store, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Store), args.Error(1)
}

func (m *MockCatalogRepository) GetStore(ctx context.Context, id string) (*model.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Store), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(ctx context.Context, userID int64, profile model.UserProfile) (*model.User, error) {
	args := m.Called(ctx, userID, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Get(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
