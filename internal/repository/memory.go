package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
)

// memoryHistoryCap bounds the per-pair history kept by MemoryPriceRepository.
const memoryHistoryCap = 100

type pairKey struct {
	gameID  string
	storeID string
}

type pairState struct {
	current model.PriceSnapshot
	history []model.PriceSnapshot // oldest first
}

// MemoryPriceRepository keeps snapshots in process memory.
type MemoryPriceRepository struct {
	mu sync.RWMutex
	m  map[pairKey]*pairState
}

func NewMemoryPriceRepository() *MemoryPriceRepository {
	return &MemoryPriceRepository{m: make(map[pairKey]*pairState)}
}

func (r *MemoryPriceRepository) GetLast(_ context.Context, gameID, storeID string) (*model.PriceSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.m[pairKey{gameID, storeID}]
	if !ok {
		return nil, nil
	}
	snap := st.current
	return &snap, nil
}

func (r *MemoryPriceRepository) Put(_ context.Context, snapshot model.PriceSnapshot) (*model.PriceSnapshot, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, apperror.NewStoreError("put", snapshot.Key(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{snapshot.GameID, snapshot.StoreID}
	st, ok := r.m[key]
	if !ok {
		r.m[key] = &pairState{current: snapshot, history: []model.PriceSnapshot{snapshot}}
		return nil, nil
	}
	prev := st.current
	st.current = snapshot
	st.history = append(st.history, snapshot)
	if len(st.history) > memoryHistoryCap {
		st.history = st.history[len(st.history)-memoryHistoryCap:]
	}
	return &prev, nil
}

func (r *MemoryPriceRepository) History(_ context.Context, gameID, storeID string, limit int) ([]model.PriceSnapshot, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.m[pairKey{gameID, storeID}]
	if !ok {
		return nil, nil
	}
	out := make([]model.PriceSnapshot, 0, min(limit, len(st.history)))
	for i := len(st.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, st.history[i])
	}
	return out, nil
}

func (r *MemoryPriceRepository) LatestForGame(_ context.Context, gameID string) ([]model.PriceSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.PriceSnapshot
	for k, st := range r.m {
		if k.gameID == gameID {
			out = append(out, st.current)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return out, nil
}

// MemorySubscriptionRepository keeps subscriptions in process memory.
type MemorySubscriptionRepository struct {
	mu sync.RWMutex
	m  map[string]map[int64]model.Subscription // game -> user -> subscription
}

func NewMemorySubscriptionRepository() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{m: make(map[string]map[int64]model.Subscription)}
}

func (r *MemorySubscriptionRepository) Add(_ context.Context, sub *model.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, ok := r.m[sub.GameID]
	if !ok {
		users = make(map[int64]model.Subscription)
		r.m[sub.GameID] = users
	}
	if _, exists := users[sub.UserID]; exists {
		return ErrSubscriptionExists
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	users[sub.UserID] = *sub
	return nil
}

func (r *MemorySubscriptionRepository) Remove(_ context.Context, userID int64, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := r.m[gameID]
	if _, ok := users[userID]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(r.m, gameID)
	}
	return nil
}

func (r *MemorySubscriptionRepository) UpdateFilters(_ context.Context, userID int64, gameID string, filters model.SubscriptionFilters) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.m[gameID][userID]
	if !ok {
		return ErrSubscriptionNotFound
	}
	sub.SubscriptionFilters = filters
	sub.UpdatedAt = time.Now().UTC()
	r.m[gameID][userID] = sub
	return nil
}

func (r *MemorySubscriptionRepository) ListForUser(_ context.Context, userID int64) ([]model.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Subscription
	for _, users := range r.m {
		if sub, ok := users[userID]; ok {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *MemorySubscriptionRepository) ListSubscribers(_ context.Context, gameID string) ([]model.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Subscription, 0, len(r.m[gameID]))
	for _, sub := range r.m[gameID] {
		out = append(out, sub)
	}
	return out, nil
}

func (r *MemorySubscriptionRepository) ListSubscribedGames(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.m))
	for gameID := range r.m {
		out = append(out, gameID)
	}
	return out, nil
}

// MemoryCatalogRepository keeps games and stores in process memory.
type MemoryCatalogRepository struct {
	mu     sync.RWMutex
	games  map[string]model.Game
	stores map[string]model.Store
}

func NewMemoryCatalogRepository() *MemoryCatalogRepository {
	return &MemoryCatalogRepository{
		games:  make(map[string]model.Game),
		stores: make(map[string]model.Store),
	}
}

func (r *MemoryCatalogRepository) UpsertGame(_ context.Context, game *model.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.games[game.ID]; ok {
		game.CreatedAt = existing.CreatedAt
		if game.Thumbnail == "" {
			game.Thumbnail = existing.Thumbnail
		}
	} else {
		game.CreatedAt = now
	}
	game.UpdatedAt = now
	r.games[game.ID] = *game
	return nil
}

func (r *MemoryCatalogRepository) GetGame(_ context.Context, id string) (*model.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return &game, nil
}

func (r *MemoryCatalogRepository) UpsertStores(_ context.Context, stores []model.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, s := range stores {
		s.UpdatedAt = now
		r.stores[s.ID] = s
	}
	return nil
}

func (r *MemoryCatalogRepository) ListStores(_ context.Context) ([]model.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Store, 0, len(r.stores))
	for _, s := range r.stores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryCatalogRepository) GetStore(_ context.Context, id string) (*model.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[id]
	if !ok {
		return nil, ErrStoreNotFound
	}
	return &s, nil
}

// MemoryUserRepository keeps user profiles in process memory.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[int64]model.User)}
}

func (r *MemoryUserRepository) Upsert(_ context.Context, userID int64, profile model.UserProfile) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	user, ok := r.users[userID]
	if !ok {
		user = model.User{ID: userID, CreatedAt: now}
	}
	if profile.Username != nil {
		user.Username = *profile.Username
	}
	if profile.FirstName != nil {
		user.FirstName = *profile.FirstName
	}
	if profile.LastName != nil {
		user.LastName = *profile.LastName
	}
	if profile.Email != nil {
		user.Email = *profile.Email
	}
	user.UpdatedAt = now
	r.users[userID] = user
	return &user, nil
}

func (r *MemoryUserRepository) Get(_ context.Context, userID int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

var (
	_ PriceRepository        = (*MemoryPriceRepository)(nil)
	_ SubscriptionRepository = (*MemorySubscriptionRepository)(nil)
	_ CatalogRepository      = (*MemoryCatalogRepository)(nil)
	_ UserRepository         = (*MemoryUserRepository)(nil)
)
