package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/internal/repository"
)

// SubscriptionService manages user subscriptions to games
type SubscriptionService struct {
	subscriptions repository.SubscriptionRepository
	prices        repository.PriceRepository
	catalog       repository.CatalogRepository
	users         repository.UserRepository
	feed          GameFeed
	logger        *slog.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	subscriptions repository.SubscriptionRepository,
	prices repository.PriceRepository,
	catalog repository.CatalogRepository,
	users repository.UserRepository,
	feed GameFeed,
	logger *slog.Logger,
) *SubscriptionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionService{
		subscriptions: subscriptions,
		prices:        prices,
		catalog:       catalog,
		users:         users,
		feed:          feed,
		logger:        logger,
	}
}

// SubscribeInput is the data needed to subscribe a user to a game
type SubscribeInput struct {
	GameID string `json:"gameId"`
	model.SubscriptionFilters
	// Profile refreshes the user's stored details; nil leaves them as they are
	Profile *model.UserProfile `json:"profile,omitempty"`
}

// Subscribe verifies the game exists in the feed, records the game and the
// user, then subscribes the user.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID int64, input SubscribeInput) (*model.Subscription, error) {
	if userID <= 0 {
		return nil, apperror.ValidationError("userId", model.ErrInvalidUserID.Error())
	}
	input.GameID = strings.TrimSpace(input.GameID)
	if input.GameID == "" {
		return nil, apperror.ValidationError("gameId", model.ErrMissingGameID.Error())
	}
	if err := input.SubscriptionFilters.Validate(); err != nil {
		return nil, apperror.ValidationError("filters", err.Error())
	}
	var profile model.UserProfile
	if input.Profile != nil {
		profile = *input.Profile
	}
	if err := profile.Validate(); err != nil {
		return nil, apperror.ValidationError("profile", err.Error())
	}

	details, err := s.feed.GameDetails(ctx, input.GameID)
	if err != nil {
		return nil, feedError(err)
	}
	if err := s.catalog.UpsertGame(ctx, &model.Game{ID: details.GameID, Title: details.Title, Thumbnail: details.Thumbnail}); err != nil {
		return nil, apperror.Internal(err)
	}
	if _, err := s.users.Upsert(ctx, userID, profile); err != nil {
		return nil, apperror.Internal(err)
	}

	sub := &model.Subscription{
		UserID:              userID,
		GameID:              input.GameID,
		SubscriptionFilters: input.SubscriptionFilters,
	}
	if err := s.subscriptions.Add(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrSubscriptionExists) {
			return nil, apperror.Conflict("already subscribed to this game")
		}
		return nil, apperror.Internal(err)
	}

	s.logger.Info("User subscribed",
		slog.Int64("user_id", userID),
		slog.String("game_id", input.GameID),
	)
	return sub, nil
}

// Unsubscribe removes a subscription
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID int64, gameID string) error {
	if err := s.subscriptions.Remove(ctx, userID, gameID); err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return apperror.NotFound("subscription")
		}
		return apperror.Internal(err)
	}
	return nil
}

// UpdateFilters replaces the filters of an existing subscription
func (s *SubscriptionService) UpdateFilters(ctx context.Context, userID int64, gameID string, filters model.SubscriptionFilters) error {
	if err := filters.Validate(); err != nil {
		return apperror.ValidationError("filters", err.Error())
	}
	if err := s.subscriptions.UpdateFilters(ctx, userID, gameID, filters); err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return apperror.NotFound("subscription")
		}
		return apperror.Internal(err)
	}
	return nil
}

// ListForUser returns the user's subscriptions with game titles and the lowest tracked price
func (s *SubscriptionService) ListForUser(ctx context.Context, userID int64) ([]model.UserSubscription, error) {
	subs, err := s.subscriptions.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	result := make([]model.UserSubscription, 0, len(subs))
	for _, sub := range subs {
		us := model.UserSubscription{Subscription: sub, GameTitle: sub.GameID}

		game, err := s.catalog.GetGame(ctx, sub.GameID)
		switch {
		case err == nil:
			us.GameTitle = game.Title
			us.Thumbnail = game.Thumbnail
		case !errors.Is(err, repository.ErrGameNotFound):
			return nil, apperror.Internal(err)
		}

		latest, err := s.prices.LatestForGame(ctx, sub.GameID)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		us.LowestPrice = lowest(latest)

		result = append(result, us)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].GameTitle != result[j].GameTitle {
			return result[i].GameTitle < result[j].GameTitle
		}
		return result[i].GameID < result[j].GameID
	})
	return result, nil
}

// PriceHistory returns recent snapshots for a (game, store) pair, newest first
func (s *SubscriptionService) PriceHistory(ctx context.Context, gameID, storeID string, limit int) ([]model.PriceSnapshot, error) {
	if limit <= 0 || limit > repository.DefaultHistoryLimit {
		limit = repository.DefaultHistoryLimit
	}
	history, err := s.prices.History(ctx, gameID, storeID, limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return history, nil
}

func lowest(snapshots []model.PriceSnapshot) *model.PriceSnapshot {
	var best *model.PriceSnapshot
	for i := range snapshots {
		if best == nil || snapshots[i].Price.LessThan(best.Price) {
			best = &snapshots[i]
		}
	}
	return best
}
