package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/internal/repository"
)

const (
	defaultSearchLimit = 10
	defaultDealsLimit  = 20
	maxQueryLimit      = 60
)

// CatalogService answers game and store queries from the feed
type CatalogService struct {
	feed    GameFeed
	catalog repository.CatalogRepository
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(feed GameFeed, catalog repository.CatalogRepository, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{feed: feed, catalog: catalog, logger: logger}
}

// SearchGames looks games up by title
func (s *CatalogService) SearchGames(ctx context.Context, query string, limit int) ([]model.GameSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.ValidationError("q", "search query is required")
	}

	games, err := s.feed.SearchGames(ctx, query, clampLimit(limit, defaultSearchLimit))
	if err != nil {
		return nil, feedError(err)
	}
	return games, nil
}

// GetGame returns current prices for a game across stores and records it in the catalog
func (s *CatalogService) GetGame(ctx context.Context, gameID string) (*model.GameDetails, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, apperror.ValidationError("gameId", "game id is required")
	}

	details, err := s.feed.GameDetails(ctx, gameID)
	if err != nil {
		return nil, feedError(err)
	}

	if err := s.catalog.UpsertGame(ctx, &model.Game{ID: details.GameID, Title: details.Title, Thumbnail: details.Thumbnail}); err != nil {
		s.logger.Warn("Failed to record game in catalog",
			slog.String("game_id", gameID),
			slog.String("error", err.Error()),
		)
	}
	return details, nil
}

// CurrentDeals returns the biggest discounts right now
func (s *CatalogService) CurrentDeals(ctx context.Context, limit int) ([]model.Deal, error) {
	deals, err := s.feed.CurrentDeals(ctx, clampLimit(limit, defaultDealsLimit))
	if err != nil {
		return nil, feedError(err)
	}
	return deals, nil
}

// ListStores returns known stores. The catalog copy is refreshed from the feed
// and served as-is when the feed is down.
func (s *CatalogService) ListStores(ctx context.Context) ([]model.Store, error) {
	stores, err := s.feed.Stores(ctx)
	if err != nil {
		cached, cerr := s.catalog.ListStores(ctx)
		if cerr != nil || len(cached) == 0 {
			return nil, apperror.Unavailable(err, "store list is unavailable")
		}
		s.logger.Warn("Serving cached store list", slog.String("error", err.Error()))
		return cached, nil
	}

	if err := s.catalog.UpsertStores(ctx, stores); err != nil {
		s.logger.Warn("Failed to record stores in catalog", slog.String("error", err.Error()))
	}
	return stores, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxQueryLimit {
		return maxQueryLimit
	}
	return limit
}
