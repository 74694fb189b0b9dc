package service

import (
	"context"
	"errors"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/feed"
	"github.com/dealwatch/backend/internal/model"
)

// GameFeed is the query side of the price feed
type GameFeed interface {
	GameDetails(ctx context.Context, gameID string) (*model.GameDetails, error)
	SearchGames(ctx context.Context, query string, limit int) ([]model.GameSummary, error)
	CurrentDeals(ctx context.Context, limit int) ([]model.Deal, error)
	Stores(ctx context.Context) ([]model.Store, error)
}

// feedError maps feed failures to errors the HTTP layer can render.
func feedError(err error) error {
	if errors.Is(err, feed.ErrGameNotFound) {
		return apperror.NotFound("game")
	}
	return apperror.BadGateway(err, "price feed is unavailable")
}
