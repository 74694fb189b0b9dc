package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
)

func TestCatalogService_SearchGames(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		query     string
		limit     int
		wantLimit int
	}{
		{"default limit", "batman", 0, defaultSearchLimit},
		{"custom limit", "batman", 5, 5},
		{"limit capped", "batman", 500, maxQueryLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := new(MockGameFeed)
			svc := NewCatalogService(f, new(MockCatalogRepository), nil)
			f.On("SearchGames", ctx, tt.query, tt.wantLimit).Return([]model.GameSummary{{GameID: "612"}}, nil)

			games, err := svc.SearchGames(ctx, tt.query, tt.limit)

			require.NoError(t, err)
			assert.Len(t, games, 1)
			f.AssertExpectations(t)
		})
	}
}

func TestCatalogService_SearchGames_EmptyQuery(t *testing.T) {
	f := new(MockGameFeed)
	svc := NewCatalogService(f, new(MockCatalogRepository), nil)

	_, err := svc.SearchGames(context.Background(), "   ", 10)

	assert.Equal(t, http.StatusBadRequest, apperror.GetStatusCode(err))
	f.AssertNotCalled(t, "SearchGames", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogService_GetGame(t *testing.T) {
	ctx := context.Background()
	f := new(MockGameFeed)
	catalog := new(MockCatalogRepository)
	svc := NewCatalogService(f, catalog, nil)

	f.On("GameDetails", ctx, "612").Return(&model.GameDetails{GameID: "612", Title: "LEGO Batman"}, nil)
	catalog.On("UpsertGame", ctx, mock.Anything).Return(errors.New("db down"))

	details, err := svc.GetGame(ctx, "612")

	require.NoError(t, err)
	assert.Equal(t, "LEGO Batman", details.Title)
	catalog.AssertExpectations(t)
}

func TestCatalogService_CurrentDeals_FeedError(t *testing.T) {
	ctx := context.Background()
	f := new(MockGameFeed)
	svc := NewCatalogService(f, new(MockCatalogRepository), nil)

	f.On("CurrentDeals", ctx, defaultDealsLimit).Return(nil, apperror.NewFetchError("", "deals", errors.New("timeout"), true))

	_, err := svc.CurrentDeals(ctx, 0)

	assert.Equal(t, http.StatusBadGateway, apperror.GetStatusCode(err))
}

func TestCatalogService_ListStores(t *testing.T) {
	ctx := context.Background()
	stores := []model.Store{{ID: "1", Name: "Steam", IsActive: true}}

	t.Run("refreshes catalog", func(t *testing.T) {
		f := new(MockGameFeed)
		catalog := new(MockCatalogRepository)
		svc := NewCatalogService(f, catalog, nil)
		f.On("Stores", ctx).Return(stores, nil)
		catalog.On("UpsertStores", ctx, stores).Return(nil)

		got, err := svc.ListStores(ctx)

		require.NoError(t, err)
		assert.Equal(t, stores, got)
		catalog.AssertExpectations(t)
	})

	t.Run("falls back to catalog", func(t *testing.T) {
		f := new(MockGameFeed)
		catalog := new(MockCatalogRepository)
		svc := NewCatalogService(f, catalog, nil)
		f.On("Stores", ctx).Return(nil, errors.New("feed down"))
		catalog.On("ListStores", ctx).Return(stores, nil)

		got, err := svc.ListStores(ctx)

		require.NoError(t, err)
		assert.Equal(t, stores, got)
	})

	t.Run("nothing cached", func(t *testing.T) {
		f := new(MockGameFeed)
		catalog := new(MockCatalogRepository)
		svc := NewCatalogService(f, catalog, nil)
		f.On("Stores", ctx).Return(nil, errors.New("feed down"))
		catalog.On("ListStores", ctx).Return([]model.Store{}, nil)

		_, err := svc.ListStores(ctx)

		assert.Equal(t, http.StatusServiceUnavailable, apperror.GetStatusCode(err))
		assert.ErrorIs(t, err, apperror.ErrUnavailable)
	})
}
