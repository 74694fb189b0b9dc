package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dealwatch/backend/internal/model"
)

type catalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a postgres-backed catalog repository
func NewCatalogRepository(db *sqlx.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// UpsertGame inserts a game or refreshes its title and thumbnail
func (r *catalogRepository) UpsertGame(ctx context.Context, game *model.Game) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO games (id, title, thumbnail)
		VALUES ($1, $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET
			title = EXCLUDED.title,
			thumbnail = COALESCE(NULLIF(EXCLUDED.thumbnail, ''), games.thumbnail),
			updated_at = CURRENT_TIMESTAMP
		RETURNING created_at, updated_at
	`, game.ID, game.Title, game.Thumbnail).Scan(&game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}
	return nil
}

// GetGame returns a game by ID
func (r *catalogRepository) GetGame(ctx context.Context, id string) (*model.Game, error) {
	var game model.Game
	err := r.db.GetContext(ctx, &game, `
		SELECT id, title, thumbnail, created_at, updated_at FROM games WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return &game, nil
}

// UpsertStores replaces the store reference data in one transaction
func (r *catalogRepository) UpsertStores(ctx context.Context, stores []model.Store) error {
	if len(stores) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range stores {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stores (id, name, logo, is_active)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id)
			DO UPDATE SET
				name = EXCLUDED.name,
				logo = EXCLUDED.logo,
				is_active = EXCLUDED.is_active,
				updated_at = CURRENT_TIMESTAMP
		`, s.ID, s.Name, s.Logo, s.IsActive)
		if err != nil {
			return fmt.Errorf("upsert store %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stores: %w", err)
	}
	return nil
}

// ListStores returns every known store
func (r *catalogRepository) ListStores(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.SelectContext(ctx, &stores, `
		SELECT id, name, logo, is_active, updated_at FROM stores ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}

// GetStore returns a store by ID
func (r *catalogRepository) GetStore(ctx context.Context, id string) (*model.Store, error) {
	var store model.Store
	err := r.db.GetContext(ctx, &store, `
		SELECT id, name, logo, is_active, updated_at FROM stores WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	return &store, nil
}
