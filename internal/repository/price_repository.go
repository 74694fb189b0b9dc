package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
)

const snapshotColumns = `game_id, store_id, price, retail_price, discount_percent, observed_at`

type priceRepository struct {
	db *sqlx.DB
}

// NewPriceRepository creates a postgres-backed price repository
func NewPriceRepository(db *sqlx.DB) PriceRepository {
	return &priceRepository{db: db}
}

// GetLast returns the current snapshot for a pair, or nil when none was stored
func (r *priceRepository) GetLast(ctx context.Context, gameID, storeID string) (*model.PriceSnapshot, error) {
	var snap model.PriceSnapshot
	err := r.db.GetContext(ctx, &snap, `
		SELECT `+snapshotColumns+` FROM price_snapshots WHERE game_id = $1 AND store_id = $2
	`, gameID, storeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewStoreError("get", gameID+"/"+storeID, err)
	}
	return &snap, nil
}

// Put swaps the current snapshot inside one transaction. The advisory lock
// serializes writers of the same pair even before its first row exists.
func (r *priceRepository) Put(ctx context.Context, snapshot model.PriceSnapshot) (*model.PriceSnapshot, error) {
	key := snapshot.Key()
	if err := snapshot.Validate(); err != nil {
		return nil, apperror.NewStoreError("put", key, err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperror.NewStoreError("put", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return nil, apperror.NewStoreError("lock", key, err)
	}

	var previous *model.PriceSnapshot
	var prev model.PriceSnapshot
	err = tx.GetContext(ctx, &prev, `
		SELECT `+snapshotColumns+` FROM price_snapshots
		WHERE game_id = $1 AND store_id = $2
		FOR UPDATE
	`, snapshot.GameID, snapshot.StoreID)
	switch {
	case err == nil:
		previous = &prev
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, apperror.NewStoreError("get", key, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO price_snapshots (`+snapshotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, store_id)
		DO UPDATE SET
			price = EXCLUDED.price,
			retail_price = EXCLUDED.retail_price,
			discount_percent = EXCLUDED.discount_percent,
			observed_at = EXCLUDED.observed_at
	`, snapshot.GameID, snapshot.StoreID, snapshot.Price, snapshot.RetailPrice,
		snapshot.DiscountPercent, snapshot.ObservedAt)
	if err != nil {
		return nil, apperror.NewStoreError("put", key, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO price_history (`+snapshotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, snapshot.GameID, snapshot.StoreID, snapshot.Price, snapshot.RetailPrice,
		snapshot.DiscountPercent, snapshot.ObservedAt)
	if err != nil {
		return nil, apperror.NewStoreError("history", key, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.NewStoreError("commit", key, err)
	}
	return previous, nil
}

// History returns past observations for a pair, newest first
func (r *priceRepository) History(ctx context.Context, gameID, storeID string, limit int) ([]model.PriceSnapshot, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var snaps []model.PriceSnapshot
	err := r.db.SelectContext(ctx, &snaps, `
		SELECT `+snapshotColumns+` FROM price_history
		WHERE game_id = $1 AND store_id = $2
		ORDER BY observed_at DESC
		LIMIT $3
	`, gameID, storeID, limit)
	if err != nil {
		return nil, apperror.NewStoreError("history", gameID+"/"+storeID, err)
	}
	return snaps, nil
}

// LatestForGame returns the current snapshot of every store for a game, cheapest first
func (r *priceRepository) LatestForGame(ctx context.Context, gameID string) ([]model.PriceSnapshot, error) {
	var snaps []model.PriceSnapshot
	err := r.db.SelectContext(ctx, &snaps, `
		SELECT `+snapshotColumns+` FROM price_snapshots
		WHERE game_id = $1
		ORDER BY price ASC
	`, gameID)
	if err != nil {
		return nil, apperror.NewStoreError("latest", gameID, err)
	}
	return snaps, nil
}
