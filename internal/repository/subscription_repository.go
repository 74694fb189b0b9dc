package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dealwatch/backend/internal/model"
)

const subscriptionColumns = `user_id, game_id, price_ceiling, min_discount, created_at, updated_at`

type subscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository creates a postgres-backed subscription repository
func NewSubscriptionRepository(db *sqlx.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Add creates a subscription. An existing (user, game) pair is left untouched.
func (r *subscriptionRepository) Add(ctx context.Context, sub *model.Subscription) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO subscriptions (user_id, game_id, price_ceiling, min_discount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, game_id) DO NOTHING
		RETURNING created_at, updated_at
	`, sub.UserID, sub.GameID, sub.PriceCeiling, sub.MinDiscount).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSubscriptionExists
	}
	if err != nil {
		return fmt.Errorf("add subscription: %w", err)
	}
	return nil
}

// Remove deletes a subscription
func (r *subscriptionRepository) Remove(ctx context.Context, userID int64, gameID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM subscriptions WHERE user_id = $1 AND game_id = $2
	`, userID, gameID)
	if err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// UpdateFilters replaces the filters of a subscription
func (r *subscriptionRepository) UpdateFilters(ctx context.Context, userID int64, gameID string, filters model.SubscriptionFilters) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET
			price_ceiling = $3,
			min_discount = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND game_id = $2
	`, userID, gameID, filters.PriceCeiling, filters.MinDiscount)
	if err != nil {
		return fmt.Errorf("update subscription filters: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// ListForUser returns every subscription of a user
func (r *subscriptionRepository) ListForUser(ctx context.Context, userID int64) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.SelectContext(ctx, &subs, `
		SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user subscriptions: %w", err)
	}
	return subs, nil
}

// ListSubscribers returns the subscriptions of every user following a game
func (r *subscriptionRepository) ListSubscribers(ctx context.Context, gameID string) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.SelectContext(ctx, &subs, `
		SELECT `+subscriptionColumns+` FROM subscriptions WHERE game_id = $1
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return subs, nil
}

// ListSubscribedGames returns the distinct games with at least one subscriber
func (r *subscriptionRepository) ListSubscribedGames(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT game_id FROM subscriptions
	`)
	if err != nil {
		return nil, fmt.Errorf("list subscribed games: %w", err)
	}
	return ids, nil
}
