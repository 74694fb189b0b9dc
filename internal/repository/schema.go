package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates every table the service uses. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGINT PRIMARY KEY,
    username VARCHAR(255) NOT NULL DEFAULT '',
    first_name VARCHAR(255) NOT NULL DEFAULT '',
    last_name VARCHAR(255) NOT NULL DEFAULT '',
    email VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS games (
    id VARCHAR(64) PRIMARY KEY,
    title TEXT NOT NULL,
    thumbnail TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS stores (
    id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    logo TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN DEFAULT true,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS price_snapshots (
    game_id VARCHAR(64) NOT NULL,
    store_id VARCHAR(64) NOT NULL,
    price DECIMAL(12, 2) NOT NULL CHECK (price >= 0),
    retail_price DECIMAL(12, 2) NOT NULL DEFAULT 0,
    discount_percent SMALLINT NOT NULL CHECK (discount_percent BETWEEN 0 AND 100),
    observed_at TIMESTAMP WITH TIME ZONE NOT NULL,
    PRIMARY KEY (game_id, store_id)
);

CREATE TABLE IF NOT EXISTS price_history (
    id BIGSERIAL PRIMARY KEY,
    game_id VARCHAR(64) NOT NULL,
    store_id VARCHAR(64) NOT NULL,
    price DECIMAL(12, 2) NOT NULL,
    retail_price DECIMAL(12, 2) NOT NULL DEFAULT 0,
    discount_percent SMALLINT NOT NULL,
    observed_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_price_history_pair ON price_history (game_id, store_id, observed_at DESC);

CREATE TABLE IF NOT EXISTS subscriptions (
    user_id BIGINT NOT NULL,
    game_id VARCHAR(64) NOT NULL REFERENCES games(id) ON DELETE CASCADE,
    price_ceiling DECIMAL(12, 2),
    min_discount SMALLINT CHECK (min_discount BETWEEN 0 AND 100),
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    PRIMARY KEY (user_id, game_id)
);

CREATE INDEX IF NOT EXISTS idx_subscriptions_game ON subscriptions (game_id);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
