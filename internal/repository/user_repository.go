package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dealwatch/backend/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a postgres-backed user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Upsert inserts the user or updates the fields present in profile
func (r *userRepository) Upsert(ctx context.Context, userID int64, profile model.UserProfile) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (id, username, first_name, last_name, email)
		VALUES ($1, COALESCE($2::text, ''), COALESCE($3::text, ''), COALESCE($4::text, ''), COALESCE($5::text, ''))
		ON CONFLICT (id)
		DO UPDATE SET
			username = COALESCE($2::text, users.username),
			first_name = COALESCE($3::text, users.first_name),
			last_name = COALESCE($4::text, users.last_name),
			email = COALESCE($5::text, users.email),
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, username, first_name, last_name, email, created_at, updated_at
	`, userID, profile.Username, profile.FirstName, profile.LastName, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &user, nil
}

// Get returns a user by ID
func (r *userRepository) Get(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, username, first_name, last_name, email, created_at, updated_at
		FROM users WHERE id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
