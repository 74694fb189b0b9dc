package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/internal/repository"
)

// UserService manages user profiles
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, logger: logger}
}

// GetProfile returns a user's stored details
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}

// UpdateProfile creates the user if needed and applies the given fields
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, profile model.UserProfile) (*model.User, error) {
	if userID <= 0 {
		return nil, apperror.ValidationError("userId", model.ErrInvalidUserID.Error())
	}
	if err := profile.Validate(); err != nil {
		return nil, apperror.ValidationError("email", err.Error())
	}

	user, err := s.users.Upsert(ctx, userID, profile)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.logger.Info("User profile updated", slog.Int64("user_id", userID))
	return user, nil
}
