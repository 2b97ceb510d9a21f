package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"lexicon/models"
)

// ErrDuplicateUsername is returned when a username is already registered.
var ErrDuplicateUsername = errors.New("username already taken")

// UserRepository defines the interface for interacting with registered accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isAppendConflict(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user '%s': %w", user.Username, err)
	}
	slog.Info("[UserRepository] Created user", "component", "repository", "user_id", user.ID, "role", user.Role)
	return nil
}

// GetUserByUsername returns (nil, nil) when no such user exists.
func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch user '%s': %w", username, err)
	}
	return &user, nil
}

// GetUserByID returns (nil, nil) when no such user exists.
func (r *userRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}
	return &user, nil
}
