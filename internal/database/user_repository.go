package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// Ensure creates the user row on first contact; subsequent calls are no-ops
func (r *UserRepository) Ensure(ctx context.Context, userID int64, firstName string) error {
	query := rebind(`
		INSERT INTO users (user_id, first_name)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`)
	if _, err := DB.ExecContext(ctx, query, userID, firstName); err != nil {
		return fmt.Errorf("failed to ensure user: %v", err)
	}
	return nil
}

// GetByID returns a user, or nil if unknown
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	query := rebind(`SELECT user_id, first_name, level, notification_hour, created_at FROM users WHERE user_id = ?`)
	err := DB.GetContext(ctx, &user, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return &user, nil
}

// Level returns the user's CEFR level, defaulting to A1 for unknown users
func (r *UserRepository) Level(ctx context.Context, userID int64) (string, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil || user.Level == "" {
		return models.LevelA1, nil
	}
	return user.Level, nil
}

// SetLevel updates the user's CEFR level
func (r *UserRepository) SetLevel(ctx context.Context, userID int64, level string) error {
	query := rebind(`UPDATE users SET level = ? WHERE user_id = ?`)
	if _, err := DB.ExecContext(ctx, query, level, userID); err != nil {
		return fmt.Errorf("failed to set level: %v", err)
	}
	return nil
}

// SetNotificationHour updates the hour (0-23) for reminder messages
func (r *UserRepository) SetNotificationHour(ctx context.Context, userID int64, hour int) error {
	query := rebind(`UPDATE users SET notification_hour = ? WHERE user_id = ?`)
	if _, err := DB.ExecContext(ctx, query, hour, userID); err != nil {
		return fmt.Errorf("failed to set notification hour: %v", err)
	}
	return nil
}

// GetUsersForHour returns users whose notification hour matches
func (r *UserRepository) GetUsersForHour(ctx context.Context, hour int) ([]models.User, error) {
	var users []models.User
	query := rebind(`SELECT user_id, first_name, level, notification_hour, created_at FROM users WHERE notification_hour = ?`)
	if err := DB.SelectContext(ctx, &users, query, hour); err != nil {
		return nil, fmt.Errorf("failed to get users for hour: %v", err)
	}
	return users, nil
}
