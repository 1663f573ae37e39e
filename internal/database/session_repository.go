package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// SessionRepository handles the single persisted session row per user
type SessionRepository struct{}

// NewSessionRepository creates a new repository instance
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

// Set writes the user's session state atomically, last write wins
func (r *SessionRepository) Set(ctx context.Context, userID int64, mode, stage string, itemID int64, metaJSON string) error {
	var item sql.NullInt64
	if itemID != 0 {
		item = sql.NullInt64{Int64: itemID, Valid: true}
	}
	query := rebind(`
		INSERT INTO user_session (user_id, mode, stage, item_id, meta_json, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			mode = excluded.mode,
			stage = excluded.stage,
			item_id = excluded.item_id,
			meta_json = excluded.meta_json,
			updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := DB.ExecContext(ctx, query, userID, mode, stage, item, metaJSON); err != nil {
		return fmt.Errorf("failed to set session: %v", err)
	}
	return nil
}

// Get returns the user's session, or nil when no flow is in progress
func (r *SessionRepository) Get(ctx context.Context, userID int64) (*models.Session, error) {
	var s models.Session
	query := rebind(`SELECT * FROM user_session WHERE user_id = ?`)
	err := DB.GetContext(ctx, &s, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %v", err)
	}
	return &s, nil
}

// Clear removes the user's session row
func (r *SessionRepository) Clear(ctx context.Context, userID int64) error {
	query := rebind(`DELETE FROM user_session WHERE user_id = ?`)
	if _, err := DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear session: %v", err)
	}
	return nil
}
