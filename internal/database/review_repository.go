package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// ReviewRepository handles database operations for per-item review state
type ReviewRepository struct{}

// NewReviewRepository creates a new repository instance
func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{}
}

// Ensure creates the review row on first exposure: status new, interval 0,
// due today. Idempotent; an existing row is left untouched.
func (r *ReviewRepository) Ensure(ctx context.Context, userID, itemID int64, today string) error {
	query := rebind(`
		INSERT INTO reviews (user_id, item_id, status, interval_days, due_date)
		VALUES (?, ?, 'new', 0, ?)
		ON CONFLICT(user_id, item_id) DO NOTHING
	`)
	if _, err := DB.ExecContext(ctx, query, userID, itemID, today); err != nil {
		return fmt.Errorf("failed to ensure review row: %v", err)
	}
	return nil
}

// Get returns the review row, or nil if the item was never introduced
func (r *ReviewRepository) Get(ctx context.Context, userID, itemID int64) (*models.Review, error) {
	var rv models.Review
	query := rebind(`SELECT * FROM reviews WHERE user_id = ? AND item_id = ?`)
	err := DB.GetContext(ctx, &rv, query, userID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %v", err)
	}
	return &rv, nil
}

// ApplyGrade snapshots the current scheduling state into the prev_* columns
// and writes the new state in the same statement, arming undo.
func (r *ReviewRepository) ApplyGrade(ctx context.Context, userID, itemID int64, status string, intervalDays int, dueDate, reviewedAt string, reps, lapses int) error {
	query := rebind(`
		UPDATE reviews SET
			prev_status = status,
			prev_interval_days = interval_days,
			prev_due_date = due_date,
			prev_last_reviewed_at = last_reviewed_at,
			prev_reps = reps,
			prev_lapses = lapses,
			undo_available = 1,
			status = ?,
			interval_days = ?,
			due_date = ?,
			last_reviewed_at = ?,
			reps = ?,
			lapses = ?
		WHERE user_id = ? AND item_id = ?
	`)
	result, err := DB.ExecContext(ctx, query,
		status, intervalDays, dueDate, reviewedAt, reps, lapses, userID, itemID)
	if err != nil {
		return fmt.Errorf("failed to apply grade: %v", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rows == 0 {
		return fmt.Errorf("review row not found")
	}
	return nil
}

// Undo restores the snapshot taken by the last ApplyGrade and disarms
// itself. Returns false without error when no undo is available.
func (r *ReviewRepository) Undo(ctx context.Context, userID, itemID int64) (bool, error) {
	query := rebind(`
		UPDATE reviews SET
			status = prev_status,
			interval_days = prev_interval_days,
			due_date = prev_due_date,
			last_reviewed_at = prev_last_reviewed_at,
			reps = prev_reps,
			lapses = prev_lapses,
			undo_available = 0
		WHERE user_id = ? AND item_id = ? AND undo_available = 1
	`)
	result, err := DB.ExecContext(ctx, query, userID, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to undo grade: %v", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %v", err)
	}
	return rows > 0, nil
}

// DueList returns review rows due on or before today, earliest first,
// item id breaking ties for a stable walk order.
func (r *ReviewRepository) DueList(ctx context.Context, userID int64, today string, limit int) ([]models.Review, error) {
	var reviews []models.Review
	query := rebind(`
		SELECT * FROM reviews
		WHERE user_id = ? AND due_date <= ?
		ORDER BY due_date ASC, item_id ASC
		LIMIT ?
	`)
	if err := DB.SelectContext(ctx, &reviews, query, userID, today, limit); err != nil {
		return nil, fmt.Errorf("failed to get due reviews: %v", err)
	}
	return reviews, nil
}

// DueCount returns how many review rows are due on or before today
func (r *ReviewRepository) DueCount(ctx context.Context, userID int64, today string) (int, error) {
	var n int
	query := rebind(`SELECT COUNT(*) FROM reviews WHERE user_id = ? AND due_date <= ?`)
	if err := DB.GetContext(ctx, &n, query, userID, today); err != nil {
		return 0, fmt.Errorf("failed to count due reviews: %v", err)
	}
	return n, nil
}

// Delete removes a review row. Used when pruning references to items that
// no longer exist.
func (r *ReviewRepository) Delete(ctx context.Context, userID, itemID int64) error {
	query := rebind(`DELETE FROM reviews WHERE user_id = ? AND item_id = ?`)
	if _, err := DB.ExecContext(ctx, query, userID, itemID); err != nil {
		return fmt.Errorf("failed to delete review: %v", err)
	}
	return nil
}

// StatusCounts groups the user's review rows by status
func (r *ReviewRepository) StatusCounts(ctx context.Context, userID int64) (*models.StatusCounts, error) {
	var counts models.StatusCounts
	query := rebind(`
		SELECT
			COALESCE(SUM(CASE WHEN status = 'new' THEN 1 ELSE 0 END), 0) AS new,
			COALESCE(SUM(CASE WHEN status = 'learning' THEN 1 ELSE 0 END), 0) AS learning,
			COALESCE(SUM(CASE WHEN status = 'mature' THEN 1 ELSE 0 END), 0) AS mature
		FROM reviews WHERE user_id = ?
	`)
	if err := DB.GetContext(ctx, &counts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to count review statuses: %v", err)
	}
	return &counts, nil
}
