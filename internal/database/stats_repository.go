package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// StatsRepository handles practice statistics and scenario completions
type StatsRepository struct{}

// NewStatsRepository creates a new repository instance
func NewStatsRepository() *StatsRepository {
	return &StatsRepository{}
}

// Get returns the user's practice stats, zero-valued when none recorded yet
func (r *StatsRepository) Get(ctx context.Context, userID int64) (*models.PracticeStats, error) {
	var stats models.PracticeStats
	query := rebind(`SELECT * FROM practice_stats WHERE user_id = ?`)
	err := DB.GetContext(ctx, &stats, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.PracticeStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get practice stats: %v", err)
	}
	return &stats, nil
}

// RecordOutcome appends one graded turn: bumps the correct or wrong total
// and maintains the consecutive-practice-day streak for today (YYYY-MM-DD).
func (r *StatsRepository) RecordOutcome(ctx context.Context, userID int64, correct bool, today string) error {
	stats, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}

	streak := stats.Streak
	switch {
	case stats.LastPracticeDate.Valid && stats.LastPracticeDate.String == today:
		// already counted today
	case stats.LastPracticeDate.Valid && stats.LastPracticeDate.String == yesterdayOf(today):
		streak++
	default:
		streak = 1
	}

	correctTotal := stats.CorrectTotal
	wrongTotal := stats.WrongTotal
	if correct {
		correctTotal++
	} else {
		wrongTotal++
	}

	query := rebind(`
		INSERT INTO practice_stats (user_id, streak, last_practice_date, correct_total, wrong_total, turns_since_mission)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			streak = excluded.streak,
			last_practice_date = excluded.last_practice_date,
			correct_total = excluded.correct_total,
			wrong_total = excluded.wrong_total
	`)
	if _, err := DB.ExecContext(ctx, query, userID, streak, today, correctTotal, wrongTotal, stats.TurnsSinceMission); err != nil {
		return fmt.Errorf("failed to record outcome: %v", err)
	}
	return nil
}

// BumpTurnsSinceMission increments the persistent turn counter
func (r *StatsRepository) BumpTurnsSinceMission(ctx context.Context, userID int64) error {
	query := rebind(`
		INSERT INTO practice_stats (user_id, turns_since_mission)
		VALUES (?, 1)
		ON CONFLICT(user_id) DO UPDATE SET
			turns_since_mission = practice_stats.turns_since_mission + 1
	`)
	if _, err := DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to bump turn counter: %v", err)
	}
	return nil
}

// ResetTurnsSinceMission zeroes the turn counter after a mission is shown
func (r *StatsRepository) ResetTurnsSinceMission(ctx context.Context, userID int64) error {
	query := rebind(`UPDATE practice_stats SET turns_since_mission = 0 WHERE user_id = ?`)
	if _, err := DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to reset turn counter: %v", err)
	}
	return nil
}

// CompleteScenario records a finished mission; repeat completions are no-ops
func (r *StatsRepository) CompleteScenario(ctx context.Context, userID int64, scenarioID string) error {
	query := rebind(`
		INSERT INTO scenario_completions (user_id, scenario_id)
		VALUES (?, ?)
		ON CONFLICT(user_id, scenario_id) DO NOTHING
	`)
	if _, err := DB.ExecContext(ctx, query, userID, scenarioID); err != nil {
		return fmt.Errorf("failed to record scenario completion: %v", err)
	}
	return nil
}

// CompletedScenarios returns the set of scenario ids the user has finished
func (r *StatsRepository) CompletedScenarios(ctx context.Context, userID int64) (map[string]bool, error) {
	var ids []string
	query := rebind(`SELECT scenario_id FROM scenario_completions WHERE user_id = ?`)
	if err := DB.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get completed scenarios: %v", err)
	}
	completed := make(map[string]bool, len(ids))
	for _, id := range ids {
		completed[id] = true
	}
	return completed, nil
}

// ClearScenarioCompletion forgets a completion so the scenario can replay
func (r *StatsRepository) ClearScenarioCompletion(ctx context.Context, userID int64, scenarioID string) error {
	query := rebind(`DELETE FROM scenario_completions WHERE user_id = ? AND scenario_id = ?`)
	if _, err := DB.ExecContext(ctx, query, userID, scenarioID); err != nil {
		return fmt.Errorf("failed to clear scenario completion: %v", err)
	}
	return nil
}

func yesterdayOf(today string) string {
	t, err := time.Parse("2006-01-02", today)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format("2006-01-02")
}
