package models

import "database/sql"

// PracticeStats accumulates per-user practice outcomes
type PracticeStats struct {
	UserID            int64          `json:"user_id" db:"user_id"`
	Streak            int            `json:"streak" db:"streak"` // consecutive practice days
	LastPracticeDate  sql.NullString `json:"last_practice_date" db:"last_practice_date"`
	CorrectTotal      int            `json:"correct_total" db:"correct_total"`
	WrongTotal        int            `json:"wrong_total" db:"wrong_total"`
	TurnsSinceMission int            `json:"turns_since_mission" db:"turns_since_mission"`
}

// PackProgress is derived per (user, pack): how many items have been introduced
type PackProgress struct {
	PackID     string `json:"pack_id" db:"pack_id"`
	Title      string `json:"title" db:"title"`
	Total      int    `json:"total" db:"total"`
	Introduced int    `json:"introduced" db:"introduced"`
}
