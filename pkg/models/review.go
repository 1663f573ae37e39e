package models

import "database/sql"

// Review statuses
const (
	StatusNew      = "new"
	StatusLearning = "learning"
	StatusMature   = "mature"
)

// Review tracks a user's spaced-repetition state for one item.
// The prev_* columns hold a one-level snapshot taken before each grade
// so the last grade can be undone exactly once.
type Review struct {
	UserID         int64          `json:"user_id" db:"user_id"`
	ItemID         int64          `json:"item_id" db:"item_id"`
	Status         string         `json:"status" db:"status"`
	IntervalDays   int            `json:"interval_days" db:"interval_days"`
	DueDate        string         `json:"due_date" db:"due_date"` // YYYY-MM-DD
	LastReviewedAt sql.NullString `json:"last_reviewed_at" db:"last_reviewed_at"`
	Reps           int            `json:"reps" db:"reps"`
	Lapses         int            `json:"lapses" db:"lapses"`

	PrevStatus         sql.NullString `json:"-" db:"prev_status"`
	PrevIntervalDays   sql.NullInt64  `json:"-" db:"prev_interval_days"`
	PrevDueDate        sql.NullString `json:"-" db:"prev_due_date"`
	PrevLastReviewedAt sql.NullString `json:"-" db:"prev_last_reviewed_at"`
	PrevReps           sql.NullInt64  `json:"-" db:"prev_reps"`
	PrevLapses         sql.NullInt64  `json:"-" db:"prev_lapses"`
	UndoAvailable      bool           `json:"-" db:"undo_available"`
}

// StatusCounts groups a user's review rows by status
type StatusCounts struct {
	New      int `json:"new" db:"new"`
	Learning int `json:"learning" db:"learning"`
	Mature   int `json:"mature" db:"mature"`
}
