package models

import "database/sql"

// Session is the single persisted conversation-state row per user.
// Everything the multi-turn flows need survives a process restart
// through MetaJSON.
type Session struct {
	UserID    int64          `json:"user_id" db:"user_id"`
	Mode      string         `json:"mode" db:"mode"`
	Stage     string         `json:"stage" db:"stage"`
	ItemID    sql.NullInt64  `json:"item_id" db:"item_id"`
	MetaJSON  sql.NullString `json:"meta_json" db:"meta_json"`
	UpdatedAt string         `json:"updated_at" db:"updated_at"`
}
