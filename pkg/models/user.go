package models

// User represents a Telegram user using the bot
type User struct {
	ID               int64  `json:"id" db:"user_id"` // Telegram User ID
	FirstName        string `json:"first_name" db:"first_name"`
	Level            string `json:"level" db:"level"` // CEFR level: A1..C1
	NotificationHour int    `json:"notification_hour" db:"notification_hour"` // Hour of day for reminders (0-23)
	CreatedAt        string `json:"created_at" db:"created_at"`
}

// Known CEFR levels, lowest first
const (
	LevelA1 = "A1"
	LevelA2 = "A2"
	LevelB1 = "B1"
	LevelB2 = "B2"
	LevelC1 = "C1"
)
