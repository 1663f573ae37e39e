package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database.
// dbType is "sqlite3" or "postgres"; dsn is the file path for sqlite
// and the connection string for postgres.
func Connect(dbType, dsn string) error {
	switch dbType {
	case "postgres":
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %v", err)
		}
		DB = db
	default:
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}
		db, err := sqlx.Connect("sqlite3", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %v", err)
		}

		// Enable foreign keys
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %v", err)
		}

		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		DB = db
	}

	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// rebind converts `?` placeholders to the driver's bindvar style
func rebind(query string) string {
	return DB.Rebind(query)
}

// autoincrementPK returns the item_id column definition for the active driver
func autoincrementPK() string {
	if DB.DriverName() == "postgres" {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			first_name TEXT,
			level TEXT NOT NULL DEFAULT 'A1',
			notification_hour INTEGER DEFAULT 9,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS packs (
			pack_id TEXT PRIMARY KEY,
			target_language TEXT NOT NULL,
			level TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT DEFAULT '',
			chunk_size INTEGER DEFAULT 3
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS pack_items (
			item_id %s,
			pack_id TEXT NOT NULL,
			term TEXT NOT NULL,
			translation TEXT NOT NULL,
			focus TEXT NOT NULL DEFAULT 'word',
			phase TEXT DEFAULT '',
			register TEXT DEFAULT '',
			risk TEXT DEFAULT '',
			cultural_note TEXT DEFAULT '',
			scenario_prompt TEXT DEFAULT '',
			context_sentence TEXT DEFAULT '',
			FOREIGN KEY (pack_id) REFERENCES packs(pack_id),
			UNIQUE(pack_id, term)
		)`, autoincrementPK()),
		`CREATE TABLE IF NOT EXISTS user_packs (
			user_id INTEGER NOT NULL,
			pack_id TEXT NOT NULL,
			activated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, pack_id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_session (
			user_id INTEGER PRIMARY KEY,
			mode TEXT NOT NULL,
			stage TEXT NOT NULL,
			item_id INTEGER,
			meta_json TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			user_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'new',
			interval_days INTEGER NOT NULL DEFAULT 0,
			due_date TEXT NOT NULL,
			last_reviewed_at TEXT,
			reps INTEGER NOT NULL DEFAULT 0,
			lapses INTEGER NOT NULL DEFAULT 0,
			prev_status TEXT,
			prev_interval_days INTEGER,
			prev_due_date TEXT,
			prev_last_reviewed_at TEXT,
			prev_reps INTEGER,
			prev_lapses INTEGER,
			undo_available INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS scenario_completions (
			user_id INTEGER NOT NULL,
			scenario_id TEXT NOT NULL,
			completed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, scenario_id)
		)`,
		`CREATE TABLE IF NOT EXISTS practice_stats (
			user_id INTEGER PRIMARY KEY,
			streak INTEGER NOT NULL DEFAULT 0,
			last_practice_date TEXT,
			correct_total INTEGER NOT NULL DEFAULT 0,
			wrong_total INTEGER NOT NULL DEFAULT 0,
			turns_since_mission INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_due ON reviews(user_id, due_date)`,
		`CREATE INDEX IF NOT EXISTS idx_pack_items_pack ON pack_items(pack_id)`,
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %v", err)
		}
	}
	return nil
}
