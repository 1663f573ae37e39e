package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Aramushaa/LingoDojo/pkg/validator"
)

// Config is the full runtime configuration, loaded from the environment
// (optionally seeded from a .env file).
type Config struct {
	BotToken string `mapstructure:"bot_token" validate:"required"`
	Debug    bool   `mapstructure:"debug"`

	DB      DBConfig      `mapstructure:"db"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	TTS     TTSConfig     `mapstructure:"tts"`
	Content ContentConfig `mapstructure:"content"`
	Trigger TriggerConfig `mapstructure:"trigger"`
}

type DBConfig struct {
	Type string `mapstructure:"type" validate:"oneof=sqlite3 postgres"`
	DSN  string `mapstructure:"dsn" validate:"required"`
}

// OpenAIConfig controls the feedback generator; an empty key disables it and
// the engine falls back to canned feedback.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// TTSConfig points at an external speech-synthesis endpoint; empty disables
// voice messages.
type TTSConfig struct {
	URL   string `mapstructure:"url"`
	Voice string `mapstructure:"voice"`
}

type ContentConfig struct {
	PacksDir     string `mapstructure:"packs_dir" validate:"required"`
	ScenariosDir string `mapstructure:"scenarios_dir" validate:"required"`
}

// TriggerConfig tunes the mission trigger engine
type TriggerConfig struct {
	StreakToFire      int `mapstructure:"streak_to_fire" validate:"min=1"`
	ErrorsToFlag      int `mapstructure:"errors_to_flag" validate:"min=1"`
	MissionGapSeconds int `mapstructure:"mission_gap_seconds" validate:"min=1"`
	BacklogThreshold  int `mapstructure:"backlog_threshold" validate:"min=1"`
	MissionCapA1      int `mapstructure:"mission_cap_a1" validate:"min=1"`
	MissionCapA2      int `mapstructure:"mission_cap_a2" validate:"min=1"`
	MissionCapDefault int `mapstructure:"mission_cap_default" validate:"min=1"`
}

var envBindings = map[string]string{
	"bot_token":                   "TELEGRAM_BOT_TOKEN",
	"debug":                       "DEBUG",
	"db.type":                     "DB_TYPE",
	"db.dsn":                      "DB_DSN",
	"openai.api_key":              "OPENAI_API_KEY",
	"openai.model":                "OPENAI_MODEL",
	"tts.url":                     "TTS_URL",
	"tts.voice":                   "TTS_VOICE",
	"content.packs_dir":           "PACKS_DIR",
	"content.scenarios_dir":       "SCENARIOS_DIR",
	"trigger.streak_to_fire":      "TRIGGER_STREAK",
	"trigger.errors_to_flag":      "TRIGGER_ERRORS",
	"trigger.mission_gap_seconds": "TRIGGER_GAP_SECONDS",
	"trigger.backlog_threshold":   "REVIEW_BACKLOG_THRESHOLD",
	"trigger.mission_cap_a1":      "MISSION_CAP_A1",
	"trigger.mission_cap_a2":      "MISSION_CAP_A2",
	"trigger.mission_cap_default": "MISSION_CAP_DEFAULT",
}

// Load reads the configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("db.type", "sqlite3")
	v.SetDefault("db.dsn", "lingodojo.db")
	v.SetDefault("content.packs_dir", "data/packs")
	v.SetDefault("content.scenarios_dir", "data/scenarios")
	v.SetDefault("trigger.streak_to_fire", 3)
	v.SetDefault("trigger.errors_to_flag", 2)
	v.SetDefault("trigger.mission_gap_seconds", 240)
	v.SetDefault("trigger.backlog_threshold", 10)
	v.SetDefault("trigger.mission_cap_a1", 2)
	v.SetDefault("trigger.mission_cap_a2", 3)
	v.SetDefault("trigger.mission_cap_default", 4)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
