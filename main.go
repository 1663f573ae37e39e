package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Aramushaa/LingoDojo/internal/bot"
	"github.com/Aramushaa/LingoDojo/internal/catalog"
	"github.com/Aramushaa/LingoDojo/internal/config"
	"github.com/Aramushaa/LingoDojo/internal/database"
	"github.com/Aramushaa/LingoDojo/internal/engine"
	"github.com/Aramushaa/LingoDojo/internal/feedback"
	"github.com/Aramushaa/LingoDojo/internal/packs"
	"github.com/Aramushaa/LingoDojo/internal/scheduler"
	"github.com/Aramushaa/LingoDojo/internal/speech"
	"github.com/Aramushaa/LingoDojo/internal/srs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := database.Connect(cfg.DB.Type, cfg.DB.DSN); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := packs.ImportDir(ctx, cfg.Content.PacksDir, logger); err != nil {
		logger.Fatal("failed to import packs", zap.Error(err))
	}

	scenarios, err := catalog.Load(cfg.Content.ScenariosDir, logger)
	if err != nil {
		logger.Fatal("failed to load scenarios", zap.Error(err))
	}

	var gen feedback.Generator = feedback.Disabled{}
	if cfg.OpenAI.APIKey != "" {
		gen = feedback.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
		logger.Info("AI feedback enabled")
	}

	var synth speech.Synthesizer = speech.Disabled{}
	if cfg.TTS.URL != "" {
		synth = speech.NewHTTPClient(cfg.TTS.URL, cfg.TTS.Voice)
		logger.Info("speech synthesis enabled")
	}

	items := database.NewItemRepository()
	eng := engine.New(engine.Params{
		Content:  items,
		Reviews:  srs.New(database.NewReviewRepository(), items, time.Now),
		Sessions: database.NewSessionRepository(),
		Stats:    database.NewStatsRepository(),
		Users:    database.NewUserRepository(),
		Catalog:  scenarios,
		PackKey:  catalog.KeyForPack,
		Feedback: gen,
		Config: engine.Config{
			StreakToFire:      cfg.Trigger.StreakToFire,
			ErrorsToFlag:      cfg.Trigger.ErrorsToFlag,
			MissionGapSeconds: cfg.Trigger.MissionGapSeconds,
			BacklogThreshold:  cfg.Trigger.BacklogThreshold,
			MissionCapA1:      cfg.Trigger.MissionCapA1,
			MissionCapA2:      cfg.Trigger.MissionCapA2,
			MissionCapDefault: cfg.Trigger.MissionCapDefault,
		},
		Log: logger,
	})

	b, err := bot.New(cfg.BotToken, eng, synth, logger)
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}

	reminders := scheduler.New(b, logger)
	reminders.Start()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutting down", zap.String("signal", sig.String()))
		reminders.Stop()
		b.Stop()
		cancel()
	}()

	logger.Info("bot started")
	b.Start()
	logger.Info("bot stopped")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
