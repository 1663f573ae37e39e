// Package engine is the learning-progression core: it owns the Learn and
// Review state machines, the mission trigger, and scenario matching.
// Everything it touches sits behind an interface so flows are testable
// without a database or network.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Aramushaa/LingoDojo/internal/feedback"
	"github.com/Aramushaa/LingoDojo/internal/srs"
	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// ContentStore serves packs and items
type ContentStore interface {
	GetItem(ctx context.Context, itemID int64) (*models.Item, error)
	GetPack(ctx context.Context, packID string) (*models.Pack, error)
	ActivePacks(ctx context.Context, userID int64) ([]models.Pack, error)
	NextNewItem(ctx context.Context, userID int64) (*models.Item, error)
	SiblingTranslations(ctx context.Context, item *models.Item, limit int) ([]string, error)
	LearnedTerms(ctx context.Context, userID int64, packID string) ([]string, error)
	PackProgress(ctx context.Context, userID int64) ([]models.PackProgress, error)
}

// ReviewScheduler owns spaced-repetition state transitions
type ReviewScheduler interface {
	Ensure(ctx context.Context, userID, itemID int64) error
	Grade(ctx context.Context, userID, itemID int64, grade srs.Grade) (*models.Review, error)
	MarkMastered(ctx context.Context, userID, itemID int64) error
	Undo(ctx context.Context, userID, itemID int64) (bool, error)
	NextDue(ctx context.Context, userID int64) (*models.Review, error)
	DueCount(ctx context.Context, userID int64) (int, error)
	Today() string
}

// SessionStore persists the single session row per user
type SessionStore interface {
	Set(ctx context.Context, userID int64, mode, stage string, itemID int64, metaJSON string) error
	Get(ctx context.Context, userID int64) (*models.Session, error)
	Clear(ctx context.Context, userID int64) error
}

// StatsStore persists practice statistics and scenario completions
type StatsStore interface {
	Get(ctx context.Context, userID int64) (*models.PracticeStats, error)
	RecordOutcome(ctx context.Context, userID int64, correct bool, today string) error
	BumpTurnsSinceMission(ctx context.Context, userID int64) error
	ResetTurnsSinceMission(ctx context.Context, userID int64) error
	CompleteScenario(ctx context.Context, userID int64, scenarioID string) error
	CompletedScenarios(ctx context.Context, userID int64) (map[string]bool, error)
	ClearScenarioCompletion(ctx context.Context, userID int64, scenarioID string) error
}

// UserStore answers user-profile questions the flows need
type UserStore interface {
	Level(ctx context.Context, userID int64) (string, error)
}

// ScenarioCatalog serves the loaded roleplay scenarios
type ScenarioCatalog interface {
	ScenariosFor(packKey string) []models.Scenario
	Find(scenarioID string) *models.Scenario
}

// PackKeyFunc maps a pack id onto a scenario catalog key
type PackKeyFunc func(packID string) string

// Config tunes the mission trigger and review sub-mode selection
type Config struct {
	StreakToFire      int // correct answers in a row that earn a mission
	ErrorsToFlag      int // wrong answers on one item that earn a rescue mission
	MissionGapSeconds int // pacing: seconds since the last mission
	BacklogThreshold  int // due backlog at which review falls back to recognition
	MissionCapA1      int
	MissionCapA2      int
	MissionCapDefault int
}

// DefaultConfig returns the tuned defaults
func DefaultConfig() Config {
	return Config{
		StreakToFire:      3,
		ErrorsToFlag:      2,
		MissionGapSeconds: 240,
		BacklogThreshold:  10,
		MissionCapA1:      2,
		MissionCapA2:      3,
		MissionCapDefault: 4,
	}
}

// Params collects the engine's collaborators
type Params struct {
	Content  ContentStore
	Reviews  ReviewScheduler
	Sessions SessionStore
	Stats    StatsStore
	Users    UserStore
	Catalog  ScenarioCatalog
	PackKey  PackKeyFunc
	Feedback feedback.Generator
	Config   Config
	Clock    func() time.Time
	Rand     *rand.Rand
	Log      *zap.Logger
}

// Engine drives every inbound turn. One synchronous call per turn; the
// transport serializes per user.
type Engine struct {
	content  ContentStore
	reviews  ReviewScheduler
	sessions SessionStore
	stats    StatsStore
	users    UserStore
	catalog  ScenarioCatalog
	packKey  PackKeyFunc
	gen      feedback.Generator
	cfg      Config
	clock    func() time.Time
	rngMu    sync.Mutex
	rng      *rand.Rand
	log      *zap.Logger
}

// randIntn draws from the shared source. The transport serializes turns
// per user, not globally, so the source carries its own lock.
func (e *Engine) randIntn(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(n)
}

// New creates an engine. Nil Clock, Rand and Log get safe defaults.
func New(p Params) *Engine {
	if p.Clock == nil {
		p.Clock = time.Now
	}
	if p.Rand == nil {
		p.Rand = rand.New(rand.NewSource(p.Clock().UnixNano()))
	}
	if p.Log == nil {
		p.Log = zap.NewNop()
	}
	if p.PackKey == nil {
		p.PackKey = func(string) string { return "generic" }
	}
	return &Engine{
		content:  p.Content,
		reviews:  p.Reviews,
		sessions: p.Sessions,
		stats:    p.Stats,
		users:    p.Users,
		catalog:  p.Catalog,
		packKey:  p.PackKey,
		gen:      p.Feedback,
		cfg:      p.Config,
		clock:    p.Clock,
		rng:      p.Rand,
		log:      p.Log,
	}
}

// saveSession validates the mode/stage pair and persists the state
func (e *Engine) saveSession(ctx context.Context, userID int64, mode Mode, stage Stage, itemID int64, meta *SessionMeta) error {
	if !validStages[mode][stage] {
		return &invalidTransitionError{mode: mode, stage: stage}
	}
	metaJSON, err := encodeMeta(meta)
	if err != nil {
		return err
	}
	return e.sessions.Set(ctx, userID, string(mode), string(stage), itemID, metaJSON)
}

type invalidTransitionError struct {
	mode  Mode
	stage Stage
}

func (e *invalidTransitionError) Error() string {
	return "invalid session transition: " + string(e.mode) + "/" + string(e.stage)
}
