package engine

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Aramushaa/LingoDojo/internal/feedback"
	"github.com/Aramushaa/LingoDojo/internal/srs"
	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// ---- content ----

type fakeContent struct {
	items  map[int64]*models.Item
	packs  map[string]*models.Pack
	active map[string]bool
	seen   *fakeSrsStore // review rows decide what counts as new
}

func newFakeContent(seen *fakeSrsStore) *fakeContent {
	return &fakeContent{
		items:  map[int64]*models.Item{},
		packs:  map[string]*models.Pack{},
		active: map[string]bool{},
		seen:   seen,
	}
}

func (f *fakeContent) addPack(p models.Pack, activate bool) {
	cp := p
	f.packs[p.ID] = &cp
	if activate {
		f.active[p.ID] = true
	}
}

func (f *fakeContent) addItem(i models.Item) {
	cp := i
	f.items[i.ID] = &cp
}

func (f *fakeContent) GetItem(_ context.Context, itemID int64) (*models.Item, error) {
	item, ok := f.items[itemID]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (f *fakeContent) GetPack(_ context.Context, packID string) (*models.Pack, error) {
	p, ok := f.packs[packID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeContent) ActivePacks(_ context.Context, _ int64) ([]models.Pack, error) {
	var out []models.Pack
	for id := range f.active {
		out = append(out, *f.packs[id])
	}
	return out, nil
}

func (f *fakeContent) NextNewItem(_ context.Context, _ int64) (*models.Item, error) {
	var ids []int64
	for id, item := range f.items {
		if !f.active[item.PackID] {
			continue
		}
		if _, introduced := f.seen.rows[id]; introduced {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	cp := *f.items[ids[0]]
	return &cp, nil
}

func (f *fakeContent) SiblingTranslations(_ context.Context, item *models.Item, limit int) ([]string, error) {
	var out []string
	var ids []int64
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		sib := f.items[id]
		if sib.PackID == item.PackID && sib.ID != item.ID && sib.Translation != item.Translation {
			out = append(out, sib.Translation)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeContent) LearnedTerms(_ context.Context, _ int64, packID string) ([]string, error) {
	var out []string
	for id := range f.seen.rows {
		if item, ok := f.items[id]; ok && item.PackID == packID {
			out = append(out, item.Term)
		}
	}
	return out, nil
}

func (f *fakeContent) PackProgress(_ context.Context, _ int64) ([]models.PackProgress, error) {
	return nil, nil
}

func (f *fakeContent) IsItemActive(_ context.Context, _, itemID int64) (bool, error) {
	item, ok := f.items[itemID]
	return ok && f.active[item.PackID], nil
}

// ---- srs store (drives the real srs.Scheduler) ----

type fakeSrsStore struct {
	rows map[int64]*models.Review
	snap map[int64]models.Review
}

func newFakeSrsStore() *fakeSrsStore {
	return &fakeSrsStore{rows: map[int64]*models.Review{}, snap: map[int64]models.Review{}}
}

func (f *fakeSrsStore) Ensure(_ context.Context, userID, itemID int64, today string) error {
	if _, ok := f.rows[itemID]; !ok {
		f.rows[itemID] = &models.Review{UserID: userID, ItemID: itemID, Status: models.StatusNew, DueDate: today}
	}
	return nil
}

func (f *fakeSrsStore) Get(_ context.Context, _, itemID int64) (*models.Review, error) {
	rv, ok := f.rows[itemID]
	if !ok {
		return nil, nil
	}
	cp := *rv
	return &cp, nil
}

func (f *fakeSrsStore) ApplyGrade(_ context.Context, _, itemID int64, status string, intervalDays int, dueDate, reviewedAt string, reps, lapses int) error {
	rv, ok := f.rows[itemID]
	if !ok {
		return errors.New("review row not found")
	}
	f.snap[itemID] = *rv
	rv.Status = status
	rv.IntervalDays = intervalDays
	rv.DueDate = dueDate
	rv.LastReviewedAt = sql.NullString{String: reviewedAt, Valid: true}
	rv.Reps = reps
	rv.Lapses = lapses
	rv.UndoAvailable = true
	return nil
}

func (f *fakeSrsStore) Undo(_ context.Context, _, itemID int64) (bool, error) {
	rv, ok := f.rows[itemID]
	if !ok || !rv.UndoAvailable {
		return false, nil
	}
	prev := f.snap[itemID]
	prev.UndoAvailable = false
	f.rows[itemID] = &prev
	return true, nil
}

func (f *fakeSrsStore) DueList(_ context.Context, _ int64, today string, limit int) ([]models.Review, error) {
	var out []models.Review
	for _, rv := range f.rows {
		if rv.DueDate <= today {
			out = append(out, *rv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate != out[j].DueDate {
			return out[i].DueDate < out[j].DueDate
		}
		return out[i].ItemID < out[j].ItemID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSrsStore) DueCount(ctx context.Context, userID int64, today string) (int, error) {
	due, _ := f.DueList(ctx, userID, today, 1<<30)
	return len(due), nil
}

func (f *fakeSrsStore) Delete(_ context.Context, _, itemID int64) error {
	delete(f.rows, itemID)
	return nil
}

// ---- sessions ----

type fakeSessions struct {
	session *models.Session
}

func (f *fakeSessions) Set(_ context.Context, userID int64, mode, stage string, itemID int64, metaJSON string) error {
	s := &models.Session{UserID: userID, Mode: mode, Stage: stage}
	if itemID != 0 {
		s.ItemID = sql.NullInt64{Int64: itemID, Valid: true}
	}
	s.MetaJSON = sql.NullString{String: metaJSON, Valid: true}
	f.session = s
	return nil
}

func (f *fakeSessions) Get(_ context.Context, _ int64) (*models.Session, error) {
	if f.session == nil {
		return nil, nil
	}
	cp := *f.session
	return &cp, nil
}

func (f *fakeSessions) Clear(_ context.Context, _ int64) error {
	f.session = nil
	return nil
}

func (f *fakeSessions) meta() *SessionMeta {
	m, err := decodeMeta(f.session)
	if err != nil {
		panic(err)
	}
	return m
}

// ---- stats ----

type fakeStats struct {
	correct, wrong    int
	turnsSinceMission int
	resets            int
	completed         map[string]bool
}

func newFakeStats() *fakeStats {
	return &fakeStats{completed: map[string]bool{}}
}

func (f *fakeStats) Get(_ context.Context, userID int64) (*models.PracticeStats, error) {
	return &models.PracticeStats{
		UserID:            userID,
		CorrectTotal:      f.correct,
		WrongTotal:        f.wrong,
		TurnsSinceMission: f.turnsSinceMission,
	}, nil
}

func (f *fakeStats) RecordOutcome(_ context.Context, _ int64, correct bool, _ string) error {
	if correct {
		f.correct++
	} else {
		f.wrong++
	}
	return nil
}

func (f *fakeStats) BumpTurnsSinceMission(context.Context, int64) error {
	f.turnsSinceMission++
	return nil
}

func (f *fakeStats) ResetTurnsSinceMission(context.Context, int64) error {
	f.turnsSinceMission = 0
	f.resets++
	return nil
}

func (f *fakeStats) CompleteScenario(_ context.Context, _ int64, scenarioID string) error {
	f.completed[scenarioID] = true
	return nil
}

func (f *fakeStats) CompletedScenarios(context.Context, int64) (map[string]bool, error) {
	out := map[string]bool{}
	for k, v := range f.completed {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStats) ClearScenarioCompletion(_ context.Context, _ int64, scenarioID string) error {
	delete(f.completed, scenarioID)
	return nil
}

// ---- users / catalog / feedback ----

type fakeUsers struct{ level string }

func (f *fakeUsers) Level(context.Context, int64) (string, error) {
	if f.level == "" {
		return models.LevelA1, nil
	}
	return f.level, nil
}

type fakeCatalog struct {
	scenarios map[string][]models.Scenario
}

func (f *fakeCatalog) ScenariosFor(packKey string) []models.Scenario {
	return f.scenarios[packKey]
}

func (f *fakeCatalog) Find(id string) *models.Scenario {
	for _, list := range f.scenarios {
		for i := range list {
			if list[i].ID == id {
				return &list[i]
			}
		}
	}
	return nil
}

type fakeGen struct {
	quizErr     error
	sentenceErr error
	roleplayErr error
	context     string
}

func (f *fakeGen) QuizContext(context.Context, models.Item) (feedback.QuizContext, error) {
	if f.quizErr != nil {
		return feedback.QuizContext{}, f.quizErr
	}
	if f.context == "" {
		return feedback.QuizContext{Unavailable: true}, nil
	}
	return feedback.QuizContext{ContextSentence: f.context}, nil
}

func (f *fakeGen) SentenceFeedback(context.Context, models.Item, string) (feedback.Feedback, error) {
	if f.sentenceErr != nil {
		return feedback.Feedback{}, f.sentenceErr
	}
	return feedback.Feedback{Unavailable: true}, nil
}

func (f *fakeGen) RoleplayFeedback(context.Context, models.SceneTurn, string) (feedback.Feedback, error) {
	if f.roleplayErr != nil {
		return feedback.Feedback{}, f.roleplayErr
	}
	return feedback.Feedback{Unavailable: true}, nil
}

// ---- harness ----

type testEnv struct {
	engine   *Engine
	content  *fakeContent
	srsStore *fakeSrsStore
	sessions *fakeSessions
	stats    *fakeStats
	users    *fakeUsers
	catalog  *fakeCatalog
	gen      *fakeGen
	now      time.Time
}

func newTestEnv() *testEnv {
	now, _ := time.Parse("2006-01-02", "2026-03-01")
	srsStore := newFakeSrsStore()
	content := newFakeContent(srsStore)
	env := &testEnv{
		content:  content,
		srsStore: srsStore,
		sessions: &fakeSessions{},
		stats:    newFakeStats(),
		users:    &fakeUsers{},
		catalog:  &fakeCatalog{scenarios: map[string][]models.Scenario{}},
		gen:      &fakeGen{},
		now:      now,
	}
	clock := func() time.Time { return env.now }
	env.engine = New(Params{
		Content:  content,
		Reviews:  srs.New(srsStore, content, clock),
		Sessions: env.sessions,
		Stats:    env.stats,
		Users:    env.users,
		Catalog:  env.catalog,
		PackKey:  func(packID string) string { return packID },
		Feedback: env.gen,
		Config:   DefaultConfig(),
		Clock:    clock,
		Rand:     rand.New(rand.NewSource(7)),
		Log:      zap.NewNop(),
	})
	return env
}

const testUser int64 = 1

// answerCurrentQuiz presses the correct (or a wrong) option on the card
// currently in the session
func (env *testEnv) answerCurrentQuiz(correct bool) (*Reply, error) {
	meta := env.sessions.meta()
	choice := meta.Quiz.CorrectIndex
	if !correct {
		choice = (meta.Quiz.CorrectIndex + 1) % len(meta.Quiz.Options)
	}
	return env.engine.AnswerQuiz(context.Background(), testUser, choice)
}
