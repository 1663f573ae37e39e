package srs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

type fakeStore struct {
	rows map[int64]*models.Review
	snap map[int64]models.Review
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[int64]*models.Review{}, snap: map[int64]models.Review{}}
}

func (f *fakeStore) Ensure(_ context.Context, userID, itemID int64, today string) error {
	if _, ok := f.rows[itemID]; !ok {
		f.rows[itemID] = &models.Review{UserID: userID, ItemID: itemID, Status: models.StatusNew, DueDate: today}
	}
	return nil
}

func (f *fakeStore) Get(_ context.Context, _, itemID int64) (*models.Review, error) {
	rv, ok := f.rows[itemID]
	if !ok {
		return nil, nil
	}
	copy := *rv
	return &copy, nil
}

func (f *fakeStore) ApplyGrade(_ context.Context, _, itemID int64, status string, intervalDays int, dueDate, reviewedAt string, reps, lapses int) error {
	rv := f.rows[itemID]
	f.snap[itemID] = *rv
	rv.Status = status
	rv.IntervalDays = intervalDays
	rv.DueDate = dueDate
	rv.LastReviewedAt.String = reviewedAt
	rv.LastReviewedAt.Valid = true
	rv.Reps = reps
	rv.Lapses = lapses
	rv.UndoAvailable = true
	return nil
}

func (f *fakeStore) Undo(_ context.Context, _, itemID int64) (bool, error) {
	rv, ok := f.rows[itemID]
	if !ok || !rv.UndoAvailable {
		return false, nil
	}
	prev := f.snap[itemID]
	prev.UndoAvailable = false
	f.rows[itemID] = &prev
	return true, nil
}

func (f *fakeStore) DueList(_ context.Context, _ int64, today string, limit int) ([]models.Review, error) {
	var out []models.Review
	for _, rv := range f.rows {
		if rv.DueDate <= today {
			out = append(out, *rv)
		}
	}
	// deterministic enough for these tests: ascending item id
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].DueDate < out[i].DueDate || (out[j].DueDate == out[i].DueDate && out[j].ItemID < out[i].ItemID) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) DueCount(ctx context.Context, userID int64, today string) (int, error) {
	due, _ := f.DueList(ctx, userID, today, 1<<30)
	return len(due), nil
}

func (f *fakeStore) Delete(_ context.Context, _, itemID int64) error {
	delete(f.rows, itemID)
	return nil
}

type fakeResolver struct {
	inactive map[int64]bool
}

func (f *fakeResolver) IsItemActive(_ context.Context, _, itemID int64) (bool, error) {
	return !f.inactive[itemID], nil
}

func fixedClock(date string) Clock {
	t, _ := time.Parse("2006-01-02", date)
	return func() time.Time { return t }
}

func newScheduler(store *fakeStore, date string) *Scheduler {
	return New(store, &fakeResolver{inactive: map[int64]bool{}}, fixedClock(date))
}

func TestFromQuality(t *testing.T) {
	assert.Equal(t, GradeAgain, FromQuality(0))
	assert.Equal(t, GradeAgain, FromQuality(1))
	assert.Equal(t, GradeHard, FromQuality(2))
	assert.Equal(t, GradeHard, FromQuality(3))
	assert.Equal(t, GradeGood, FromQuality(4))
	assert.Equal(t, GradeGood, FromQuality(5))
}

func TestGradeGoodFirstExposure(t *testing.T) {
	store := newFakeStore()
	s := newScheduler(store, "2026-03-01")

	rv, err := s.Grade(context.Background(), 1, 10, GradeGood)
	require.NoError(t, err)

	assert.Equal(t, models.StatusLearning, rv.Status)
	assert.Equal(t, 1, rv.IntervalDays)
	assert.Equal(t, "2026-03-02", rv.DueDate)
	assert.Equal(t, 1, rv.Reps)
	assert.Equal(t, 0, rv.Lapses)
}

func TestGradeGoodDoublesAndMatures(t *testing.T) {
	store := newFakeStore()
	s := newScheduler(store, "2026-03-01")
	require.NoError(t, store.Ensure(context.Background(), 1, 10, "2026-03-01"))
	store.rows[10].Status = models.StatusLearning
	store.rows[10].IntervalDays = 10
	store.rows[10].Reps = 4

	rv, err := s.Grade(context.Background(), 1, 10, GradeGood)
	require.NoError(t, err)

	assert.Equal(t, 20, rv.IntervalDays)
	assert.Equal(t, 5, rv.Reps)
	assert.Equal(t, models.StatusMature, rv.Status)
	assert.Equal(t, "2026-03-21", rv.DueDate)
}

func TestGradeGoodNotYetMature(t *testing.T) {
	store := newFakeStore()
	s := newScheduler(store, "2026-03-01")
	require.NoError(t, store.Ensure(context.Background(), 1, 10, "2026-03-01"))
	store.rows[10].IntervalDays = 4
	store.rows[10].Reps = 4

	rv, err := s.Grade(context.Background(), 1, 10, GradeGood)
	require.NoError(t, err)

	// reps reached 5 but the interval (8) is still short
	assert.Equal(t, 8, rv.IntervalDays)
	assert.Equal(t, models.StatusLearning, rv.Status)
}

func TestGradeHardCeilsAndMatures(t *testing.T) {
	store := newFakeStore()
	s := newScheduler(store, "2026-03-01")
	require.NoError(t, store.Ensure(context.Background(), 1, 10, "2026-03-01"))
	store.rows[10].IntervalDays = 14
	store.rows[10].Reps = 5

	rv, err := s.Grade(context.Background(), 1, 10, GradeHard)
	require.NoError(t, err)

	// ceil(14 * 1.5) = 21
	assert.Equal(t, 21, rv.IntervalDays)
	assert.Equal(t, 6, rv.Reps)
	assert.Equal(t, models.StatusMature, rv.Status)
}

func TestGradeHardOddInterval(t *testing.T) {
	store := newFakeStore()
	s := newScheduler(store, "2026-03-01")
	require.NoError(t, store.Ensure(context.Background(), 1, 10, "2026-03-01"))
	store.rows[10].IntervalDays = 3

	rv, err := s.Grade(context.Background(), 1, 10, GradeHard)
	require.NoError(t, err)
	assert.Equal(t, 5, rv.IntervalDays) // ceil(4.5)
}

func TestGradeAgainResetsToToday(t *testing.T) {
	store := newFakeStore()
	s := newScheduler(store, "2026-03-01")
	require.NoError(t, store.Ensure(context.Background(), 1, 10, "2026-03-01"))
	store.rows[10].Status = models.StatusLearning
	store.rows[10].IntervalDays = 8
	store.rows[10].Reps = 3

	rv, err := s.Grade(context.Background(), 1, 10, GradeAgain)
	require.NoError(t, err)

	assert.Equal(t, 1, rv.IntervalDays)
	assert.Equal(t, "2026-03-01", rv.DueDate)
	assert.Equal(t, 3, rv.Reps) // reps unchanged on a lapse
	assert.Equal(t, 1, rv.Lapses)
	assert.Equal(t, models.StatusLearning, rv.Status)
}

func TestUndoRestoresExactlyOnce(t *testing.T) {
	store := newFakeStore()
	s := newScheduler(store, "2026-03-01")
	require.NoError(t, store.Ensure(context.Background(), 1, 10, "2026-03-01"))
	store.rows[10].Status = models.StatusLearning
	store.rows[10].IntervalDays = 6
	store.rows[10].Reps = 2
	store.rows[10].Lapses = 1
	before := *store.rows[10]

	_, err := s.Grade(context.Background(), 1, 10, GradeGood)
	require.NoError(t, err)

	ok, err := s.Undo(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := store.Get(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.IntervalDays, after.IntervalDays)
	assert.Equal(t, before.DueDate, after.DueDate)
	assert.Equal(t, before.Reps, after.Reps)
	assert.Equal(t, before.Lapses, after.Lapses)

	// second undo has nothing to restore
	ok, err = s.Undo(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsureIsIdempotent(t *testing.T) {
	store := newFakeStore()
	s := newScheduler(store, "2026-03-01")

	require.NoError(t, s.Ensure(context.Background(), 1, 10))
	_, err := s.Grade(context.Background(), 1, 10, GradeGood)
	require.NoError(t, err)
	require.NoError(t, s.Ensure(context.Background(), 1, 10))

	rv, err := store.Get(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, rv.Reps, "ensure must not reset graded state")
}

func TestMarkMastered(t *testing.T) {
	store := newFakeStore()
	s := newScheduler(store, "2026-03-01")

	require.NoError(t, s.MarkMastered(context.Background(), 1, 10))

	rv, err := store.Get(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMature, rv.Status)
	assert.Equal(t, 3650, rv.IntervalDays)
	assert.Equal(t, 1, rv.Reps)
}

func TestNextDuePrunesStaleRows(t *testing.T) {
	store := newFakeStore()
	resolver := &fakeResolver{inactive: map[int64]bool{10: true}}
	s := New(store, resolver, fixedClock("2026-03-01"))
	require.NoError(t, store.Ensure(context.Background(), 1, 10, "2026-02-20"))
	require.NoError(t, store.Ensure(context.Background(), 1, 11, "2026-02-25"))

	rv, err := s.NextDue(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, rv)
	assert.Equal(t, int64(11), rv.ItemID)

	_, still := store.rows[10]
	assert.False(t, still, "stale row should be deleted during selection")
}

func TestDueCountSkipsStaleRows(t *testing.T) {
	store := newFakeStore()
	resolver := &fakeResolver{inactive: map[int64]bool{10: true}}
	s := New(store, resolver, fixedClock("2026-03-01"))
	require.NoError(t, store.Ensure(context.Background(), 1, 10, "2026-02-20"))
	require.NoError(t, store.Ensure(context.Background(), 1, 11, "2026-02-25"))

	n, err := s.DueCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "a row for a removed item must not count")

	_, still := store.rows[10]
	assert.False(t, still, "stale row should be deleted while counting")
}

func TestNextDueEmptyQueue(t *testing.T) {
	store := newFakeStore()
	s := newScheduler(store, "2026-03-01")

	rv, err := s.NextDue(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, rv)
}

func TestNextDueOrdersByDueDate(t *testing.T) {
	store := newFakeStore()
	s := newScheduler(store, "2026-03-01")
	require.NoError(t, store.Ensure(context.Background(), 1, 20, "2026-02-28"))
	require.NoError(t, store.Ensure(context.Background(), 1, 21, "2026-02-10"))

	rv, err := s.NextDue(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, rv)
	assert.Equal(t, int64(21), rv.ItemID)
}
