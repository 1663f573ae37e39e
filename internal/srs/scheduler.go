// Package srs implements the simplified spaced-repetition model:
// three review states (new, learning, mature), day-granular intervals,
// a three-way grade and a one-level undo.
package srs

import (
	"context"
	"time"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// Grade is the compressed recall outcome of one review turn
type Grade string

const (
	GradeAgain Grade = "again"
	GradeHard  Grade = "hard"
	GradeGood  Grade = "good"
)

// FromQuality compresses a 0-5 self-assessment into a Grade
func FromQuality(quality int) Grade {
	switch {
	case quality <= 1:
		return GradeAgain
	case quality <= 3:
		return GradeHard
	default:
		return GradeGood
	}
}

// Maturity thresholds. An item graduates to mature when it has been
// repeated enough times AND its next interval is long enough.
const (
	goodMatureReps     = 5
	goodMatureInterval = 16
	hardMatureReps     = 6
	hardMatureInterval = 20
	masteredInterval   = 3650
)

// Store persists per-(user, item) review state
type Store interface {
	Ensure(ctx context.Context, userID, itemID int64, today string) error
	Get(ctx context.Context, userID, itemID int64) (*models.Review, error)
	ApplyGrade(ctx context.Context, userID, itemID int64, status string, intervalDays int, dueDate, reviewedAt string, reps, lapses int) error
	Undo(ctx context.Context, userID, itemID int64) (bool, error)
	DueList(ctx context.Context, userID int64, today string, limit int) ([]models.Review, error)
	DueCount(ctx context.Context, userID int64, today string) (int, error)
	Delete(ctx context.Context, userID, itemID int64) error
}

// Resolver answers whether an item id still refers to live content.
// Review rows whose items are gone get pruned during selection.
type Resolver interface {
	IsItemActive(ctx context.Context, userID, itemID int64) (bool, error)
}

// Clock supplies the current time; injectable for tests
type Clock func() time.Time

// Scheduler owns review-state transitions and due-item selection
type Scheduler struct {
	store    Store
	resolver Resolver
	clock    Clock
}

// New creates a scheduler. A nil clock means time.Now.
func New(store Store, resolver Resolver, clock Clock) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{store: store, resolver: resolver, clock: clock}
}

// Today returns the scheduler's current date as YYYY-MM-DD
func (s *Scheduler) Today() string {
	return s.clock().Format("2006-01-02")
}

// Ensure creates the review row on first exposure; idempotent
func (s *Scheduler) Ensure(ctx context.Context, userID, itemID int64) error {
	return s.store.Ensure(ctx, userID, itemID, s.Today())
}

// Next computes the state transition for one grade. Pure.
func Next(rv models.Review, grade Grade, today time.Time) (status string, intervalDays int, dueDate string, reps, lapses int) {
	reps = rv.Reps
	lapses = rv.Lapses

	switch grade {
	case GradeAgain:
		intervalDays = 1
		lapses++
		status = models.StatusLearning
		dueDate = today.Format("2006-01-02")
		return
	case GradeHard:
		if rv.IntervalDays < 1 {
			intervalDays = 1
		} else {
			intervalDays = (rv.IntervalDays*3 + 1) / 2 // ceil(1.5x)
		}
		reps++
		if reps >= hardMatureReps && intervalDays >= hardMatureInterval {
			status = models.StatusMature
		} else {
			status = models.StatusLearning
		}
	default: // good
		if rv.IntervalDays < 1 {
			intervalDays = 1
		} else {
			intervalDays = rv.IntervalDays * 2
		}
		reps++
		if reps >= goodMatureReps && intervalDays >= goodMatureInterval {
			status = models.StatusMature
		} else {
			status = models.StatusLearning
		}
	}

	dueDate = today.AddDate(0, 0, intervalDays).Format("2006-01-02")
	return
}

// Grade applies one graded recall to the item's review state and returns
// the updated row. The previous state is snapshotted for undo.
func (s *Scheduler) Grade(ctx context.Context, userID, itemID int64, grade Grade) (*models.Review, error) {
	if err := s.Ensure(ctx, userID, itemID); err != nil {
		return nil, err
	}
	rv, err := s.store.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	status, interval, due, reps, lapses := Next(*rv, grade, now)
	reviewedAt := now.Format(time.RFC3339)
	if err := s.store.ApplyGrade(ctx, userID, itemID, status, interval, due, reviewedAt, reps, lapses); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, userID, itemID)
}

// MarkMastered pushes the item far into the future. Used by Learn skip.
func (s *Scheduler) MarkMastered(ctx context.Context, userID, itemID int64) error {
	if err := s.Ensure(ctx, userID, itemID); err != nil {
		return err
	}
	rv, err := s.store.Get(ctx, userID, itemID)
	if err != nil {
		return err
	}
	now := s.clock()
	due := now.AddDate(0, 0, masteredInterval).Format("2006-01-02")
	return s.store.ApplyGrade(ctx, userID, itemID, models.StatusMature, masteredInterval, due, now.Format(time.RFC3339), rv.Reps+1, rv.Lapses)
}

// Undo reverts the last grade exactly once. The second call for the same
// grade reports false without an error.
func (s *Scheduler) Undo(ctx context.Context, userID, itemID int64) (bool, error) {
	return s.store.Undo(ctx, userID, itemID)
}

// DueCount returns the size of today's backlog. Rows whose items were
// removed do not count; they are deleted on the way so walk totals and
// the stored count agree.
func (s *Scheduler) DueCount(ctx context.Context, userID int64) (int, error) {
	today := s.Today()
	total, err := s.store.DueCount(ctx, userID, today)
	if err != nil || total == 0 {
		return total, err
	}
	due, err := s.store.DueList(ctx, userID, today, total)
	if err != nil {
		return 0, err
	}
	live := 0
	for i := range due {
		active, err := s.resolver.IsItemActive(ctx, userID, due[i].ItemID)
		if err != nil {
			return 0, err
		}
		if !active {
			if err := s.store.Delete(ctx, userID, due[i].ItemID); err != nil {
				return 0, err
			}
			continue
		}
		live++
	}
	return live, nil
}

// NextDue returns the earliest-due review whose item still exists,
// silently deleting rows that reference removed items along the way.
// Returns nil when the queue is empty.
func (s *Scheduler) NextDue(ctx context.Context, userID int64) (*models.Review, error) {
	const batch = 50
	for {
		due, err := s.store.DueList(ctx, userID, s.Today(), batch)
		if err != nil {
			return nil, err
		}
		if len(due) == 0 {
			return nil, nil
		}
		pruned := 0
		for i := range due {
			active, err := s.resolver.IsItemActive(ctx, userID, due[i].ItemID)
			if err != nil {
				return nil, err
			}
			if active {
				return &due[i], nil
			}
			if err := s.store.Delete(ctx, userID, due[i].ItemID); err != nil {
				return nil, err
			}
			pruned++
		}
		// whole batch was stale; a shorter-than-batch list means done
		if pruned < batch {
			return nil, nil
		}
	}
}
