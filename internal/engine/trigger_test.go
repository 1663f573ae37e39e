package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

func triggerTime(offset time.Duration) time.Time {
	base, _ := time.Parse("2006-01-02", "2026-03-01")
	return base.Add(offset)
}

func baseState(now time.Time) TriggerState {
	return TriggerState{LastMissionUnix: now.Unix()}
}

func TestTriggerRequiresCandidate(t *testing.T) {
	now := triggerTime(0)
	st := baseState(now)
	st.Streak = 10

	fire, _ := shouldTrigger(DefaultConfig(), st, models.LevelB1, now, false)
	assert.False(t, fire)
}

func TestTriggerStreakBoundary(t *testing.T) {
	now := triggerTime(0)
	st := baseState(now)

	st.Streak = 2
	fire, _ := shouldTrigger(DefaultConfig(), st, models.LevelB1, now, true)
	assert.False(t, fire, "streak below threshold must not fire")

	st.Streak = 3
	fire, reason := shouldTrigger(DefaultConfig(), st, models.LevelB1, now, true)
	assert.True(t, fire)
	assert.Equal(t, fireStreak, reason)
}

func TestTriggerErrorFlag(t *testing.T) {
	now := triggerTime(0)
	meta := &SessionMeta{Trigger: baseState(now)}

	meta.noteAnswer(5, false, 2)
	fire, _ := shouldTrigger(DefaultConfig(), meta.Trigger, models.LevelB1, now, true)
	assert.False(t, fire, "one error is not enough")

	meta.noteAnswer(5, false, 2)
	fire, reason := shouldTrigger(DefaultConfig(), meta.Trigger, models.LevelB1, now, true)
	assert.True(t, fire)
	assert.Equal(t, fireErrors, reason)
}

func TestTriggerElapsedGap(t *testing.T) {
	start := triggerTime(0)
	st := baseState(start)

	fire, _ := shouldTrigger(DefaultConfig(), st, models.LevelB1, triggerTime(239*time.Second), true)
	assert.False(t, fire)

	fire, reason := shouldTrigger(DefaultConfig(), st, models.LevelB1, triggerTime(240*time.Second), true)
	assert.True(t, fire)
	assert.Equal(t, fireGap, reason)
}

func TestTriggerNewPhase(t *testing.T) {
	now := triggerTime(0)
	meta := &SessionMeta{Trigger: baseState(now)}

	meta.notePhase("checkin")
	fire, reason := shouldTrigger(DefaultConfig(), meta.Trigger, models.LevelB1, now, true)
	assert.True(t, fire)
	assert.Equal(t, firePhase, reason)

	// same phase again is not a new sighting
	meta.noteMissionShown(now)
	meta.notePhase("checkin")
	fire, _ = shouldTrigger(DefaultConfig(), meta.Trigger, models.LevelB1, now, true)
	assert.False(t, fire)
}

func TestTriggerMonotone(t *testing.T) {
	// adding signals on top of a firing state never suppresses the fire
	now := triggerTime(300 * time.Second)
	st := baseState(triggerTime(0))
	st.Streak = 3

	fire, _ := shouldTrigger(DefaultConfig(), st, models.LevelB1, now, true)
	assert.True(t, fire)

	st.ErrorFlagged = true
	st.PhaseNew = true
	fire, _ = shouldTrigger(DefaultConfig(), st, models.LevelB1, now, true)
	assert.True(t, fire)
}

func TestTriggerLevelCaps(t *testing.T) {
	now := triggerTime(0)
	tests := []struct {
		level string
		cap   int
	}{
		{models.LevelA1, 2},
		{models.LevelA2, 3},
		{models.LevelB1, 4},
		{models.LevelC1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			st := baseState(now)
			st.Streak = 5
			st.MissionsShown = tt.cap - 1
			fire, _ := shouldTrigger(DefaultConfig(), st, tt.level, now, true)
			assert.True(t, fire, "below the cap the session still gets missions")

			st.MissionsShown = tt.cap
			fire, _ = shouldTrigger(DefaultConfig(), st, tt.level, now, true)
			assert.False(t, fire, "at the cap nothing fires regardless of signals")
		})
	}
}

func TestNoteMissionShownResets(t *testing.T) {
	now := triggerTime(400 * time.Second)
	meta := &SessionMeta{Trigger: baseState(triggerTime(0))}
	meta.Trigger.ErrorFlagged = true
	meta.Trigger.PhaseNew = true

	meta.noteMissionShown(now)

	assert.Equal(t, now.Unix(), meta.Trigger.LastMissionUnix)
	assert.Equal(t, 1, meta.Trigger.MissionsShown)
	assert.False(t, meta.Trigger.ErrorFlagged)
	assert.False(t, meta.Trigger.PhaseNew)
}

func TestChunkBufferBounded(t *testing.T) {
	meta := &SessionMeta{}
	meta.addChunk(1, "uno", 2)
	meta.addChunk(2, "due", 2)
	meta.addChunk(2, "due", 2) // dedupe
	meta.addChunk(3, "tre", 2) // evicts oldest

	assert.Equal(t, []string{"due", "tre"}, meta.chunkTerms())
}
