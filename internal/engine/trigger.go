package engine

import (
	"strconv"
	"time"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// Trigger fire reasons, kept for logging
const (
	fireStreak = "streak"
	fireErrors = "errors"
	fireGap    = "gap"
	firePhase  = "phase"
)

// noteAnswer folds one graded quiz answer into the trigger counters.
// A wrong answer resets the streak and counts against the item; the item
// is flagged the moment it reaches the error threshold.
func (m *SessionMeta) noteAnswer(itemID int64, correct bool, errorsToFlag int) {
	st := &m.Trigger
	if correct {
		st.Streak++
		return
	}
	st.Streak = 0
	if st.Errors == nil {
		st.Errors = map[string]int{}
	}
	key := strconv.FormatInt(itemID, 10)
	st.Errors[key]++
	if st.Errors[key] == errorsToFlag {
		st.ErrorFlagged = true
	}
}

// notePhase records the first sighting of a learning phase this session
func (m *SessionMeta) notePhase(phase string) {
	if phase == "" {
		return
	}
	for _, p := range m.Trigger.PhasesSeen {
		if p == phase {
			return
		}
	}
	m.Trigger.PhasesSeen = append(m.Trigger.PhasesSeen, phase)
	m.Trigger.PhaseNew = true
}

// missionCap limits how many missions a session may show, by CEFR level
func missionCap(cfg Config, level string) int {
	switch level {
	case models.LevelA1:
		return cfg.MissionCapA1
	case models.LevelA2:
		return cfg.MissionCapA2
	default:
		return cfg.MissionCapDefault
	}
}

// shouldTrigger decides whether to interrupt Learn with a mission.
// Monotone in each signal: adding a signal never suppresses a fire.
// hasCandidate means the matcher (or the fallback builder) can actually
// produce a scene right now.
func shouldTrigger(cfg Config, st TriggerState, level string, now time.Time, hasCandidate bool) (bool, string) {
	if !hasCandidate {
		return false, ""
	}
	if st.MissionsShown >= missionCap(cfg, level) {
		return false, ""
	}
	switch {
	case st.Streak >= cfg.StreakToFire:
		return true, fireStreak
	case st.ErrorFlagged:
		return true, fireErrors
	case now.Unix()-st.LastMissionUnix >= int64(cfg.MissionGapSeconds):
		return true, fireGap
	case st.PhaseNew:
		return true, firePhase
	}
	return false, ""
}

// noteMissionShown resets the pacing signals after a mission fires
func (m *SessionMeta) noteMissionShown(now time.Time) {
	m.Trigger.LastMissionUnix = now.Unix()
	m.Trigger.MissionsShown++
	m.Trigger.ErrorFlagged = false
	m.Trigger.PhaseNew = false
}
