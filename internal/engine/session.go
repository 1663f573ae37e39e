package engine

import (
	"encoding/json"
	"fmt"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// Mode is the top-level flow a user is in
type Mode string

const (
	ModeLearn  Mode = "learn"
	ModeReview Mode = "review"
)

// Stage is the step within a flow that the next inbound turn resumes
type Stage string

const (
	StageAwaitGuess    Stage = "await_guess"    // multiple-choice answer expected
	StageAwaitSentence Stage = "await_sentence" // free sentence with the new word expected
	StageSceneTurn     Stage = "scene_turn"     // reply inside a roleplay scene expected
	StageAwaitAnswer   Stage = "await_answer"   // free review answer expected
	StageAwaitGrade    Stage = "await_grade"    // 0-5 self-grade expected
	StagePending       Stage = "pending"        // retry-or-skip after a collaborator failure
)

var validStages = map[Mode]map[Stage]bool{
	ModeLearn: {
		StageAwaitGuess:    true,
		StageAwaitSentence: true,
		StageSceneTurn:     true,
		StagePending:       true,
	},
	ModeReview: {
		StageAwaitGuess:  true,
		StageAwaitAnswer: true,
		StageAwaitGrade:  true,
		StagePending:     true,
	},
}

// Review sub-modes, chosen per item when it is presented
const (
	subModeRecognition = "recognition"
	subModeProduction  = "production"
	subModeSituational = "situational"
)

// Pending collaborator operations
const (
	opQuizContext      = "quiz_context"
	opSentenceFeedback = "sentence_feedback"
	opRoleplayFeedback = "roleplay_feedback"
)

// QuizPayload is the multiple-choice card currently on screen
type QuizPayload struct {
	ContextSentence string   `json:"context_sentence,omitempty"`
	Term            string   `json:"term"`
	Meaning         string   `json:"meaning"`
	Options         []string `json:"options"`
	CorrectIndex    int      `json:"correct_index"`
}

// ChunkEntry is one phrase-focus item accumulated toward a mission
type ChunkEntry struct {
	ItemID int64  `json:"item_id"`
	Term   string `json:"term"`
}

// SceneCursor walks the turns of a running roleplay scene.
// ScenarioID is empty for ad-hoc fallback scenes.
type SceneCursor struct {
	ScenarioID string             `json:"scenario_id,omitempty"`
	Title      string             `json:"title,omitempty"`
	Goal       string             `json:"goal,omitempty"`
	PackID     string             `json:"pack_id,omitempty"`
	Turns      []models.SceneTurn `json:"turns"`
	Idx        int                `json:"idx"`
}

// TriggerState holds the session-scoped mission-trigger counters
type TriggerState struct {
	Streak          int            `json:"streak"`
	Errors          map[string]int `json:"errors,omitempty"` // item id -> wrong answers
	ErrorFlagged    bool           `json:"error_flagged,omitempty"`
	PhaseNew        bool           `json:"phase_new,omitempty"`
	PhasesSeen      []string       `json:"phases_seen,omitempty"`
	LastMissionUnix int64          `json:"last_mission_unix"`
	MissionsShown   int            `json:"missions_shown"`
}

// PendingOp preserves a failed collaborator call for retry-or-skip.
// Input carries the user's text exactly as submitted.
type PendingOp struct {
	Op    string `json:"op"`
	Input string `json:"input,omitempty"`
	Stage Stage  `json:"stage"` // stage the flow resumes at once resolved
}

// DueWalk tracks position in today's review queue
type DueWalk struct {
	Total int `json:"total"`
	Index int `json:"index"`
}

// SessionMeta is everything a multi-turn flow needs to survive a process
// restart. It round-trips through the session row's meta_json column.
type SessionMeta struct {
	PackID      string       `json:"pack_id,omitempty"`
	Quiz        *QuizPayload `json:"quiz,omitempty"`
	Chunk       []ChunkEntry `json:"chunk,omitempty"`
	ChunkCap    int          `json:"chunk_cap,omitempty"`
	Scene       *SceneCursor `json:"scene,omitempty"`
	PausedScene *SceneCursor `json:"paused_scene,omitempty"`
	Trigger     TriggerState `json:"trigger"`
	Pending     *PendingOp   `json:"pending,omitempty"`
	Due         *DueWalk     `json:"due,omitempty"`
	SubMode     string       `json:"sub_mode,omitempty"`
}

func decodeMeta(s *models.Session) (*SessionMeta, error) {
	meta := &SessionMeta{}
	if s != nil && s.MetaJSON.Valid && s.MetaJSON.String != "" {
		if err := json.Unmarshal([]byte(s.MetaJSON.String), meta); err != nil {
			return nil, fmt.Errorf("failed to decode session meta: %v", err)
		}
	}
	return meta, nil
}

func encodeMeta(meta *SessionMeta) (string, error) {
	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode session meta: %v", err)
	}
	return string(data), nil
}

// addChunk appends a phrase item to the bounded chunk buffer,
// deduplicating by item id and evicting the oldest entry when full
func (m *SessionMeta) addChunk(itemID int64, term string, capacity int) {
	for _, c := range m.Chunk {
		if c.ItemID == itemID {
			return
		}
	}
	m.Chunk = append(m.Chunk, ChunkEntry{ItemID: itemID, Term: term})
	if capacity < 1 {
		capacity = 1
	}
	for len(m.Chunk) > capacity {
		m.Chunk = m.Chunk[1:]
	}
}

func (m *SessionMeta) chunkTerms() []string {
	terms := make([]string, 0, len(m.Chunk))
	for _, c := range m.Chunk {
		terms = append(terms, c.Term)
	}
	return terms
}
