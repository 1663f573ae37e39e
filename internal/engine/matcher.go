package engine

import (
	"github.com/Aramushaa/LingoDojo/internal/textcheck"
	"github.com/Aramushaa/LingoDojo/pkg/models"
)

func normSet(terms []string) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		if n := textcheck.Normalize(t); n != "" {
			set[n] = true
		}
	}
	return set
}

func coveredBy(required []string, pool map[string]bool) bool {
	if len(required) == 0 {
		return false
	}
	for _, r := range required {
		if !pool[textcheck.Normalize(r)] {
			return false
		}
	}
	return true
}

// selectScenario picks the first never-completed scenario whose required
// phrases are fully covered by the current chunk; failing that, one
// covered by everything the user has learned in the pack. Returns nil
// when nothing qualifies.
func selectScenario(scenarios []models.Scenario, completed map[string]bool, chunkTerms, learnedTerms []string) *models.Scenario {
	chunkSet := normSet(chunkTerms)
	for i := range scenarios {
		s := &scenarios[i]
		if completed[s.ID] {
			continue
		}
		if coveredBy(s.RequiredPhrases, chunkSet) {
			return s
		}
	}

	learnedSet := normSet(learnedTerms)
	for i := range scenarios {
		s := &scenarios[i]
		if completed[s.ID] {
			continue
		}
		if coveredBy(s.RequiredPhrases, learnedSet) {
			return s
		}
	}
	return nil
}

// fallbackScene builds the minimal two-line scripted interaction from the
// chunk when no catalog scenario qualifies. No scenario id, so it never
// records a completion.
func fallbackScene(chunk []ChunkEntry, packID string) *SceneCursor {
	if len(chunk) == 0 {
		return nil
	}
	first := chunk[len(chunk)-1].Term
	second := chunk[0].Term
	turns := []models.SceneTurn{
		{
			NPCLine:        "Mi dica pure.",
			Task:           "Reply using: " + first,
			ExpectedPhrase: first,
		},
		{
			NPCLine:        "Va bene. Serve altro?",
			Task:           "Reply using: " + second,
			ExpectedPhrase: second,
		},
	}
	return &SceneCursor{
		Title:  "Quick practice",
		Goal:   "Use your newest phrases in a short exchange.",
		PackID: packID,
		Turns:  turns,
	}
}

// pickScene runs the matcher for the user's current pack and falls back
// to the ad-hoc scene. Returns nil only when even the fallback is
// impossible (empty chunk and no catalog match).
func (e *Engine) pickScene(scenarios []models.Scenario, completed map[string]bool, meta *SessionMeta, learnedTerms []string) *SceneCursor {
	if s := selectScenario(scenarios, completed, meta.chunkTerms(), learnedTerms); s != nil {
		return &SceneCursor{
			ScenarioID: s.ID,
			Title:      s.Title,
			Goal:       s.Goal,
			PackID:     meta.PackID,
			Turns:      s.Turns,
		}
	}
	return fallbackScene(meta.Chunk, meta.PackID)
}
