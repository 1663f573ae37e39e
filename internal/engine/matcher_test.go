package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aramushaa/LingoDojo/internal/textcheck"
	"github.com/Aramushaa/LingoDojo/pkg/models"
)

func scenario(id string, required ...string) models.Scenario {
	return models.Scenario{
		ID:              id,
		PackKey:         "airport_a1",
		Title:           id,
		RequiredPhrases: required,
		Turns:           []models.SceneTurn{{NPCLine: "Prego?"}},
	}
}

func TestSelectScenarioPrefersChunkCoverage(t *testing.T) {
	scenarios := []models.Scenario{
		scenario("learned_only", "il passaporto"),
		scenario("chunk_covered", "vorrei fare il check-in"),
	}
	chunk := []string{"vorrei fare il check-in"}
	learned := []string{"il passaporto", "vorrei fare il check-in"}

	got := selectScenario(scenarios, map[string]bool{}, chunk, learned)
	require.NotNil(t, got)
	assert.Equal(t, "chunk_covered", got.ID)
}

func TestSelectScenarioFallsBackToLearned(t *testing.T) {
	scenarios := []models.Scenario{scenario("s1", "il passaporto", "la carta d'imbarco")}
	learned := []string{"Il Passaporto", "la carta d'imbarco"}

	got := selectScenario(scenarios, map[string]bool{}, nil, learned)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.ID)
}

func TestSelectScenarioSkipsCompleted(t *testing.T) {
	scenarios := []models.Scenario{
		scenario("done", "vorrei un caffè"),
		scenario("fresh", "vorrei un caffè"),
	}
	chunk := []string{"vorrei un caffè"}

	got := selectScenario(scenarios, map[string]bool{"done": true}, chunk, nil)
	require.NotNil(t, got)
	assert.Equal(t, "fresh", got.ID)
}

func TestSelectScenarioNormalizesAccents(t *testing.T) {
	scenarios := []models.Scenario{scenario("s1", "perché no")}
	got := selectScenario(scenarios, map[string]bool{}, []string{"PERCHE   no!"}, nil)
	assert.NotNil(t, got)
}

func TestSelectScenarioNoneQualifies(t *testing.T) {
	scenarios := []models.Scenario{scenario("s1", "una frase mai vista")}
	got := selectScenario(scenarios, map[string]bool{}, []string{"altro"}, []string{"altro ancora"})
	assert.Nil(t, got)
}

func TestSelectScenarioIgnoresEmptyRequirements(t *testing.T) {
	// a scenario with no prerequisites never auto-matches
	scenarios := []models.Scenario{scenario("open_ended")}
	got := selectScenario(scenarios, map[string]bool{}, []string{"ciao"}, []string{"ciao"})
	assert.Nil(t, got)
}

func TestSelectScenarioRequiredSubsetProperty(t *testing.T) {
	scenarios := []models.Scenario{
		scenario("a", "frase uno", "frase due"),
		scenario("b", "frase tre"),
	}
	chunk := []string{"frase tre"}
	learned := []string{"frase uno"}

	got := selectScenario(scenarios, map[string]bool{}, chunk, learned)
	require.NotNil(t, got)

	pool := normSet(append(chunk, learned...))
	for _, r := range got.RequiredPhrases {
		assert.True(t, pool[textcheck.Normalize(r)],
			"every required phrase of the chosen scenario must be covered")
	}
}

func TestFallbackSceneFromChunk(t *testing.T) {
	chunk := []ChunkEntry{{ItemID: 1, Term: "vorrei un caffè"}, {ItemID: 2, Term: "il conto, per favore"}}

	scene := fallbackScene(chunk, "it_bar_a1")
	require.NotNil(t, scene)
	assert.Empty(t, scene.ScenarioID, "fallback scenes never record completions")
	require.Len(t, scene.Turns, 2)
	assert.Equal(t, "il conto, per favore", scene.Turns[0].ExpectedPhrase)
	assert.Equal(t, "vorrei un caffè", scene.Turns[1].ExpectedPhrase)
}

func TestFallbackSceneNeedsChunk(t *testing.T) {
	assert.Nil(t, fallbackScene(nil, "p"))
}
