package models

// SceneTurn is one scripted exchange inside a scenario
type SceneTurn struct {
	NPCLine        string `json:"npc_line"`
	Task           string `json:"task"`
	ExpectedPhrase string `json:"expected_phrase"` // empty means any acceptable sentence advances
}

// Scenario is a short roleplay mission tied to a pack theme
type Scenario struct {
	ID              string      `json:"scenario_id"`
	PackKey         string      `json:"pack_key"`
	Title           string      `json:"title"`
	Setting         string      `json:"setting"`
	Goal            string      `json:"goal"`
	RequiredPhrases []string    `json:"required_phrases"`
	Turns           []SceneTurn `json:"turns"`
}
