package models

// Pack is a themed collection of learnable items
type Pack struct {
	ID             string `json:"id" db:"pack_id"`
	TargetLanguage string `json:"target_language" db:"target_language"`
	Level          string `json:"level" db:"level"` // CEFR level, orders packs lexically (A1 < A2 < B1 ...)
	Title          string `json:"title" db:"title"`
	Description    string `json:"description" db:"description"`
	ChunkSize      int    `json:"chunk_size" db:"chunk_size"` // phrase-chunk buffer capacity for this pack
}

// Item focus values
const (
	FocusWord   = "word"
	FocusPhrase = "phrase"
)

// Item is a single learnable unit inside a pack
type Item struct {
	ID              int64  `json:"id" db:"item_id"`
	PackID          string `json:"pack_id" db:"pack_id"`
	Term            string `json:"term" db:"term"`
	Translation     string `json:"translation" db:"translation"`
	Focus           string `json:"focus" db:"focus"` // word or phrase
	Phase           string `json:"phase" db:"phase"` // learning phase label, e.g. "checkin"
	Register        string `json:"register" db:"register"`
	Risk            string `json:"risk" db:"risk"` // common learner trap, optional
	CulturalNote    string `json:"cultural_note" db:"cultural_note"`
	ScenarioPrompt  string `json:"scenario_prompt" db:"scenario_prompt"` // situational prompt for mature-item review
	ContextSentence string `json:"context_sentence" db:"context_sentence"`
}
