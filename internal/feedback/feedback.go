// Package feedback generates quiz contexts and corrective feedback for
// learner sentences. The engine treats it as optional: a Disabled
// generator reports Unavailable and the flows fall back to templates,
// while a transport error from a live generator surfaces as a
// retry-or-skip prompt.
package feedback

import (
	"context"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// QuizContext is a short target-language sentence using the item's term,
// shown above the multiple-choice options
type QuizContext struct {
	ContextSentence string `json:"context_sentence"`
	Unavailable     bool   `json:"-"`
}

// Feedback is the reaction to one learner sentence
type Feedback struct {
	Praise      string `json:"praise"`
	Correction  string `json:"correction"` // empty when the sentence is fine
	Tip         string `json:"tip"`
	Unavailable bool   `json:"-"`
}

// Generator produces language feedback. Implementations return an error
// only on transport failure; a generator that is switched off returns
// zero values with Unavailable set instead.
type Generator interface {
	QuizContext(ctx context.Context, item models.Item) (QuizContext, error)
	SentenceFeedback(ctx context.Context, item models.Item, sentence string) (Feedback, error)
	RoleplayFeedback(ctx context.Context, turn models.SceneTurn, sentence string) (Feedback, error)
}

// Disabled is the no-op generator used when no API key is configured
type Disabled struct{}

func (Disabled) QuizContext(context.Context, models.Item) (QuizContext, error) {
	return QuizContext{Unavailable: true}, nil
}

func (Disabled) SentenceFeedback(context.Context, models.Item, string) (Feedback, error) {
	return Feedback{Unavailable: true}, nil
}

func (Disabled) RoleplayFeedback(context.Context, models.SceneTurn, string) (Feedback, error) {
	return Feedback{Unavailable: true}, nil
}
