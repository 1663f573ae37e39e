package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

const systemPrompt = "You are an Italian language tutor for English speakers. " +
	"Answer with compact JSON only, no markdown fences."

const defaultModel = "gpt-4o-mini"

// OpenAI generates feedback through the chat completions API
type OpenAI struct {
	client *openai.Client
	model  string
	log    *zap.Logger
}

// NewOpenAI creates a generator backed by the OpenAI API
func NewOpenAI(apiKey, model string, log *zap.Logger) *OpenAI {
	if model == "" {
		model = defaultModel
	}
	return &OpenAI{client: openai.NewClient(apiKey), model: model, log: log}
}

func (o *OpenAI) complete(ctx context.Context, prompt string, out any) error {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   220,
		Temperature: 0.6,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to call completion API: %v", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("completion API returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse completion payload: %v", err)
	}
	return nil
}

// QuizContext asks for one natural sentence using the item's term
func (o *OpenAI) QuizContext(ctx context.Context, item models.Item) (QuizContext, error) {
	prompt := fmt.Sprintf(
		"Write one short everyday Italian sentence (max 12 words) that naturally uses '%s' (meaning: %s). "+
			`Reply as {"context_sentence": "..."}`,
		item.Term, item.Translation,
	)
	var qc QuizContext
	if err := o.complete(ctx, prompt, &qc); err != nil {
		o.log.Warn("quiz context generation failed", zap.Int64("item_id", item.ID), zap.Error(err))
		return QuizContext{}, err
	}
	if qc.ContextSentence == "" {
		return QuizContext{}, fmt.Errorf("completion payload missing context sentence")
	}
	return qc, nil
}

// SentenceFeedback reviews a learner sentence that should use the item's term
func (o *OpenAI) SentenceFeedback(ctx context.Context, item models.Item, sentence string) (Feedback, error) {
	prompt := fmt.Sprintf(
		"A learner was asked to use '%s' (meaning: %s) in an Italian sentence and wrote: %q. "+
			"Praise briefly, correct only real mistakes, add one short usage tip. "+
			`Reply as {"praise": "...", "correction": "", "tip": "..."} with correction empty when the sentence is fine.`,
		item.Term, item.Translation, sentence,
	)
	var fb Feedback
	if err := o.complete(ctx, prompt, &fb); err != nil {
		o.log.Warn("sentence feedback generation failed", zap.Int64("item_id", item.ID), zap.Error(err))
		return Feedback{}, err
	}
	return fb, nil
}

// RoleplayFeedback reviews a learner reply inside a scripted scene turn
func (o *OpenAI) RoleplayFeedback(ctx context.Context, turn models.SceneTurn, sentence string) (Feedback, error) {
	prompt := fmt.Sprintf(
		"In an Italian roleplay, the other person said: %q. The expected learner move was: %q. "+
			"The learner replied: %q. Praise briefly, correct only real mistakes, add one short tip. "+
			`Reply as {"praise": "...", "correction": "", "tip": "..."}`,
		turn.NPCLine, turn.ExpectedPhrase, sentence,
	)
	var fb Feedback
	if err := o.complete(ctx, prompt, &fb); err != nil {
		o.log.Warn("roleplay feedback generation failed", zap.Error(err))
		return Feedback{}, err
	}
	return fb, nil
}
