package engine

import (
	"context"

	"github.com/Aramushaa/LingoDojo/internal/feedback"
	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// Advance routes a free-text message into whatever the live session is
// waiting for. With no session it answers neutrally.
func (e *Engine) Advance(ctx context.Context, userID int64, input string) (*Reply, error) {
	session, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return textReply("Nothing in progress. Start with /learn or /review."), nil
	}
	meta, err := decodeMeta(session)
	if err != nil {
		return nil, err
	}

	stage := Stage(session.Stage)
	mode := Mode(session.Mode)

	switch {
	case stage == StagePending:
		return &Reply{
			Text:    "One thing at a time — decide what to do with the stalled step first.",
			Options: retryOptions(),
		}, nil
	case mode == ModeLearn && stage == StageAwaitSentence:
		item, reply, err := e.sessionItem(ctx, userID, session)
		if item == nil {
			return reply, err
		}
		return e.handleSentence(ctx, userID, item, meta, input)
	case mode == ModeLearn && stage == StageSceneTurn:
		return e.handleSceneTurn(ctx, userID, meta, input)
	case mode == ModeReview && stage == StageAwaitAnswer:
		item, reply, err := e.sessionItem(ctx, userID, session)
		if item == nil {
			return reply, err
		}
		return e.handleReviewAnswer(ctx, userID, item, meta, input)
	case stage == StageAwaitGuess:
		return textReply("Use the A/B/C buttons on the card above."), nil
	case stage == StageAwaitGrade:
		return textReply("Grade yourself first — tap one of the 0-5 buttons."), nil
	}
	return replyStartOver(), nil
}

// sessionItem resolves the session's item, clearing the session when the
// item has disappeared from under it
func (e *Engine) sessionItem(ctx context.Context, userID int64, session *models.Session) (*models.Item, *Reply, error) {
	if !session.ItemID.Valid || session.ItemID.Int64 == 0 {
		if err := e.sessions.Clear(ctx, userID); err != nil {
			return nil, nil, err
		}
		return nil, replyStartOver(), nil
	}
	item, err := e.content.GetItem(ctx, session.ItemID.Int64)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		if err := e.sessions.Clear(ctx, userID); err != nil {
			return nil, nil, err
		}
		return nil, textReply("That item is no longer available. Use /learn or /review to continue."), nil
	}
	return item, nil, nil
}

// ResolvePending finishes a stalled collaborator step: retry re-runs the
// exact call with the preserved input, skip substitutes the local
// fallback so the flow never blocks on an outage.
func (e *Engine) ResolvePending(ctx context.Context, userID int64, retry bool) (*Reply, error) {
	session, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil || Stage(session.Stage) != StagePending {
		return replyStartOver(), nil
	}
	meta, err := decodeMeta(session)
	if err != nil {
		return nil, err
	}
	if meta.Pending == nil {
		return replyStartOver(), nil
	}
	mode := Mode(session.Mode)
	pending := *meta.Pending

	switch pending.Op {
	case opQuizContext:
		item, reply, err := e.sessionItem(ctx, userID, session)
		if item == nil {
			return reply, err
		}
		if !retry {
			// template quiz from stored content
			meta.Pending = nil
			return e.finishQuizCard(ctx, userID, mode, item, meta, "", "")
		}
		qc, err := e.gen.QuizContext(ctx, *item)
		if err != nil {
			return e.stillFailing()
		}
		meta.Pending = nil
		return e.finishQuizCard(ctx, userID, mode, item, meta, "", qc.ContextSentence)

	case opSentenceFeedback:
		item, reply, err := e.sessionItem(ctx, userID, session)
		if item == nil {
			return reply, err
		}
		fb := feedback.Feedback{Unavailable: true}
		if retry {
			fb, err = e.gen.SentenceFeedback(ctx, *item, pending.Input)
			if err != nil {
				return e.stillFailing()
			}
		}
		meta.Pending = nil
		if mode == ModeReview {
			return e.toGradePrompt(ctx, userID, item, meta, formatFeedback(fb, "Noted. 📝"))
		}
		return e.presentNextLearnCard(ctx, userID, meta, formatFeedback(fb, "Nice! 👍")+"\n\n")

	case opRoleplayFeedback:
		if meta.Scene == nil || meta.Scene.Idx >= len(meta.Scene.Turns) {
			if err := e.sessions.Clear(ctx, userID); err != nil {
				return nil, err
			}
			return replyStartOver(), nil
		}
		fb := feedback.Feedback{Unavailable: true}
		if retry {
			turn := meta.Scene.Turns[meta.Scene.Idx]
			fb, err = e.gen.RoleplayFeedback(ctx, turn, pending.Input)
			if err != nil {
				return e.stillFailing()
			}
		}
		meta.Pending = nil
		return e.advanceScene(ctx, userID, meta, formatFeedback(fb, "Perfetto! 👏"))
	}
	return replyStartOver(), nil
}

func (e *Engine) stillFailing() (*Reply, error) {
	return &Reply{
		Text:    "⚠️ Still no luck reaching the service. Try again or skip.",
		Options: retryOptions(),
	}, nil
}

// Hint gives a stage-aware nudge read straight from the live session
func (e *Engine) Hint(ctx context.Context, userID int64) (*Reply, error) {
	session, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return textReply("No hint without a task. Start with /learn or /review."), nil
	}
	meta, err := decodeMeta(session)
	if err != nil {
		return nil, err
	}

	switch Stage(session.Stage) {
	case StageAwaitGuess:
		if meta.Quiz != nil && meta.Quiz.Meaning != "" {
			runes := []rune(meta.Quiz.Meaning)
			return textReply("💡 The meaning starts with “%s…”", string(runes[0])), nil
		}
	case StageAwaitSentence, StageAwaitAnswer:
		if meta.Quiz != nil && meta.Quiz.ContextSentence != "" {
			return textReply("💡 For inspiration: _%s_", meta.Quiz.ContextSentence), nil
		}
		if session.ItemID.Valid {
			if item, err := e.content.GetItem(ctx, session.ItemID.Int64); err == nil && item != nil {
				return textReply("💡 Remember, *%s* means “%s”.", item.Term, item.Translation), nil
			}
		}
	case StageSceneTurn:
		if meta.Scene != nil && meta.Scene.Idx < len(meta.Scene.Turns) {
			if exp := meta.Scene.Turns[meta.Scene.Idx].ExpectedPhrase; exp != "" {
				return textReply("💡 The key phrase is: _%s_", exp), nil
			}
		}
	}
	return textReply("No hint for this step — trust yourself."), nil
}
