package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Aramushaa/LingoDojo/internal/srs"
	"github.com/Aramushaa/LingoDojo/internal/textcheck"
	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// StartReview opens the due-item walk. Requested mid-mission it offers an
// explicit pause/stay choice instead of clobbering the scene.
func (e *Engine) StartReview(ctx context.Context, userID int64) (*Reply, error) {
	session, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session != nil && Mode(session.Mode) == ModeLearn {
		inMission := Stage(session.Stage) == StageSceneTurn
		if !inMission && Stage(session.Stage) == StagePending {
			// a stalled collaborator step can still hold a live scene
			m, err := decodeMeta(session)
			if err != nil {
				return nil, err
			}
			inMission = m.Scene != nil
		}
		if inMission {
			return &Reply{
				Text: "You're in the middle of a mission. Pause it and review, or keep playing?",
				Options: []Option{
					{Label: "⏸ Pause & review", Data: "REVIEW|PAUSE"},
					{Label: "▶️ Keep playing", Data: "REVIEW|STAY"},
				},
			}, nil
		}
	}

	meta := &SessionMeta{
		Trigger: TriggerState{LastMissionUnix: e.clock().Unix()},
	}
	return e.beginReviewWalk(ctx, userID, meta)
}

// ResolveReviewChoice handles the pause/stay answer from a mid-mission
// review request
func (e *Engine) ResolveReviewChoice(ctx context.Context, userID int64, pause bool) (*Reply, error) {
	session, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil || Mode(session.Mode) != ModeLearn {
		return replyStartOver(), nil
	}
	stage := Stage(session.Stage)
	if stage != StageSceneTurn && stage != StagePending {
		return replyStartOver(), nil
	}
	meta, err := decodeMeta(session)
	if err != nil {
		return nil, err
	}
	if meta.Scene == nil {
		return replyStartOver(), nil
	}

	if !pause {
		if stage == StagePending {
			return &Reply{
				Text:    "One thing at a time — decide what to do with the stalled step first.",
				Options: retryOptions(),
			}, nil
		}
		turn := meta.Scene.Turns[meta.Scene.Idx]
		text := fmt.Sprintf("On with the mission!\n\n🗣 %s", turn.NPCLine)
		if turn.Task != "" {
			text += "\n📝 " + turn.Task
		}
		return &Reply{Text: text, Speak: turn.NPCLine}, nil
	}

	// pausing from a stalled step drops the stalled input; the scene
	// cursor survives, so the turn is simply asked again on resume
	meta.Pending = nil
	meta.PausedScene = meta.Scene
	meta.Scene = nil
	return e.beginReviewWalk(ctx, userID, meta)
}

func (e *Engine) beginReviewWalk(ctx context.Context, userID int64, meta *SessionMeta) (*Reply, error) {
	total, err := e.reviews.DueCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		if resumed, reply, err := e.resumePausedScene(ctx, userID, meta, "Nothing is due today. ✨ "); err != nil || resumed {
			return reply, err
		}
		return textReply("Nothing is due today. ✨ Learn something new with /learn."), nil
	}
	meta.Due = &DueWalk{Total: total}
	return e.presentNextReviewCard(ctx, userID, meta, "")
}

// presentNextReviewCard pulls the earliest due item and presents it in
// the sub-mode the decision table picks for it.
func (e *Engine) presentNextReviewCard(ctx context.Context, userID int64, meta *SessionMeta, prefix string) (*Reply, error) {
	rv, err := e.reviews.NextDue(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rv == nil {
		if resumed, reply, err := e.resumePausedScene(ctx, userID, meta, prefix+"🏆 Queue cleared! "); err != nil || resumed {
			return reply, err
		}
		if err := e.sessions.Clear(ctx, userID); err != nil {
			return nil, err
		}
		return textReply("%s🏆 Queue cleared — every due item is done. /learn awaits.", prefix), nil
	}

	item, err := e.content.GetItem(ctx, rv.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		// NextDue prunes, but the item can vanish between calls
		if err := e.sessions.Clear(ctx, userID); err != nil {
			return nil, err
		}
		return replyStartOver(), nil
	}

	meta.Due.Index++
	if meta.Due.Index > meta.Due.Total {
		// items graded "again" re-enter today's queue past the opening count
		meta.Due.Total = meta.Due.Index
	}
	meta.PackID = item.PackID
	meta.SubMode = e.pickSubMode(ctx, userID, rv)

	switch meta.SubMode {
	case subModeRecognition:
		return e.presentQuizCard(ctx, userID, ModeReview, item, meta, prefix)
	case subModeSituational:
		prompt := item.ScenarioPrompt
		if prompt == "" {
			prompt = fmt.Sprintf("Someone turns to you and expects *%s*. What do you say?", item.Term)
		}
		if err := e.saveSession(ctx, userID, ModeReview, StageAwaitAnswer, item.ID, meta); err != nil {
			return nil, err
		}
		return &Reply{
			Text:  fmt.Sprintf("%s🔁 Review %d/%d\n\n🎭 %s", prefix, meta.Due.Index, meta.Due.Total, prompt),
			Speak: prompt,
		}, nil
	default: // open production
		if err := e.saveSession(ctx, userID, ModeReview, StageAwaitAnswer, item.ID, meta); err != nil {
			return nil, err
		}
		return textReply("%s🔁 Review %d/%d\n\nUse *%s* in an Italian sentence.", prefix, meta.Due.Index, meta.Due.Total, item.Term), nil
	}
}

// pickSubMode implements the decision table: big backlog or brand-new
// items get cheap recognition, mature items get situational recall,
// everything else open production.
func (e *Engine) pickSubMode(ctx context.Context, userID int64, rv *models.Review) string {
	backlog, err := e.reviews.DueCount(ctx, userID)
	if err != nil {
		e.log.Warn("failed to size backlog, defaulting to recognition", zap.Error(err))
		return subModeRecognition
	}
	switch {
	case backlog >= e.cfg.BacklogThreshold || rv.Status == models.StatusNew:
		return subModeRecognition
	case rv.Status == models.StatusMature:
		return subModeSituational
	default:
		return subModeProduction
	}
}

// answerReviewQuiz handles the recognition guess; the self-grade still
// follows so the schedule always moves on the user's own assessment.
func (e *Engine) answerReviewQuiz(ctx context.Context, userID int64, item *models.Item, meta *SessionMeta, correct bool) (*Reply, error) {
	reveal := e.revealText(item, correct)
	meta.Quiz = nil
	return e.toGradePrompt(ctx, userID, item, meta, reveal)
}

// handleReviewAnswer processes free text in production or situational
// sub-mode. Too-short input is rejected without touching anything.
func (e *Engine) handleReviewAnswer(ctx context.Context, userID int64, item *models.Item, meta *SessionMeta, input string) (*Reply, error) {
	if !textcheck.AcceptableSentence(input) {
		return textReply("A bit more than that — answer with a real sentence using *%s*.", item.Term), nil
	}

	fb, err := e.gen.SentenceFeedback(ctx, *item, input)
	if err != nil {
		meta.Pending = &PendingOp{Op: opSentenceFeedback, Input: input, Stage: StageAwaitAnswer}
		if err := e.saveSession(ctx, userID, ModeReview, StagePending, item.ID, meta); err != nil {
			return nil, err
		}
		return &Reply{
			Text:    "⚠️ Your answer is safe, but I couldn't reach the feedback service.",
			Options: retryOptions(),
		}, nil
	}
	return e.toGradePrompt(ctx, userID, item, meta, formatFeedback(fb, "Noted. 📝"))
}

// toGradePrompt moves the review item into the 0-5 self-grade stage
func (e *Engine) toGradePrompt(ctx context.Context, userID int64, item *models.Item, meta *SessionMeta, prefix string) (*Reply, error) {
	meta.Pending = nil
	if err := e.saveSession(ctx, userID, ModeReview, StageAwaitGrade, item.ID, meta); err != nil {
		return nil, err
	}
	return &Reply{
		Text:    fmt.Sprintf("%s\n\nHow well did you know *%s*? (0 = blank, 5 = instant)", prefix, item.Term),
		Options: gradeOptions(item.ID),
	}, nil
}

// Grade applies a 0-5 self-assessment from the grade keyboard. Buttons
// left over from earlier cards are answered neutrally, nothing mutates.
func (e *Engine) Grade(ctx context.Context, userID, itemID int64, quality int) (*Reply, error) {
	session, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil || Mode(session.Mode) != ModeReview || Stage(session.Stage) != StageAwaitGrade {
		return replyStartOver(), nil
	}
	if !session.ItemID.Valid || session.ItemID.Int64 != itemID {
		return replyStartOver(), nil
	}
	meta, err := decodeMeta(session)
	if err != nil {
		return nil, err
	}

	grade := srs.FromQuality(quality)
	rv, err := e.reviews.Grade(ctx, userID, itemID, grade)
	if err != nil {
		return nil, err
	}
	if err := e.stats.RecordOutcome(ctx, userID, grade == srs.GradeGood, e.reviews.Today()); err != nil {
		return nil, err
	}

	ack := fmt.Sprintf("Saved: %s, next in %dd.", rv.Status, rv.IntervalDays)
	if grade == srs.GradeAgain {
		ack = "Saved: we'll try that one again today."
	}

	reply, err := e.presentNextReviewCard(ctx, userID, meta, ack+"\n\n")
	if err != nil {
		return nil, err
	}
	reply.Options = append([]Option{undoOption(itemID)}, reply.Options...)
	return reply, nil
}

// Undo reverts the last grade on an item. Valid until the next grade;
// after that the button answers truthfully that there's nothing to undo.
func (e *Engine) Undo(ctx context.Context, userID, itemID int64) (*Reply, error) {
	ok, err := e.reviews.Undo(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return textReply("Nothing to undo for that one."), nil
	}

	// keep the walk cursor honest if a review is still open
	session, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session != nil && Mode(session.Mode) == ModeReview {
		meta, err := decodeMeta(session)
		if err != nil {
			return nil, err
		}
		if meta.Due != nil && meta.Due.Index > 0 {
			meta.Due.Index--
			if err := e.saveSession(ctx, userID, ModeReview, Stage(session.Stage), sessionItemID(session), meta); err != nil {
				return nil, err
			}
		}
	}
	return textReply("↩️ Undone — that grade never happened. The item is back in today's queue."), nil
}

// resumePausedScene restores a mission stashed by pause-and-review.
// Returns resumed=false when there is nothing to restore.
func (e *Engine) resumePausedScene(ctx context.Context, userID int64, meta *SessionMeta, prefix string) (bool, *Reply, error) {
	if meta.PausedScene == nil {
		return false, nil, nil
	}
	meta.Scene = meta.PausedScene
	meta.PausedScene = nil
	meta.Due = nil
	meta.SubMode = ""
	if err := e.saveSession(ctx, userID, ModeLearn, StageSceneTurn, 0, meta); err != nil {
		return false, nil, err
	}
	turn := meta.Scene.Turns[meta.Scene.Idx]
	text := fmt.Sprintf("%sBack to your mission: *%s*\n\n🗣 %s", prefix, meta.Scene.Title, turn.NPCLine)
	if turn.Task != "" {
		text += "\n📝 " + turn.Task
	}
	return true, &Reply{Text: text, Speak: turn.NPCLine}, nil
}

func sessionItemID(s *models.Session) int64 {
	if s.ItemID.Valid {
		return s.ItemID.Int64
	}
	return 0
}
