package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Aramushaa/LingoDojo/internal/feedback"
	"github.com/Aramushaa/LingoDojo/internal/textcheck"
	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// StartLearn opens a fresh Learn session and presents the first new
// item. Any previous session is replaced.
func (e *Engine) StartLearn(ctx context.Context, userID int64) (*Reply, error) {
	packs, err := e.content.ActivePacks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(packs) == 0 {
		return textReply("You have no active packs yet. Pick one with /packs first."), nil
	}

	meta := &SessionMeta{
		Trigger: TriggerState{LastMissionUnix: e.clock().Unix()},
	}
	return e.presentNextLearnCard(ctx, userID, meta, "")
}

// presentNextLearnCard picks the next never-seen item and shows its quiz.
// prefix carries feedback text from the previous turn.
func (e *Engine) presentNextLearnCard(ctx context.Context, userID int64, meta *SessionMeta, prefix string) (*Reply, error) {
	item, err := e.content.NextNewItem(ctx, userID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		if err := e.sessions.Clear(ctx, userID); err != nil {
			return nil, err
		}
		return textReply("%sYou've met every item in your active packs. 🎉 Time to /review.", prefix), nil
	}

	if meta.PackID != item.PackID || meta.ChunkCap == 0 {
		pack, err := e.content.GetPack(ctx, item.PackID)
		if err != nil {
			return nil, err
		}
		meta.ChunkCap = 3
		if pack != nil && pack.ChunkSize > 0 {
			meta.ChunkCap = pack.ChunkSize
		}
	}
	meta.PackID = item.PackID

	return e.presentQuizCard(ctx, userID, ModeLearn, item, meta, prefix)
}

// presentQuizCard builds the 3-option quiz for an item. A feedback
// transport failure parks the session in retry-or-skip instead.
func (e *Engine) presentQuizCard(ctx context.Context, userID int64, mode Mode, item *models.Item, meta *SessionMeta, prefix string) (*Reply, error) {
	qc, err := e.gen.QuizContext(ctx, *item)
	if err != nil {
		meta.Pending = &PendingOp{Op: opQuizContext, Stage: StageAwaitGuess}
		if err := e.saveSession(ctx, userID, mode, StagePending, item.ID, meta); err != nil {
			return nil, err
		}
		return &Reply{
			Text:    prefix + "⚠️ I couldn't prepare this card — the helper service didn't answer.",
			Options: retryOptions(),
		}, nil
	}
	contextSentence := ""
	if !qc.Unavailable {
		contextSentence = qc.ContextSentence
	}
	return e.finishQuizCard(ctx, userID, mode, item, meta, prefix, contextSentence)
}

// finishQuizCard assembles options and persists the await_guess stage.
// An empty contextSentence falls back to the item's stored context.
func (e *Engine) finishQuizCard(ctx context.Context, userID int64, mode Mode, item *models.Item, meta *SessionMeta, prefix, contextSentence string) (*Reply, error) {
	if contextSentence == "" {
		contextSentence = item.ContextSentence
	}

	distractors, err := e.content.SiblingTranslations(ctx, item, 2)
	if err != nil {
		return nil, err
	}
	options := make([]string, 0, len(distractors)+1)
	correctIndex := e.randIntn(len(distractors) + 1)
	for _, d := range distractors {
		options = append(options, d)
	}
	options = append(options[:correctIndex], append([]string{item.Translation}, options[correctIndex:]...)...)

	meta.Quiz = &QuizPayload{
		ContextSentence: contextSentence,
		Term:            item.Term,
		Meaning:         item.Translation,
		Options:         options,
		CorrectIndex:    correctIndex,
	}
	meta.Pending = nil

	if err := e.saveSession(ctx, userID, mode, StageAwaitGuess, item.ID, meta); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(prefix)
	if mode == ModeReview && meta.Due != nil {
		fmt.Fprintf(&b, "🔁 Review %d/%d\n\n", meta.Due.Index, meta.Due.Total)
	} else {
		b.WriteString("🆕 New one:\n\n")
	}
	fmt.Fprintf(&b, "*%s*\n", item.Term)
	if contextSentence != "" {
		fmt.Fprintf(&b, "_%s_\n", contextSentence)
	}
	b.WriteString("\nWhat does it mean?\n")
	for i, opt := range options {
		if i < len(guessLabels) {
			fmt.Fprintf(&b, "%s) %s\n", guessLabels[i], opt)
		}
	}
	return &Reply{Text: b.String(), Options: guessOptions(len(options))}, nil
}

// AnswerQuiz handles a multiple-choice button press in either flow
func (e *Engine) AnswerQuiz(ctx context.Context, userID int64, choice int) (*Reply, error) {
	session, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil || Stage(session.Stage) != StageAwaitGuess {
		return replyStartOver(), nil
	}
	meta, err := decodeMeta(session)
	if err != nil {
		return nil, err
	}
	if meta.Quiz == nil || !session.ItemID.Valid {
		return replyStartOver(), nil
	}
	item, err := e.content.GetItem(ctx, session.ItemID.Int64)
	if err != nil {
		return nil, err
	}
	if item == nil {
		if err := e.sessions.Clear(ctx, userID); err != nil {
			return nil, err
		}
		return textReply("That card is no longer available. Use /learn to continue."), nil
	}

	correct := choice >= 0 && choice < len(meta.Quiz.Options) && choice == meta.Quiz.CorrectIndex

	switch Mode(session.Mode) {
	case ModeLearn:
		return e.answerLearnQuiz(ctx, userID, item, meta, correct)
	case ModeReview:
		return e.answerReviewQuiz(ctx, userID, item, meta, correct)
	}
	return replyStartOver(), nil
}

func (e *Engine) answerLearnQuiz(ctx context.Context, userID int64, item *models.Item, meta *SessionMeta, correct bool) (*Reply, error) {
	if err := e.reviews.Ensure(ctx, userID, item.ID); err != nil {
		return nil, err
	}
	if err := e.stats.RecordOutcome(ctx, userID, correct, e.reviews.Today()); err != nil {
		return nil, err
	}
	meta.noteAnswer(item.ID, correct, e.cfg.ErrorsToFlag)
	meta.notePhase(item.Phase)

	reveal := e.revealText(item, correct)
	meta.Quiz = nil

	if item.Focus == models.FocusWord {
		if err := e.saveSession(ctx, userID, ModeLearn, StageAwaitSentence, item.ID, meta); err != nil {
			return nil, err
		}
		return textReply("%s\n\nNow write an Italian sentence using *%s*.", reveal, item.Term), nil
	}

	// phrase focus: bank it toward a mission and keep moving
	meta.addChunk(item.ID, item.Term, meta.ChunkCap)

	reply, fired, err := e.maybeStartMission(ctx, userID, meta, reveal+"\n\n")
	if err != nil {
		return nil, err
	}
	if fired {
		return reply, nil
	}
	return e.presentNextLearnCard(ctx, userID, meta, reveal+"\n\n")
}

func (e *Engine) revealText(item *models.Item, correct bool) string {
	if correct {
		return fmt.Sprintf("✅ Right — *%s* = %s.", item.Term, item.Translation)
	}
	s := fmt.Sprintf("❌ Not quite. *%s* = %s.", item.Term, item.Translation)
	if item.Risk != "" {
		s += "\n⚠️ " + item.Risk
	}
	return s
}

// maybeStartMission consults the trigger after a graded phrase item and,
// when it fires, swaps the session into a roleplay scene.
func (e *Engine) maybeStartMission(ctx context.Context, userID int64, meta *SessionMeta, prefix string) (*Reply, bool, error) {
	level, err := e.users.Level(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	completed, err := e.stats.CompletedScenarios(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	learned, err := e.content.LearnedTerms(ctx, userID, meta.PackID)
	if err != nil {
		return nil, false, err
	}

	scenarios := e.catalog.ScenariosFor(e.packKey(meta.PackID))
	scene := e.pickScene(scenarios, completed, meta, learned)

	fire, reason := shouldTrigger(e.cfg, meta.Trigger, level, e.clock(), scene != nil)
	if !fire {
		return nil, false, nil
	}

	meta.noteMissionShown(e.clock())
	if err := e.stats.ResetTurnsSinceMission(ctx, userID); err != nil {
		return nil, false, err
	}
	meta.Scene = scene
	meta.Quiz = nil

	if err := e.saveSession(ctx, userID, ModeLearn, StageSceneTurn, 0, meta); err != nil {
		return nil, false, err
	}

	e.log.Info("mission triggered",
		zap.Int64("user_id", userID),
		zap.String("reason", reason),
		zap.String("scenario_id", scene.ScenarioID),
		zap.Int("missions_shown", meta.Trigger.MissionsShown))

	turn := scene.Turns[scene.Idx]
	var b strings.Builder
	b.WriteString(prefix)
	fmt.Fprintf(&b, "🎬 *Mission: %s*\n", scene.Title)
	if scene.Goal != "" {
		fmt.Fprintf(&b, "_%s_\n", scene.Goal)
	}
	fmt.Fprintf(&b, "\n🗣 %s", turn.NPCLine)
	if turn.Task != "" {
		fmt.Fprintf(&b, "\n📝 %s", turn.Task)
	}
	return &Reply{Text: b.String(), Speak: turn.NPCLine}, true, nil
}

// handleSentence processes the free sentence expected after a word-focus
// quiz. Rejections re-prompt in place without touching state.
func (e *Engine) handleSentence(ctx context.Context, userID int64, item *models.Item, meta *SessionMeta, input string) (*Reply, error) {
	if !textcheck.AcceptableSentence(input) {
		return textReply("Write a full sentence (a few words at least) using *%s*.", item.Term), nil
	}
	if ok, _ := textcheck.ValidateSentence(input, item.Term); !ok {
		return textReply("Close, but I don't see *%s* in there. Try again.", item.Term), nil
	}

	if err := e.stats.BumpTurnsSinceMission(ctx, userID); err != nil {
		return nil, err
	}

	fb, err := e.gen.SentenceFeedback(ctx, *item, input)
	if err != nil {
		meta.Pending = &PendingOp{Op: opSentenceFeedback, Input: input, Stage: StageAwaitSentence}
		if err := e.saveSession(ctx, userID, ModeLearn, StagePending, item.ID, meta); err != nil {
			return nil, err
		}
		return &Reply{
			Text:    "⚠️ Your sentence is safe, but I couldn't reach the feedback service.",
			Options: retryOptions(),
		}, nil
	}
	return e.presentNextLearnCard(ctx, userID, meta, formatFeedback(fb, "Nice! 👍")+"\n\n")
}

// handleSceneTurn processes one learner reply inside a running scene
func (e *Engine) handleSceneTurn(ctx context.Context, userID int64, meta *SessionMeta, input string) (*Reply, error) {
	scene := meta.Scene
	if scene == nil || scene.Idx >= len(scene.Turns) {
		if err := e.sessions.Clear(ctx, userID); err != nil {
			return nil, err
		}
		return replyStartOver(), nil
	}
	turn := scene.Turns[scene.Idx]

	if !textcheck.AcceptableSentence(input) {
		return textReply("Answer with a short sentence."), nil
	}
	if turn.ExpectedPhrase != "" {
		if ok, _ := textcheck.ValidateSentence(input, turn.ExpectedPhrase); !ok {
			return textReply("Almost — try to work in: _%s_", turn.ExpectedPhrase), nil
		}
	}

	fb, err := e.gen.RoleplayFeedback(ctx, turn, input)
	if err != nil {
		meta.Pending = &PendingOp{Op: opRoleplayFeedback, Input: input, Stage: StageSceneTurn}
		if err := e.saveSession(ctx, userID, ModeLearn, StagePending, 0, meta); err != nil {
			return nil, err
		}
		return &Reply{
			Text:    "⚠️ Your reply is safe, but I couldn't reach the feedback service.",
			Options: retryOptions(),
		}, nil
	}
	return e.advanceScene(ctx, userID, meta, formatFeedback(fb, "Perfetto! 👏"))
}

// advanceScene moves the scene cursor and either shows the next turn or
// wraps up the mission.
func (e *Engine) advanceScene(ctx context.Context, userID int64, meta *SessionMeta, prefix string) (*Reply, error) {
	scene := meta.Scene
	scene.Idx++
	meta.Pending = nil

	if scene.Idx >= len(scene.Turns) {
		if scene.ScenarioID != "" {
			if err := e.stats.CompleteScenario(ctx, userID, scene.ScenarioID); err != nil {
				return nil, err
			}
		}
		if err := e.sessions.Clear(ctx, userID); err != nil {
			return nil, err
		}
		title := scene.Title
		if title == "" {
			title = "practice"
		}
		return textReply("%s\n\n🏁 Mission complete: *%s*! Keep going with /learn or /review.", prefix, title), nil
	}

	if err := e.saveSession(ctx, userID, ModeLearn, StageSceneTurn, 0, meta); err != nil {
		return nil, err
	}
	turn := scene.Turns[scene.Idx]
	text := fmt.Sprintf("%s\n\n🗣 %s", prefix, turn.NPCLine)
	if turn.Task != "" {
		text += "\n📝 " + turn.Task
	}
	return &Reply{Text: text, Speak: turn.NPCLine}, nil
}

// Skip abandons the current Learn item, marking it as already known
func (e *Engine) Skip(ctx context.Context, userID int64) (*Reply, error) {
	session, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return textReply("Nothing to skip. Use /learn to start."), nil
	}
	if Mode(session.Mode) == ModeReview {
		if err := e.sessions.Clear(ctx, userID); err != nil {
			return nil, err
		}
		return textReply("Review closed. Come back with /review."), nil
	}

	if session.ItemID.Valid && session.ItemID.Int64 != 0 {
		if err := e.reviews.MarkMastered(ctx, userID, session.ItemID.Int64); err != nil {
			return nil, err
		}
	}
	if err := e.sessions.Clear(ctx, userID); err != nil {
		return nil, err
	}
	return textReply("Skipped — marked as known. Use /learn for the next one."), nil
}

func formatFeedback(fb feedback.Feedback, fallback string) string {
	if fb.Unavailable {
		return fallback
	}
	var parts []string
	if fb.Praise != "" {
		parts = append(parts, fb.Praise)
	}
	if fb.Correction != "" {
		parts = append(parts, "✏️ "+fb.Correction)
	}
	if fb.Tip != "" {
		parts = append(parts, "💡 "+fb.Tip)
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, "\n")
}
