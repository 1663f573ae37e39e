package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Aramushaa/LingoDojo/internal/engine"
	"github.com/Aramushaa/LingoDojo/pkg/models"
)

const welcomeText = `Ciao! 👋 I teach Italian in small, usable bites.

/learn — pick up new words and phrases
/review — practice what's due
/packs — choose your content packs
/stats — see your progress
/hint — nudge when you're stuck
/skip — skip the current card
/setlevel — set your CEFR level (A1-C1)
/remindme — daily reminder hour, e.g. /remindme 19`

var knownLevels = map[string]bool{
	models.LevelA1: true,
	models.LevelA2: true,
	models.LevelB1: true,
	models.LevelB2: true,
	models.LevelC1: true,
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	if err := b.users.Ensure(ctx, userID, message.From.FirstName); err != nil {
		b.log.Error("failed to ensure user", zap.Int64("user_id", userID), zap.Error(err))
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		b.sendText(chatID, "Send me text, or use /learn to get going.")
		return
	}

	reply, err := b.engine.Advance(ctx, userID, text)
	if err != nil {
		b.replyError(chatID, userID, err)
		return
	}
	b.send(ctx, chatID, reply)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	var reply *engine.Reply
	var err error

	switch message.Command() {
	case "start", "help":
		b.sendText(chatID, welcomeText)
		return
	case "learn":
		reply, err = b.engine.StartLearn(ctx, userID)
	case "review":
		reply, err = b.engine.StartReview(ctx, userID)
	case "skip":
		reply, err = b.engine.Skip(ctx, userID)
	case "hint":
		reply, err = b.engine.Hint(ctx, userID)
	case "stats":
		reply, err = b.engine.Progress(ctx, userID, b.reviews)
	case "undo":
		b.sendText(chatID, "Use the ↩️ Undo button under your last grade.")
		return
	case "packs":
		b.handlePacksCommand(ctx, chatID, userID)
		return
	case "setlevel":
		b.handleSetLevel(ctx, chatID, userID, message.CommandArguments())
		return
	case "remindme":
		b.handleRemindMe(ctx, chatID, userID, message.CommandArguments())
		return
	case "replay":
		scenarioID := strings.TrimSpace(message.CommandArguments())
		if scenarioID == "" {
			b.sendText(chatID, "Usage: /replay <scenario id>")
			return
		}
		reply, err = b.engine.ReplayScenario(ctx, userID, scenarioID)
	default:
		b.sendText(chatID, "Unknown command. /help lists what I can do.")
		return
	}

	if err != nil {
		b.replyError(chatID, userID, err)
		return
	}
	b.send(ctx, chatID, reply)
}

// handlePacksCommand lists every pack with a toggle button
func (b *Bot) handlePacksCommand(ctx context.Context, chatID, userID int64) {
	all, err := b.items.AllPacks(ctx)
	if err != nil {
		b.replyError(chatID, userID, err)
		return
	}
	if len(all) == 0 {
		b.sendText(chatID, "No packs are installed yet.")
		return
	}
	active, err := b.items.ActivePacks(ctx, userID)
	if err != nil {
		b.replyError(chatID, userID, err)
		return
	}
	activeSet := make(map[string]bool, len(active))
	for _, p := range active {
		activeSet[p.ID] = true
	}

	reply := &engine.Reply{Text: "📦 *Packs* — tap to toggle:"}
	for _, p := range all {
		label := p.Level + " · " + p.Title
		data := "PACK|ON|" + p.ID
		if activeSet[p.ID] {
			label = "✅ " + label
			data = "PACK|OFF|" + p.ID
		}
		reply.Options = append(reply.Options, engine.Option{Label: label, Data: data})
	}
	b.send(ctx, chatID, reply)
}

func (b *Bot) handleSetLevel(ctx context.Context, chatID, userID int64, args string) {
	level := strings.ToUpper(strings.TrimSpace(args))
	if level == "" {
		reply := &engine.Reply{Text: "Pick your level:"}
		for _, l := range []string{models.LevelA1, models.LevelA2, models.LevelB1, models.LevelB2, models.LevelC1} {
			reply.Options = append(reply.Options, engine.Option{Label: l, Data: "LEVEL|" + l})
		}
		b.send(ctx, chatID, reply)
		return
	}
	if !knownLevels[level] {
		b.sendText(chatID, "I know the levels A1, A2, B1, B2 and C1.")
		return
	}
	if err := b.users.SetLevel(ctx, userID, level); err != nil {
		b.replyError(chatID, userID, err)
		return
	}
	b.sendText(chatID, "✅ Level set to *%s*.", level)
}

func (b *Bot) handleRemindMe(ctx context.Context, chatID, userID int64, args string) {
	hour, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || hour < 0 || hour > 23 {
		b.sendText(chatID, "Give me an hour between 0 and 23, e.g. /remindme 19")
		return
	}
	if err := b.users.SetNotificationHour(ctx, userID, hour); err != nil {
		b.replyError(chatID, userID, err)
		return
	}
	b.sendText(chatID, "⏰ I'll remind you around %d:00 UTC when reviews are due.", hour)
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := userID
	if callback.Message != nil {
		chatID = callback.Message.Chat.ID
	}

	// acknowledge first so the button stops spinning
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", zap.Error(err))
	}

	parts := strings.Split(callback.Data, "|")
	var reply *engine.Reply
	var err error

	switch parts[0] {
	case "GUESS":
		if len(parts) != 2 {
			return
		}
		choice, convErr := strconv.Atoi(parts[1])
		if convErr != nil {
			return
		}
		reply, err = b.engine.AnswerQuiz(ctx, userID, choice)
	case "GRADE":
		if len(parts) != 3 {
			return
		}
		quality, qErr := strconv.Atoi(parts[1])
		itemID, iErr := strconv.ParseInt(parts[2], 10, 64)
		if qErr != nil || iErr != nil {
			return
		}
		reply, err = b.engine.Grade(ctx, userID, itemID, quality)
	case "UNDO":
		if len(parts) != 2 {
			return
		}
		itemID, convErr := strconv.ParseInt(parts[1], 10, 64)
		if convErr != nil {
			return
		}
		reply, err = b.engine.Undo(ctx, userID, itemID)
	case "PENDING":
		if len(parts) != 2 {
			return
		}
		reply, err = b.engine.ResolvePending(ctx, userID, parts[1] == "RETRY")
	case "REVIEW":
		if len(parts) != 2 {
			return
		}
		reply, err = b.engine.ResolveReviewChoice(ctx, userID, parts[1] == "PAUSE")
	case "PACK":
		if len(parts) != 3 {
			return
		}
		b.handlePackToggle(ctx, chatID, userID, parts[1], parts[2])
		return
	case "LEVEL":
		if len(parts) != 2 {
			return
		}
		b.handleSetLevel(ctx, chatID, userID, parts[1])
		return
	default:
		b.log.Warn("unknown callback", zap.String("data", callback.Data))
		return
	}

	if err != nil {
		b.replyError(chatID, userID, err)
		return
	}
	b.send(ctx, chatID, reply)
}

func (b *Bot) handlePackToggle(ctx context.Context, chatID, userID int64, action, packID string) {
	pack, err := b.items.GetPack(ctx, packID)
	if err != nil {
		b.replyError(chatID, userID, err)
		return
	}
	if pack == nil {
		b.sendText(chatID, "That pack is gone.")
		return
	}

	if action == "ON" {
		if err := b.items.ActivatePack(ctx, userID, packID); err != nil {
			b.replyError(chatID, userID, err)
			return
		}
		b.sendText(chatID, "✅ *%s* activated. /learn to dive in.", pack.Title)
		return
	}
	if err := b.items.DeactivatePack(ctx, userID, packID); err != nil {
		b.replyError(chatID, userID, err)
		return
	}
	b.sendText(chatID, "☑️ *%s* deactivated.", pack.Title)
}

func (b *Bot) replyError(chatID, userID int64, err error) {
	b.log.Error("turn failed", zap.Int64("user_id", userID), zap.Error(err))
	b.sendText(chatID, "Something went wrong on my side. Try again in a moment.")
}
