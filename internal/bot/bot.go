// Package bot is the Telegram transport: it maps updates onto engine calls
// and renders the engine's replies as messages with inline keyboards.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Aramushaa/LingoDojo/internal/database"
	"github.com/Aramushaa/LingoDojo/internal/engine"
	"github.com/Aramushaa/LingoDojo/internal/speech"
)

const turnTimeout = 30 * time.Second

// Bot wires the Telegram API to the learning engine
type Bot struct {
	api     *tgbotapi.BotAPI
	engine  *engine.Engine
	users   *database.UserRepository
	items   *database.ItemRepository
	reviews *database.ReviewRepository
	speech  speech.Synthesizer
	log     *zap.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New creates a bot instance and authorizes against the Telegram API
func New(token string, eng *engine.Engine, synth speech.Synthesizer, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}
	log.Info("bot authorized", zap.String("username", api.Self.UserName))

	return &Bot{
		api:     api,
		engine:  eng,
		users:   database.NewUserRepository(),
		items:   database.NewItemRepository(),
		reviews: database.NewReviewRepository(),
		speech:  synth,
		log:     log,
	}, nil
}

// Start runs the update loop until Stop is called. Turns for different users
// run concurrently; turns for one user are serialized, which the engine
// relies on.
func (b *Bot) Start() {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	for update := range b.api.GetUpdatesChan(updateConfig) {
		update := update
		go b.handleUpdate(update)
	}
}

// Stop closes the update channel, letting Start return
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

// SendReminder implements the scheduler Notifier
func (b *Bot) SendReminder(userID int64, dueCount int) error {
	text := fmt.Sprintf("⏰ You have %d review(s) waiting. /review when you're ready!", dueCount)
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %v", err)
	}
	return nil
}

func (b *Bot) userLock(userID int64) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.locks == nil {
		b.locks = make(map[int64]*sync.Mutex)
	}
	lock, ok := b.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[userID] = lock
	}
	return lock
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	var userID int64
	switch {
	case update.Message != nil && update.Message.From != nil:
		userID = update.Message.From.ID
	case update.CallbackQuery != nil:
		userID = update.CallbackQuery.From.ID
	default:
		return
	}

	lock := b.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
		return
	}
	b.handleCallback(ctx, update.CallbackQuery)
}

// send renders an engine reply: Markdown text, inline keyboard, and a
// best-effort voice clip when the reply carries a line to speak.
func (b *Bot) send(ctx context.Context, chatID int64, reply *engine.Reply) {
	if reply == nil {
		return
	}
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if len(reply.Options) > 0 {
		msg.ReplyMarkup = keyboardFor(reply.Options)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	if reply.Speak == "" {
		return
	}
	audio, err := b.speech.Synthesize(ctx, reply.Speak)
	if err != nil {
		b.log.Warn("speech synthesis failed", zap.Error(err))
		return
	}
	if len(audio) == 0 {
		return
	}
	voice := tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{Name: "line.ogg", Bytes: audio})
	if _, err := b.api.Send(voice); err != nil {
		b.log.Warn("failed to send voice clip", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, format string, args ...any) {
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(format, args...))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// keyboardFor lays the options out in rows of at most three buttons
func keyboardFor(options []engine.Option) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, opt := range options {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(opt.Label, opt.Data))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
