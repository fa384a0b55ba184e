// Package bot serves a task board per Telegram chat.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"todo-board/internal/board"
	"todo-board/internal/model"
	"todo-board/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageDeadline
)

type conversationMode int

const (
	modeNew conversationMode = iota
	modeEdit
)

type conversationState struct {
	mode   conversationMode
	stage  conversationStage
	taskID string
}

// sender is the part of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Digester builds deadline digests.
type Digester interface {
	Summary(ctx context.Context, now time.Time) (service.Digest, error)
}

// Bot aggregates the Telegram API with per-chat task boards.
type Bot struct {
	api    sender
	client *tgbotapi.BotAPI
	bridge board.Bridge
	digest Digester
	log    logrus.FieldLogger
	now    func() time.Time

	mu            sync.Mutex
	boards        map[int64]*board.Board
	conversations map[int64]*conversationState
}

// New authorizes against the Bot API with token.
func New(token string, bridge board.Bridge, digest Digester, log logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(api, bridge, digest, log)
	b.client = api
	b.log.WithField("account", api.Self.UserName).Info("bot authorized")
	return b, nil
}

func newBot(api sender, bridge board.Bridge, digest Digester, log logrus.FieldLogger) *Bot {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bot{
		api:           api,
		bridge:        bridge,
		digest:        digest,
		log:           log,
		now:           time.Now,
		boards:        make(map[int64]*board.Board),
		conversations: make(map[int64]*conversationState),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot has no api client")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.client.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.WithError(err).Warn("handle callback")
		}
	case update.Message != nil:
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.WithError(err).Warn("handle message")
		}
	}
}

// boardFor returns the chat's board, creating and loading it on first
// contact.
func (b *Bot) boardFor(ctx context.Context, chatID int64) *board.Board {
	b.mu.Lock()
	brd, ok := b.boards[chatID]
	if !ok {
		brd = board.New(b.bridge,
			board.WithLogger(b.log.WithField("chat", chatID)),
			board.WithClock(b.now),
		)
		b.boards[chatID] = brd
	}
	b.mu.Unlock()

	if !ok {
		_ = brd.Load(ctx)
	}
	return brd
}

// Chats returns the ids of chats that have a board.
func (b *Bot) Chats() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int64, 0, len(b.boards))
	for id := range b.boards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SendDigests sends one deadline digest to every chat with a board.
func (b *Bot) SendDigests(ctx context.Context) error {
	chats := b.Chats()
	if len(chats) == 0 {
		return nil
	}
	digest, err := b.digest.Summary(ctx, b.now())
	if err != nil {
		return err
	}
	text := digest.HTML()
	for _, chatID := range chats {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(chatID, text); err != nil {
			b.log.WithError(err).WithField("chat", chatID).Warn("send digest")
		}
	}
	return nil
}

func (b *Bot) setConversation(chatID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[chatID] = state
}

func (b *Bot) getConversation(chatID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[chatID]
}

func (b *Bot) clearConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, chatID)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.WithError(err).Debug("callback ack")
	}
}

func deadlineLabel(deadline string) string {
	return model.FormatDeadline(deadline)
}
