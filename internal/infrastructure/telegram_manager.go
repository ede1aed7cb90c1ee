package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"warelay/internal/entities"
)

// TelegramRelay runs a single long-polling bot and feeds private-chat messages
// into the same pipeline as the webhook. Chat ids are numeric, so they pass
// through address normalization unchanged.
type TelegramRelay struct {
	Bot *tgbotapi.BotAPI

	// Events is the orchestrator entry point, injected from main.
	Events func(ctx context.Context, events []entities.MessageEvent) entities.WebhookResult
	// Welcome resolves the greeting used in place of a platform template,
	// since Telegram has no pre-approved-template API.
	Welcome func() string

	logger   *slog.Logger
	stopChan chan struct{}
}

func NewTelegramRelay(token string, logger *slog.Logger) (*TelegramRelay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramRelay{
		Bot:      bot,
		logger:   logger.With("component", "telegram"),
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins polling for updates until Stop is called.
func (t *TelegramRelay) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.Bot.GetUpdatesChan(u)

	t.logger.Info("polling started", "bot", t.Bot.Self.UserName)

	go func() {
		for {
			select {
			case <-t.stopChan:
				t.Bot.StopReceivingUpdates()
				t.logger.Info("polling stopped")
				return
			case update := <-updates:
				t.handleUpdate(update)
			}
		}
	}()
}

func (t *TelegramRelay) Stop() {
	close(t.stopChan)
}

func (t *TelegramRelay) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	// Group chats are out of scope, same as the WhatsApp side.
	if !msg.Chat.IsPrivate() {
		return
	}

	ev := entities.MessageEvent{
		ID:        strconv.Itoa(msg.MessageID),
		From:      entities.NormalizeAddress(strconv.FormatInt(msg.Chat.ID, 10)),
		To:        entities.NormalizeAddress(strconv.FormatInt(t.Bot.Self.ID, 10)),
		Timestamp: strconv.FormatInt(int64(msg.Date), 10),
		Type:      entities.TypeText,
		Body:      msg.Text,
		Channel:   entities.ChannelTelegram,
	}

	if t.Events == nil {
		return
	}
	result := t.Events(context.Background(), []entities.MessageEvent{ev})
	t.logger.Debug("update relayed", "chat", ev.From, "stored", result.Stored)
}

// SendText delivers a message to a chat id.
func (t *TelegramRelay) SendText(_ context.Context, to, body string) error {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", to, err)
	}
	msg := tgbotapi.NewMessage(chatID, body)
	_, err = t.Bot.Send(msg)
	return err
}

// SendTemplate sends the configured greeting text.
func (t *TelegramRelay) SendTemplate(ctx context.Context, to string) error {
	welcome := DefaultWelcome
	if t.Welcome != nil {
		welcome = t.Welcome()
	}
	return t.SendText(ctx, to, welcome)
}

// DefaultWelcome is used when no greeting is configured.
const DefaultWelcome = "Hello! Thanks for reaching out. How can I help you today?"
