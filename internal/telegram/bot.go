package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/domwatch/dominance-bot/internal/command"
)

// Bot runs the long-polling update loop and feeds messages to the router.
type Bot struct {
	api    *tgbotapi.BotAPI
	router *command.Router
}

// NewBot creates the update loop around an authorized bot client.
func NewBot(api *tgbotapi.BotAPI, router *command.Router) *Bot {
	return &Bot{api: api, router: router}
}

// Run blocks consuming updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	slog.Info("telegram update loop started", "bot", b.api.Self.UserName)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		m := update.Message

		reply := b.router.Handle(ctx, command.Message{
			ChatID:   m.Chat.ID,
			UserID:   m.From.ID,
			Username: displayName(m.From),
			Text:     m.Text,
		})
		if reply == "" {
			continue
		}

		out := tgbotapi.NewMessage(m.Chat.ID, reply)
		out.ParseMode = tgbotapi.ModeMarkdown
		if _, err := b.api.Send(out); err != nil {
			slog.Warn("reply failed", "chat", m.Chat.ID, "err", err)
		}
	}
}

func displayName(u *tgbotapi.User) string {
	switch {
	case u == nil:
		return "unknown"
	case u.UserName != "":
		return u.UserName
	case u.FirstName != "":
		return u.FirstName
	default:
		return fmt.Sprintf("user_%d", u.ID)
	}
}
