// Package telegram wires the bot API: outbound monitor notifications and the
// inbound long-polling command loop.
package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/domwatch/dominance-bot/internal/command"
	"github.com/domwatch/dominance-bot/internal/monitor"
)

// Notifier delivers monitor messages through the Telegram bot API.
type Notifier struct {
	api *tgbotapi.BotAPI
}

// NewNotifier creates a notifier backed by an authorized bot client.
func NewNotifier(api *tgbotapi.BotAPI) *Notifier {
	return &Notifier{api: api}
}

// NotifyStatus sends the informational dominance message.
func (n *Notifier) NotifyStatus(ctx context.Context, chatID int64, r monitor.Reading) error {
	return n.send(ctx, chatID, command.StatusMessage(r))
}

// NotifyAlert sends the in-band alert message.
func (n *Notifier) NotifyAlert(ctx context.Context, chatID int64, r monitor.Reading) error {
	return n.send(ctx, chatID, command.AlertMessage(r))
}

// NotifyError reports a failed dominance check to the chat.
func (n *Notifier) NotifyError(ctx context.Context, chatID int64, err error) error {
	return n.send(ctx, chatID, command.ErrorMessage(err, time.Now()))
}

func (n *Notifier) send(ctx context.Context, chatID int64, text string) error {
	if chatID == 0 {
		return fmt.Errorf("telegram: no chat configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send to %d: %w", chatID, err)
	}
	return nil
}
