// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"time"

	"gopkg.in/telebot.v3"

	"econ_release_notifier/internal/apperr"
)

// TelebotAdapter implements notify.Notifier on top of gopkg.in/telebot.v3,
// delivering run notifications to a single chat.
type TelebotAdapter struct {
	bot    *telebot.Bot
	chatID int64
}

// NewBot constructs the underlying bot. Telegram is contacted once here to
// verify the token.
func NewBot(token string) (*telebot.Bot, error) {
	b, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, apperr.TransportWrap(err, "telegram bot initialization failed")
	}
	return b, nil
}

func NewTelebotAdapter(b *telebot.Bot, chatID int64) *TelebotAdapter {
	return &TelebotAdapter{bot: b, chatID: chatID}
}

// Send delivers one plaintext message to the configured chat. A failed
// delivery is a transport error; the caller aborts the run rather than retry.
func (tba *TelebotAdapter) Send(ctx context.Context, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recipient := &telebot.User{ID: tba.chatID}
	if _, err := tba.bot.Send(recipient, body, &telebot.SendOptions{}); err != nil {
		return apperr.TransportWrap(err, "telegram delivery failed")
	}
	return nil
}
