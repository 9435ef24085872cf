package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Sender delivers a text reply to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// APISender sends replies through the Telegram Bot API.
type APISender struct {
	api *tgbotapi.BotAPI
}

// NewAPISender authenticates against the Bot API. endpoint is a format string
// receiving the token and the method name.
func NewAPISender(token, endpoint string) (*APISender, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	log.Info().Str("bot", api.Self.UserName).Msg("Telegram bot authorized")
	return &APISender{api: api}, nil
}

// SendText sends text as a plain message to chatID.
func (s *APISender) SendText(_ context.Context, chatID int64, text string) error {
	if _, err := s.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// LogSender writes replies to the log instead of sending them. It is used
// when no bot token is configured.
type LogSender struct{}

// SendText logs the reply.
func (LogSender) SendText(_ context.Context, chatID int64, text string) error {
	log.Info().Int64("chat_id", chatID).Str("text", text).Msg("Telegram reply (not sent, no token configured)")
	return nil
}
