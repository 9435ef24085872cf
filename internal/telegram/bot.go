package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/isdelr/yellownote-be/internal/services"
	"github.com/rs/zerolog/log"
)

// Replies sent back to the chat.
const (
	replyActivating  = "🔑 Activating your account first..."
	replyStartFailed = "⛔ Activation failed. Please try again."
	replySaveFailed  = "❌ Failed to save the message. Please try sending it again."
	replySavedPrefix = "💾 Message saved! New position: "
	greetingFallback = "friend"
	startCommand     = "start"
)

// StatusText is returned to non-POST requests on the webhook.
const StatusText = "Telegram Board Bot v2.0"

// Bot turns Telegram updates into chat ingest operations and replies.
type Bot struct {
	chat   services.ChatServiceProvider
	sender Sender
}

// NewBot creates a new Bot.
func NewBot(chat services.ChatServiceProvider, sender Sender) *Bot {
	return &Bot{chat: chat, sender: sender}
}

// HandleUpdate processes one update. Failures are logged and answered in the
// chat; they are never returned to the webhook caller.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		log.Debug().Int("update_id", update.UpdateID).Msg("Ignoring update without message")
		return
	}
	profile := profileOf(msg)

	if msg.IsCommand() && msg.Command() == startCommand {
		b.start(ctx, profile)
		return
	}
	if msg.Text == "" {
		log.Debug().Int64("chat_id", profile.ChatID).Msg("Ignoring non-text message")
		return
	}
	b.save(ctx, profile, msg.Text)
}

// start activates the chat and greets the user. It reports whether activation succeeded.
func (b *Bot) start(ctx context.Context, profile services.ChatProfile) bool {
	if _, err := b.chat.Activate(ctx, profile); err != nil {
		log.Error().Err(err).Int64("chat_id", profile.ChatID).Msg("Chat activation failed")
		b.reply(ctx, profile.ChatID, replyStartFailed)
		return false
	}

	name := profile.FirstName
	if name == "" {
		name = greetingFallback
	}
	b.reply(ctx, profile.ChatID, "✅ Hi, "+name+"! The bot is activated.")
	return true
}

func (b *Bot) save(ctx context.Context, profile services.ChatProfile, text string) {
	activated, err := b.chat.IsActivated(ctx, profile.ChatID)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", profile.ChatID).Msg("Chat user lookup failed")
		b.reply(ctx, profile.ChatID, replySaveFailed)
		return
	}
	if !activated {
		b.reply(ctx, profile.ChatID, replyActivating)
		if !b.start(ctx, profile) {
			return
		}
	}

	note, err := b.chat.SaveMessage(ctx, profile, text)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", profile.ChatID).Msg("Saving chat message failed")
		b.reply(ctx, profile.ChatID, replySaveFailed)
		return
	}

	log.Info().Int64("chat_id", profile.ChatID).Str("note_id", note.ID).Float64("x", note.X).Msg("Chat message saved")
	b.reply(ctx, profile.ChatID, replySavedPrefix+strconv.FormatFloat(note.X, 'f', -1, 64)+"px")
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.sender.SendText(ctx, chatID, text); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send chat reply")
	}
}

func profileOf(msg *tgbotapi.Message) services.ChatProfile {
	profile := services.ChatProfile{ChatID: msg.Chat.ID}
	if msg.From != nil {
		profile.FirstName = msg.From.FirstName
		profile.LastName = msg.From.LastName
	}
	return profile
}
