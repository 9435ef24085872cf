package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/isdelr/yellownote-be/internal/telegram"
	"github.com/rs/zerolog/log"
)

// secretHeader carries the secret configured with setWebhook.
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler processes one chat platform update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// WebhookHandler receives chat platform updates.
type WebhookHandler struct {
	bot    UpdateHandler
	secret string
}

// NewWebhookHandler creates a new WebhookHandler. An empty secret disables
// the header check.
func NewWebhookHandler(bot UpdateHandler, secret string) *WebhookHandler {
	return &WebhookHandler{bot: bot, secret: secret}
}

// Serve handles POSTed updates and answers any other method with a status line.
func (h *WebhookHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(telegram.StatusText))
		return
	}

	if h.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(secretHeader)), []byte(h.secret)) != 1 {
		log.Warn().Str("remote_addr", r.RemoteAddr).Msg("Rejected webhook call with bad secret")
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var update tgbotapi.Update
	if err := readJSON(r, &update); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid update")
		return
	}

	h.bot.HandleUpdate(r.Context(), update)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
