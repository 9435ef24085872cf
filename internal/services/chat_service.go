package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/yellownote-be/internal/database"
	"github.com/isdelr/yellownote-be/internal/models"
)

// Layout of notes created from chat messages: left to right in a single row.
const (
	ChatNoteInitialX = 10
	ChatNoteSpacing  = 20
	ChatNoteY        = 10
	ChatNoteWidth    = 200
	ChatNoteHeight   = 100
)

// ChatProfile identifies the sender of a chat message.
type ChatProfile struct {
	ChatID    int64
	FirstName string
	LastName  string
}

// DisplayName joins first and last name, falling back to a placeholder derived
// from the chat id.
func (p ChatProfile) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name == "" {
		return fmt.Sprintf("Telegram User %d", p.ChatID)
	}
	return name
}

// Activation is the outcome of binding a chat to a user and its board.
type Activation struct {
	UserID  string
	BoardID string
	Created bool // a new user was created for the chat
}

// ChatServiceProvider defines the interface for the chat ingest flow.
type ChatServiceProvider interface {
	IsActivated(ctx context.Context, chatID int64) (bool, error)
	Activate(ctx context.Context, profile ChatProfile) (Activation, error)
	SaveMessage(ctx context.Context, profile ChatProfile, text string) (models.Note, error)
}

// ChatService turns chat messages into notes on the sender's Telegram Board.
// Each operation runs in one transaction so concurrent messages from the same
// chat cannot compute the same position.
type ChatService struct {
	db        *sql.DB
	publisher NotePublisher
}

// NewChatService creates a new ChatService. A nil publisher disables live updates.
func NewChatService(db *sql.DB, publisher NotePublisher) *ChatService {
	return &ChatService{db: db, publisher: publisherOrNoop(publisher)}
}

// IsActivated reports whether a user already exists for chatID.
func (s *ChatService) IsActivated(ctx context.Context, chatID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE chat_id = ?)", chatID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup chat user: %w", err)
	}
	return exists, nil
}

// Activate resolves or creates the chat's user and its Telegram Board.
func (s *ChatService) Activate(ctx context.Context, profile ChatProfile) (Activation, error) {
	var act Activation
	err := database.WithTx(ctx, s.db, func(tx database.DBTX) error {
		var err error
		act, err = activate(ctx, tx, profile)
		return err
	})
	if err != nil {
		return Activation{}, err
	}
	return act, nil
}

// SaveMessage stores text as a new note placed to the right of the board's
// most recent note. The chat is activated first if needed.
func (s *ChatService) SaveMessage(ctx context.Context, profile ChatProfile, text string) (models.Note, error) {
	var note models.Note
	err := database.WithTx(ctx, s.db, func(tx database.DBTX) error {
		act, err := activate(ctx, tx, profile)
		if err != nil {
			return err
		}

		x, err := nextChatNoteX(ctx, tx, act.BoardID)
		if err != nil {
			return err
		}

		note = models.Note{
			ID:        uuid.New().String(),
			BoardID:   act.BoardID,
			Text:      text,
			X:         x,
			Y:         ChatNoteY,
			Width:     ChatNoteWidth,
			Height:    ChatNoteHeight,
			FontSize:  models.DefaultFontSize,
			CreatedAt: nowMillis(),
		}
		return insertNote(ctx, tx, note)
	})
	if err != nil {
		return models.Note{}, err
	}

	s.publisher.PublishNote(note.BoardID, models.NoteCreated, note)
	return note, nil
}

func activate(ctx context.Context, q database.DBTX, profile ChatProfile) (Activation, error) {
	var act Activation
	err := q.QueryRowContext(ctx, "SELECT id FROM users WHERE chat_id = ?", profile.ChatID).Scan(&act.UserID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		act.UserID = uuid.New().String()
		act.Created = true
		_, err = q.ExecContext(ctx,
			"INSERT INTO users (id, name, chat_id, created_at) VALUES (?, ?, ?, ?)",
			act.UserID, profile.DisplayName(), profile.ChatID, toMillis(time.Now()))
		if err != nil {
			return Activation{}, fmt.Errorf("insert chat user: %w", err)
		}
	case err != nil:
		return Activation{}, fmt.Errorf("lookup chat user: %w", err)
	}

	act.BoardID, err = getOrCreateBoard(ctx, q, act.UserID, models.TelegramBoardName)
	if err != nil {
		return Activation{}, err
	}
	return act, nil
}

func nextChatNoteX(ctx context.Context, q database.DBTX, boardID string) (float64, error) {
	var x, width float64
	err := q.QueryRowContext(ctx,
		"SELECT x, width FROM notes WHERE board_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1",
		boardID).Scan(&x, &width)
	if errors.Is(err, sql.ErrNoRows) {
		return ChatNoteInitialX, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lookup last note: %w", err)
	}
	return x + width + ChatNoteSpacing, nil
}
