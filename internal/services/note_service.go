package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/isdelr/yellownote-be/internal/database"
	"github.com/isdelr/yellownote-be/internal/models"
)

// NoteServiceProvider defines the interface for note services.
type NoteServiceProvider interface {
	CreateNote(ctx context.Context, userID string, in models.NoteInput) (models.Note, error)
	UpdateNote(ctx context.Context, userID, noteID string, patch models.NotePatch) (models.Note, error)
	DeleteNote(ctx context.Context, userID, noteID string) error
}

// NoteService provides business logic for notes. Ownership is always checked
// through the note's board.
type NoteService struct {
	db        *sql.DB
	publisher NotePublisher
}

// NewNoteService creates a new NoteService. A nil publisher disables live updates.
func NewNoteService(db *sql.DB, publisher NotePublisher) *NoteService {
	return &NoteService{db: db, publisher: publisherOrNoop(publisher)}
}

const noteColumns = "id, board_id, text, x, y, width, height, font_size, created_at"

func scanNote(row scanner) (models.Note, error) {
	var note models.Note
	var createdAt int64
	err := row.Scan(&note.ID, &note.BoardID, &note.Text, &note.X, &note.Y,
		&note.Width, &note.Height, &note.FontSize, &createdAt)
	if err != nil {
		return models.Note{}, err
	}
	note.CreatedAt = fromMillis(createdAt)
	return note, nil
}

func insertNote(ctx context.Context, q database.DBTX, note models.Note) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO notes ("+noteColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		note.ID, note.BoardID, note.Text, note.X, note.Y,
		note.Width, note.Height, note.FontSize, toMillis(note.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// CreateNote adds a note to a board owned by userID.
func (s *NoteService) CreateNote(ctx context.Context, userID string, in models.NoteInput) (models.Note, error) {
	if in.BoardID == "" {
		return models.Note{}, fmt.Errorf("%w: board_id is required", ErrInvalidInput)
	}
	if err := boardOwnedBy(ctx, s.db, userID, in.BoardID); err != nil {
		return models.Note{}, err
	}

	note := models.Note{
		ID:        uuid.New().String(),
		BoardID:   in.BoardID,
		FontSize:  models.DefaultFontSize,
		CreatedAt: nowMillis(),
	}
	if in.Text != nil {
		note.Text = *in.Text
	}
	if in.X != nil {
		note.X = *in.X
	}
	if in.Y != nil {
		note.Y = *in.Y
	}
	if in.Width != nil {
		note.Width = *in.Width
	}
	if in.Height != nil {
		note.Height = *in.Height
	}
	if in.FontSize != nil {
		note.FontSize = *in.FontSize
	}

	if err := insertNote(ctx, s.db, note); err != nil {
		return models.Note{}, err
	}
	s.publisher.PublishNote(note.BoardID, models.NoteCreated, note)
	return note, nil
}

// UpdateNote applies the supplied fields of patch to a note owned by userID.
// Notes on other users' boards are reported as ErrNotFound.
func (s *NoteService) UpdateNote(ctx context.Context, userID, noteID string, patch models.NotePatch) (models.Note, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE notes SET
			text = COALESCE(?, text),
			x = COALESCE(?, x),
			y = COALESCE(?, y),
			width = COALESCE(?, width),
			height = COALESCE(?, height),
			font_size = COALESCE(?, font_size)
		WHERE id = ? AND board_id IN (SELECT id FROM boards WHERE user_id = ?)
		RETURNING `+noteColumns,
		patch.Text, patch.X, patch.Y, patch.Width, patch.Height, patch.FontSize, noteID, userID)

	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Note{}, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
		}
		return models.Note{}, fmt.Errorf("update note: %w", err)
	}
	s.publisher.PublishNote(note.BoardID, models.NoteUpdated, note)
	return note, nil
}

// DeleteNote removes a note owned by userID.
func (s *NoteService) DeleteNote(ctx context.Context, userID, noteID string) error {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM notes
		WHERE id = ? AND board_id IN (SELECT id FROM boards WHERE user_id = ?)
		RETURNING `+noteColumns, noteID, userID)

	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("note %s: %w", noteID, ErrNotFound)
		}
		return fmt.Errorf("delete note: %w", err)
	}
	s.publisher.PublishNote(note.BoardID, models.NoteDeleted, note)
	return nil
}
