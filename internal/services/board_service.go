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

// BoardServiceProvider defines the interface for board services.
type BoardServiceProvider interface {
	CreateBoard(ctx context.Context, userID, name string) (models.Board, error)
	ListBoards(ctx context.Context, userID string) ([]models.Board, error)
	GetBoard(ctx context.Context, userID, boardID string) (models.BoardDetail, error)
	CheckOwnership(ctx context.Context, userID, boardID string) error
}

// BoardService provides business logic for board management. Every read is
// scoped to the acting user; boards owned by someone else look missing.
type BoardService struct {
	db *sql.DB
}

// NewBoardService creates a new BoardService.
func NewBoardService(db *sql.DB) *BoardService {
	return &BoardService{db: db}
}

func scanBoard(row scanner) (models.Board, error) {
	var board models.Board
	var createdAt int64
	if err := row.Scan(&board.ID, &board.UserID, &board.Name, &createdAt); err != nil {
		return models.Board{}, err
	}
	board.CreatedAt = fromMillis(createdAt)
	return board, nil
}

// CreateBoard inserts a new board for userID.
func (s *BoardService) CreateBoard(ctx context.Context, userID, name string) (models.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Board{}, fmt.Errorf("%w: board name is required", ErrInvalidInput)
	}

	board := models.Board{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		CreatedAt: nowMillis(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO boards (id, user_id, name, created_at) VALUES (?, ?, ?, ?)",
		board.ID, board.UserID, board.Name, toMillis(board.CreatedAt))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.Board{}, fmt.Errorf("%w: board %q", ErrConflict, name)
		}
		return models.Board{}, fmt.Errorf("insert board: %w", err)
	}
	return board, nil
}

// ListBoards returns all boards owned by userID, oldest first.
func (s *BoardService) ListBoards(ctx context.Context, userID string) ([]models.Board, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, name, created_at FROM boards WHERE user_id = ? ORDER BY created_at, rowid", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boards := []models.Board{}
	for rows.Next() {
		board, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, board)
	}
	return boards, rows.Err()
}

// GetBoard returns a board owned by userID together with its notes.
func (s *BoardService) GetBoard(ctx context.Context, userID, boardID string) (models.BoardDetail, error) {
	board, err := scanBoard(s.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, created_at FROM boards WHERE id = ? AND user_id = ?", boardID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BoardDetail{}, fmt.Errorf("board %s: %w", boardID, ErrNotFound)
		}
		return models.BoardDetail{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE board_id = ? ORDER BY created_at, rowid", boardID)
	if err != nil {
		return models.BoardDetail{}, err
	}
	defer rows.Close()

	detail := models.BoardDetail{Board: board, Notes: []models.Note{}}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return models.BoardDetail{}, err
		}
		detail.Notes = append(detail.Notes, note)
	}
	return detail, rows.Err()
}

// CheckOwnership returns ErrNotFound unless boardID exists and belongs to userID.
func (s *BoardService) CheckOwnership(ctx context.Context, userID, boardID string) error {
	return boardOwnedBy(ctx, s.db, userID, boardID)
}

func boardOwnedBy(ctx context.Context, q database.DBTX, userID, boardID string) error {
	var owned bool
	err := q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM boards WHERE id = ? AND user_id = ?)", boardID, userID).Scan(&owned)
	if err != nil {
		return fmt.Errorf("check board owner: %w", err)
	}
	if !owned {
		return fmt.Errorf("board %s: %w", boardID, ErrNotFound)
	}
	return nil
}

// getOrCreateBoard returns the id of the (userID, name) board, creating it if
// needed. The unique (user_id, name) constraint makes this idempotent.
func getOrCreateBoard(ctx context.Context, q database.DBTX, userID, name string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, `
		INSERT INTO boards (id, user_id, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, name) DO UPDATE SET name = excluded.name
		RETURNING id`,
		uuid.New().String(), userID, name, toMillis(time.Now())).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("get or create board %q: %w", name, err)
	}
	return id, nil
}
