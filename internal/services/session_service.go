package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/yellownote-be/internal/models"
)

// sessionTokenBytes is the entropy of a session token before hex encoding.
const sessionTokenBytes = 64

// SessionServiceProvider defines the interface for session services.
type SessionServiceProvider interface {
	CreateSession(ctx context.Context, userID string) (models.Session, error)
	ResolveSession(ctx context.Context, token string) (string, error)
	DeleteSession(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// SessionService persists bearer sessions in the sessions table.
type SessionService struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSessionService creates a new SessionService issuing sessions valid for ttl.
func NewSessionService(db *sql.DB, ttl time.Duration) *SessionService {
	return &SessionService{db: db, ttl: ttl, now: time.Now}
}

// CreateSession stores a fresh random token for userID.
func (s *SessionService) CreateSession(ctx context.Context, userID string) (models.Session, error) {
	token, err := generateToken()
	if err != nil {
		return models.Session{}, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	session := models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		session.Token, session.UserID, toMillis(session.ExpiresAt), toMillis(session.CreatedAt))
	if err != nil {
		return models.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

// ResolveSession returns the user id behind an unexpired token.
func (s *SessionService) ResolveSession(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}

	var userID string
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id FROM sessions WHERE token = ? AND expires_at > ?",
		token, toMillis(s.now())).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("resolve session: %w", err)
	}
	return userID, nil
}

// DeleteSession revokes a token. Unknown tokens are not an error.
func (s *SessionService) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// PurgeExpired removes every session whose expiry has passed and reports how many.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", toMillis(s.now()))
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}

func generateToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
