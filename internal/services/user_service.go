package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/isdelr/yellownote-be/internal/database"
	"github.com/isdelr/yellownote-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, name, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = "id, name, email, password_hash, avatar, chat_id, created_at"

func scanUser(row scanner) (models.User, error) {
	var (
		user      models.User
		email     sql.NullString
		hash      sql.NullString
		avatar    sql.NullString
		chatID    sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&user.ID, &user.Name, &email, &hash, &avatar, &chatID, &createdAt); err != nil {
		return models.User{}, err
	}
	if email.Valid {
		user.Email = &email.String
	}
	if avatar.Valid {
		user.Avatar = &avatar.String
	}
	if chatID.Valid {
		user.ChatID = &chatID.Int64
	}
	user.PasswordHash = hash.String
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

// Register creates a web user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", email).Scan(&exists); err != nil {
		return models.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return models.User{}, fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        &email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    nowMillis(),
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Name, email, user.PasswordHash, toMillis(user.CreatedAt))
	if err != nil {
		// Lost a race with a concurrent signup for the same email.
		if database.IsUniqueViolation(err) {
			return models.User{}, fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	if email == "" || password == "" {
		return models.User{}, ErrUnauthorized
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", strings.TrimSpace(email))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%w: user not found", ErrUnauthorized)
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}

	// Chat-only accounts have no password and cannot log in this way.
	if user.PasswordHash == "" {
		return models.User{}, fmt.Errorf("%w: no password set", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("%w: invalid password", ErrUnauthorized)
	}

	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile changes the name and/or avatar of a user. Absent or empty
// fields keep their stored value.
func (s *UserService) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (models.User, error) {
	if patch.Empty() {
		return models.User{}, fmt.Errorf("%w: no data to update", ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET name = COALESCE(?, name), avatar = COALESCE(?, avatar) WHERE id = ?",
		nonEmpty(patch.Name), nonEmpty(patch.Avatar), id)
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return s.GetUserByID(ctx, id)
}

// nonEmpty turns empty strings into SQL NULL so COALESCE keeps the old value.
func nonEmpty(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
