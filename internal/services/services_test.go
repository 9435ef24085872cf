package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/isdelr/yellownote-be/internal/database"
	"github.com/isdelr/yellownote-be/internal/models"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func mustRegister(t *testing.T, users *UserService, name, email string) models.User {
	t.Helper()
	user, err := users.Register(context.Background(), name, email, "password123")
	require.NoError(t, err)
	return user
}

type publishedNote struct {
	boardID string
	action  string
	note    models.Note
}

// recordingPublisher captures note events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedNote
}

func (p *recordingPublisher) PublishNote(boardID, action string, note models.Note) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedNote{boardID: boardID, action: action, note: note})
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.action)
	}
	return out
}
