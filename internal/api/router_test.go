package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/yellownote-be/internal/auth"
	"github.com/isdelr/yellownote-be/internal/database"
	"github.com/isdelr/yellownote-be/internal/models"
	"github.com/isdelr/yellownote-be/internal/services"
	"github.com/isdelr/yellownote-be/internal/telegram"
	"github.com/isdelr/yellownote-be/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "hook-secret"

type recordingSender struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSender) SendText(_ context.Context, _ int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordingSender) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

type testServer struct {
	*httptest.Server
	db     *sql.DB
	hub    *websocket.Hub
	sender *recordingSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	sender := &recordingSender{}
	router := NewRouter(Dependencies{
		Users:         services.NewUserService(db),
		Sessions:      services.NewSessionService(db, time.Hour),
		Boards:        services.NewBoardService(db),
		Notes:         services.NewNoteService(db, hub),
		Hub:           hub,
		Tickets:       auth.NewTicketIssuer([]byte("test-ticket-key"), time.Minute),
		Bot:           telegram.NewBot(services.NewChatService(db, hub), sender),
		CORSOrigin:    "https://yellownote.example",
		WebhookSecret: testWebhookSecret,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, db: db, hub: hub, sender: sender}
}

// do sends a request and decodes a JSON response body into out when given.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// signupAndLogin registers a user and returns a session token.
func (s *testServer) signupAndLogin(t *testing.T, name, email string) string {
	t.Helper()
	status := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": name, "email": email, "password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var login struct {
		Token string `json:"token"`
	}
	status = s.do(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email": email, "password": "password123",
	}, &login)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, login.Token)
	return login.Token
}

func (s *testServer) createBoard(t *testing.T, token, name string) string {
	t.Helper()
	var board struct {
		ID   string `json:"uuid"`
		Name string `json:"name"`
	}
	status := s.do(t, http.MethodPost, "/api/board", token, map[string]string{"name": name}, &board)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, name, board.Name)
	return board.ID
}

func (s *testServer) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestUnmatchedRoutesReturnJSON404(t *testing.T) {
	s := newTestServer(t)

	tests := []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodPost, "/nope"},
		{http.MethodPut, "/api/unknown"},
		{http.MethodDelete, "/api/auth/whatever"},
		{http.MethodPatch, "/api/board/list"},
		{http.MethodDelete, "/api/board/list"},
		{http.MethodGet, "/api/auth/signup"},
		{http.MethodPut, "/api/board/abc"},
		{http.MethodPatch, "/api/board/abc"},
		{http.MethodDelete, "/api/board/abc"},
		{http.MethodGet, "/api/board/a/b/c"},
		{http.MethodGet, "/api/board/abc/ticket"},
		{http.MethodPut, "/api/note"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var body map[string]string
			status := s.do(t, tt.method, tt.path, "", nil, &body)
			assert.Equal(t, http.StatusNotFound, status)
			assert.Equal(t, "Endpoint not found", body["error"])
		})
	}
}

func TestSignupAndLogin(t *testing.T) {
	s := newTestServer(t)

	var created map[string]interface{}
	status := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "password123",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, created["uuid"])
	assert.Equal(t, "Ann", created["name"])
	assert.Equal(t, "ann@example.com", created["email"])
	assert.NotContains(t, created, "password_hash")

	for _, password := range []string{"password123", "different"} {
		status = s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"name": "Ann", "email": "ann@example.com", "password": password,
		}, nil)
		assert.Equal(t, http.StatusConflict, status)
	}

	status = s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "Bob"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = s.do(t, http.MethodPost, "/api/auth/signup", "", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var login map[string]string
	status = s.do(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email": "ann@example.com", "password": "password123",
	}, &login)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, login["token"], 128)

	status = s.do(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email": "ann@example.com", "password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = s.do(t, http.MethodPost, "/api/auth", "", map[string]string{}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGuardedEndpointsRequireSession(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "Ann", "ann@example.com")
	boardID := s.createBoard(t, token, "Ideas")
	boardsBefore, notesBefore := s.count(t, "boards"), s.count(t, "notes")

	tests := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, "/api/user/me", nil},
		{http.MethodPut, "/api/user/me", map[string]string{"name": "Mallory"}},
		{http.MethodPost, "/api/board", map[string]string{"name": "Sneaky"}},
		{http.MethodGet, "/api/board/list", nil},
		{http.MethodGet, "/api/board/" + boardID, nil},
		{http.MethodPost, "/api/board/" + boardID + "/ticket", nil},
		{http.MethodPost, "/api/note", map[string]string{"board_id": boardID}},
		{http.MethodPut, "/api/note/some-id", map[string]string{"text": "x"}},
		{http.MethodDelete, "/api/note/some-id", nil},
		{http.MethodPost, "/api/auth/logout", nil},
	}

	for _, tt := range tests {
		for _, token := range []string{"", "not-a-real-token"} {
			t.Run(tt.method+" "+tt.path+" token="+token, func(t *testing.T) {
				var body map[string]string
				status := s.do(t, tt.method, tt.path, token, tt.body, &body)
				assert.Equal(t, http.StatusUnauthorized, status)
				if token == "" {
					assert.Equal(t, "Unauthorized", body["error"])
				} else {
					assert.Equal(t, "Invalid session", body["error"])
				}
			})
		}
	}

	assert.Equal(t, boardsBefore, s.count(t, "boards"))
	assert.Equal(t, notesBefore, s.count(t, "notes"))

	var name string
	require.NoError(t, s.db.QueryRow("SELECT name FROM users").Scan(&name))
	assert.Equal(t, "Ann", name)
}

func TestExpiredSessionIsRejected(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "Ann", "ann@example.com")

	_, err := s.db.Exec("UPDATE sessions SET expires_at = ? WHERE token = ?", time.Now().Add(-time.Second).UnixMilli(), token)
	require.NoError(t, err)

	status := s.do(t, http.MethodGet, "/api/user/me", token, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCurrentUserProfile(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "Ann", "ann@example.com")

	var me map[string]interface{}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/user/me", token, nil, &me))
	assert.Equal(t, "Ann", me["name"])
	assert.Equal(t, "ann@example.com", me["email"])
	assert.Contains(t, me, "avatar")
	assert.NotContains(t, me, "password_hash")

	var updated map[string]interface{}
	status := s.do(t, http.MethodPut, "/api/user/me", token, map[string]string{"avatar": "https://img.example/a.png"}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ann", updated["name"])
	assert.Equal(t, "https://img.example/a.png", updated["avatar"])

	status = s.do(t, http.MethodPut, "/api/user/me", token, map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestBoardsAndNotes(t *testing.T) {
	s := newTestServer(t)
	ann := s.signupAndLogin(t, "Ann", "ann@example.com")
	bob := s.signupAndLogin(t, "Bob", "bob@example.com")

	var empty []interface{}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/board/list", ann, nil, &empty))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	boardID := s.createBoard(t, ann, "Ideas")
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/board", ann, map[string]string{"name": "Ideas"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/board", ann, map[string]string{}, nil))
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/board/", bob, map[string]string{"name": "Ideas"}, nil))

	var boards []map[string]interface{}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/board/list", ann, nil, &boards))
	require.Len(t, boards, 1)
	assert.Equal(t, boardID, boards[0]["uuid"])

	var created map[string]string
	status := s.do(t, http.MethodPost, "/api/note", ann, map[string]interface{}{
		"board_id": boardID, "text": "buy milk", "x": 10, "y": 20, "width": 200, "height": 100, "font_size": 18,
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	noteID := created["uuid"]
	require.NotEmpty(t, noteID)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/note", ann, map[string]string{"text": "orphan"}, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/note", bob, map[string]string{"board_id": boardID}, nil))

	var updated models.Note
	status = s.do(t, http.MethodPut, "/api/note/"+noteID, ann, map[string]string{"text": "buy oat milk"}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "buy oat milk", updated.Text)
	assert.Equal(t, 10.0, updated.X)
	assert.Equal(t, 20.0, updated.Y)
	assert.Equal(t, 200.0, updated.Width)
	assert.Equal(t, 100.0, updated.Height)
	assert.Equal(t, 18, updated.FontSize)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, "/api/note/"+noteID, bob, map[string]string{"text": "mine now"}, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/board/"+boardID, bob, nil, nil))

	var detail models.BoardDetail
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/board/"+boardID, ann, nil, &detail))
	assert.Equal(t, "Ideas", detail.Name)
	require.Len(t, detail.Notes, 1)
	assert.Equal(t, "buy oat milk", detail.Notes[0].Text)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/note/"+noteID, bob, nil, nil))
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/note/"+noteID, ann, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/note/"+noteID, ann, nil, nil))
}

func TestLogoutEndsSession(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "Ann", "ann@example.com")

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, "/api/auth/logout", token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/user/me", token, nil, nil))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	var body map[string]interface{}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/health", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, s.URL+"/api/board/list", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://yellownote.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://yellownote.example", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}
