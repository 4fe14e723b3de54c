package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rajgit2024/Chatting-app/internal/auth"
	"github.com/rajgit2024/Chatting-app/internal/database"
	"github.com/rajgit2024/Chatting-app/internal/models"
	"github.com/rajgit2024/Chatting-app/internal/realtime"
	"github.com/rajgit2024/Chatting-app/internal/store"
	"github.com/rajgit2024/Chatting-app/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// setupTest wires an in-memory database and a fresh hub for one test.
func setupTest(t *testing.T) *realtime.Hub {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db

	hub := realtime.Init(store.New(db), realtime.Options{
		TypingWindow:   50 * time.Millisecond,
		ReconcileRetry: 25 * time.Millisecond,
	})
	t.Cleanup(hub.Stop)
	return hub
}

func seedUser(t *testing.T, id, name, email string) models.User {
	t.Helper()
	hash, err := auth.HashPassword("password-" + id)
	require.NoError(t, err)
	user := models.User{ID: id, Name: name, Email: email, Password: hash}
	require.NoError(t, database.GetDB().Create(&user).Error)
	return user
}

func authedRequest(t *testing.T, method, path string, payload any, userID, email string) *http.Request {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	token, err := auth.GenerateToken(userID, email)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// memClient implements realtime.Client for handler tests.
type memClient struct {
	mu     sync.Mutex
	frames [][]byte
}

func (c *memClient) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(message))
	copy(buf, message)
	c.frames = append(c.frames, buf)
	return true
}

func (c *memClient) Close() {}

func (c *memClient) countEvents(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, frame := range c.frames {
		var env realtime.Envelope
		if json.Unmarshal(frame, &env) == nil && env.Event == event {
			count++
		}
	}
	return count
}

// connectUser attaches a live fake connection for a user to the hub.
func connectUser(t *testing.T, hub *realtime.Hub, userID string) *memClient {
	t.Helper()
	client := &memClient{}
	connID := hub.Connect(client)
	require.NoError(t, hub.Identify(connID, userID))
	return client
}
