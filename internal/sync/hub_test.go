package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"apexcarousel/internal/auth"
	"apexcarousel/pkg/database"
	"apexcarousel/pkg/models"
)

type env struct {
	hub    *Hub
	srv    *httptest.Server
	tokens auth.TokenService
	repo   *auth.Repo
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.Open(database.Config{Path: database.Memory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	e := &env{
		hub:    NewHub(nil),
		tokens: auth.TokenService{Secret: []byte("s"), Issuer: "t", Duration: time.Hour},
		repo:   auth.NewRepo(db),
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", WSHandler(e.hub, e.tokens, e.repo))
	e.srv = httptest.NewServer(r)
	return e
}

func (e *env) user(t *testing.T) (string, string) {
	t.Helper()
	u := &auth.User{ID: uuid.NewString(), Email: uuid.NewString() + "@x.io", PasswordHash: "x"}
	require.NoError(t, e.repo.CreateUser(context.Background(), *u))
	tok, _, err := e.tokens.Sign(u)
	require.NoError(t, err)
	return u.ID, tok
}

func (e *env) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var w Welcome
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&w))
	assert.Equal(t, "welcome", w.Type)
	return conn
}

// verifyNoLeaks runs after every other cleanup, including the database close.
func verifyNoLeaks(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, ignore) })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestEventsReachOnlyTheOwner(t *testing.T) {
	verifyNoLeaks(t)

	e := newEnv(t)
	aliceID, aliceTok := e.user(t)
	bobID, bobTok := e.user(t)

	alice := e.dial(t, aliceTok)
	bob := e.dial(t, bobTok)
	waitFor(t, func() bool { return e.hub.Stats().Clients == 2 })

	e.hub.Publish(aliceID, models.GenerationEvent{Type: models.EventGenerationCreated, GenerationID: "g1"})
	e.hub.Publish(bobID, models.GenerationEvent{Type: models.EventGenerationDeleted, GenerationID: "g2"})

	var ev models.GenerationEvent
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, alice.ReadJSON(&ev))
	assert.Equal(t, "g1", ev.GenerationID)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, bob.ReadJSON(&ev))
	assert.Equal(t, "g2", ev.GenerationID)

	require.NoError(t, alice.Close())
	require.NoError(t, bob.Close())
	waitFor(t, func() bool { return e.hub.Stats().Clients == 0 })
	e.srv.Close()
}

func TestRejectsBadToken(t *testing.T) {
	e := newEnv(t)
	defer e.srv.Close()

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	verifyNoLeaks(t)

	e := newEnv(t)
	_, tok := e.user(t)
	conn := e.dial(t, tok)
	waitFor(t, func() bool { return e.hub.Stats().Users == 1 })

	e.hub.Close()
	assert.Equal(t, Stats{}, e.hub.Stats())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	_ = conn.Close()
	e.srv.Close()
}

func TestPublishWithoutClients(t *testing.T) {
	h := NewHub(nil)
	h.Publish("nobody", map[string]any{"bad": make(chan int)})
	h.Publish("nobody", json.RawMessage(`{"ok":true}`))
	assert.Equal(t, Stats{}, h.Stats())
}
