package sync

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"apexcarousel/internal/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler authenticates with ?token= (browsers cannot set headers on a
// websocket handshake) or a bearer header, then streams the user's events.
func WSHandler(hub *Hub, tokens auth.TokenService, repo *auth.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("token")
		if raw == "" {
			if h := c.GetHeader("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
				raw = strings.TrimSpace(h[7:])
			}
		}
		claims, err := auth.Authenticate(c.Request.Context(), tokens, repo, raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		welcome, _ := json.Marshal(Welcome{Type: "welcome", UserID: claims.UserID, At: time.Now().UTC()})
		cl := hub.register(claims.UserID, ws, welcome)
		go cl.writePump()
		hub.log.Debug("ws client connected", zap.String("user_id", claims.UserID))

		ws.SetReadLimit(512)
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
		// incoming messages are ignored; the loop only detects disconnects
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.unregister(cl)
		hub.log.Debug("ws client disconnected", zap.String("user_id", claims.UserID))
	}
}
