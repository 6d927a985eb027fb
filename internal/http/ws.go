package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/handshakehq/handshake-core/internal/http/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// clientFrame is the only message clients send upstream. Everything else is
// server push.
type clientFrame struct {
	Type     string `json:"type"`
	IsTyping bool   `json:"is_typing"`
}

// jobRequestWS upgrades a participant to a live event stream for one job
// request: status hints, new-message hints and typing presence.
func (h *Handler) jobRequestWS(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	// Participation check before the upgrade; non-participants never get a
	// socket.
	if _, err := h.negotiations.GetJobRequest(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	events, cancel := h.hub.Subscribe(id, principal.UserID)
	defer cancel()
	defer conn.Close()

	done := make(chan struct{})

	// Write side: hub events plus keepalive pings.
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case evt, open := <-events:
				if !open {
					return
				}
				payload, err := json.Marshal(evt)
				if err != nil {
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Read side: typing frames only. Close on any read error.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		if frame.Type == "typing" {
			h.hub.SetTyping(id, principal.UserID, principal.DisplayName, frame.IsTyping)
		}
	}

	close(done)
	h.hub.SetTyping(id, principal.UserID, principal.DisplayName, false)
}
