package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// websocketHandler upgrades the connection and streams one snapshot per
// sampling tick until the client disconnects or falls too far behind.
func (a *API) websocketHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// The server's per-request deadlines do not apply to a hijacked
	// connection; clear the read deadline so idle clients stay up.
	_ = conn.SetReadDeadline(time.Time{})

	sub := a.hub.Subscribe()
	defer a.hub.Unsubscribe(sub)

	a.logger.Info("ws client connected", "id", sub.ID, "ip", c.ClientIP())

	// Drain incoming frames so close messages are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Send the latest snapshot immediately so the client does not wait
	// a full interval for its first frame.
	if snap, ok := a.stats.Latest(); ok {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(snap); err != nil {
			return
		}
	}

	for {
		select {
		case snap, ok := <-sub.C:
			if !ok {
				// Evicted by the hub as a slow consumer.
				a.logger.Info("ws client dropped", "id", sub.ID)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(snap); err != nil {
				a.logger.Info("ws client disconnected", "id", sub.ID, "error", err)
				return
			}
		case <-done:
			a.logger.Info("ws client disconnected", "id", sub.ID)
			return
		}
	}
}
