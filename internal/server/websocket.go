package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/flarebyte/shiftlog/internal/log"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket streams hub messages to one app window.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.GetLogger().WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	messages := s.deps.Hub.Subscribe()
	defer s.deps.Hub.Unsubscribe(messages)
	log.GetLogger().WithField("remote", c.Request.RemoteAddr).Info("websocket connected")

	// Read pump: only watches for the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			log.GetLogger().WithField("remote", c.Request.RemoteAddr).Info("websocket dropped")
			return
		case m, ok := <-messages:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				log.GetLogger().WithError(err).Warn("websocket write failed")
				return
			}
		}
	}
}
