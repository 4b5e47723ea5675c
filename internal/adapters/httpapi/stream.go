package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nap-labs/napguard/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The daemon serves a LAN control surface; origins are not filtered.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

// timerStream upgrades to a websocket and pushes the countdown status:
// the current value on connect, then one message per change. Intermediate
// values coalesce when the client is slow; only the latest status matters.
func (s *Server) timerStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Err(err))
		return
	}
	defer conn.Close()

	watcher := s.feed.Watch()
	defer watcher.Close()

	// Reader goroutine: drains control frames and signals disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func() bool {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(watcher.Latest()); err != nil {
			return false
		}
		return true
	}

	if !write() {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-watcher.Changes():
			if !write() {
				return
			}
		}
	}
}
