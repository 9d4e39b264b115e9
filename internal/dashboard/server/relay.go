package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blankon/cidash/internal/logstream"
)

const relayWriteTimeout = 10 * time.Second

// consoleRelayHandler streams a build console to the browser. The browser
// sends one {uuid, logfile} message, then receives one text message per
// line until the end of stream marker.
func (s *Server) consoleRelayHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[consoleRelayHandler] upgrade: %v", err)
		return
	}
	defer conn.Close()

	var req logstream.Request
	if err := conn.ReadJSON(&req); err != nil {
		log.Printf("[consoleRelayHandler] read request: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The browser closing its side ends the relay.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	buf := logstream.NewBuffer()
	buf.SetAutoscroll(true, func(index int, line string) {
		conn.SetWriteDeadline(time.Now().Add(relayWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			log.Printf("[consoleRelayHandler] write line %d: %v", index, err)
			cancel()
		}
	})

	if err := uc.StreamConsole(ctx, req, buf); err != nil {
		log.Printf("[consoleRelayHandler] stream %s: %v", req.UUID, err)
	}

	conn.SetWriteDeadline(time.Now().Add(relayWriteTimeout))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
