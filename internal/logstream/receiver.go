package logstream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Request is the first and only message sent on a console stream.
type Request struct {
	UUID    string `json:"uuid"`
	Logfile string `json:"logfile,omitempty"`
}

// Receiver opens console streams.
type Receiver struct {
	Dialer *websocket.Dialer
	Header http.Header
}

// NewReceiver returns a receiver with a bounded handshake.
func NewReceiver() *Receiver {
	return &Receiver{
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		},
	}
}

// Stream connects to url, asks for the console of req and appends every
// message to buf as one line until the socket closes, fails or ctx is done.
// The buffer always ends with EndOfStream. The returned error is only
// informational: a failure and a normal close leave the buffer alike.
func (r *Receiver) Stream(ctx context.Context, url string, req Request, buf *Buffer) error {
	defer buf.Close()

	if req.UUID == "" {
		return errors.New("build uuid is required")
	}

	dialer := r.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, url, r.Header)
	if err != nil {
		log.Printf("[Stream] dial %s failed: %v", url, err)
		return fmt.Errorf("failed to connect console stream: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	if err := conn.WriteJSON(req); err != nil {
		log.Printf("[Stream] send request failed: %v", err)
		return fmt.Errorf("failed to send stream request: %w", err)
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			log.Printf("[Stream] read failed: %v", err)
			return err
		}
		buf.Append(string(message))
	}
}
