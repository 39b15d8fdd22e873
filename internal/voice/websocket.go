package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketRecognizer streams transcripts from a speech service over a
// websocket. The service sends JSON frames:
//
//	{"type":"transcript","text":"...","final":true}
//	{"type":"error","code":"no-speech","message":"..."}
//	{"type":"end"}
type WebSocketRecognizer struct {
	conn             *websocket.Conn
	header           http.Header
	logger           *slog.Logger
	url              string
	handshakeTimeout time.Duration
	mu               sync.Mutex
}

// NewWebSocketRecognizer creates a recognizer for the service at url.
func NewWebSocketRecognizer(url string, header http.Header, logger *slog.Logger) *WebSocketRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketRecognizer{
		url:              url,
		header:           header,
		logger:           logger,
		handshakeTimeout: 10 * time.Second,
	}
}

// Supported reports whether a service URL is configured.
func (r *WebSocketRecognizer) Supported() bool {
	return r.url != ""
}

// Start dials the service and asks it to begin recognition.
func (r *WebSocketRecognizer) Start(ctx context.Context) (<-chan Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil, fmt.Errorf("websocket recognizer already started")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: r.handshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, r.url, r.header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, fmt.Errorf("%w: status %d", ErrPermissionDenied, resp.StatusCode)
			}
			return nil, fmt.Errorf("%w: dial status %d: %v", ErrNetwork, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if err := conn.WriteJSON(frame{Type: frameStart}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: failed to send start frame: %v", ErrNetwork, err)
	}

	r.conn = conn
	events := make(chan Event)

	go r.read(ctx, conn, events)

	return events, nil
}

func (r *WebSocketRecognizer) read(ctx context.Context, conn *websocket.Conn, events chan<- Event) {
	defer close(events)
	defer func() {
		r.mu.Lock()
		if r.conn == conn {
			r.conn = nil
		}
		r.mu.Unlock()
		_ = conn.Close()
	}()

	// Unblock ReadJSON when the session is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			r.logger.Debug("speech stream read failed", "error", err)
			select {
			case events <- Event{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}:
			case <-ctx.Done():
			}
			return
		}

		ev, ok, end := f.event()
		if end {
			return
		}
		if !ok {
			continue
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Stop asks the service to end recognition and closes the connection.
func (r *WebSocketRecognizer) Stop() error {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()

	if conn == nil {
		return nil
	}

	deadline := time.Now().Add(time.Second)
	writeErr := conn.SetWriteDeadline(deadline)
	if writeErr == nil {
		writeErr = conn.WriteJSON(frame{Type: frameStop})
	}
	if writeErr == nil {
		writeErr = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	}

	closeErr := conn.Close()
	if writeErr != nil && !closedConn(writeErr) {
		return fmt.Errorf("failed to stop speech stream: %w", writeErr)
	}
	if closeErr != nil && !closedConn(closeErr) {
		return closeErr
	}
	return nil
}

// closedConn reports errors caused by the session context closing the
// connection first.
func closedConn(err error) bool {
	return errors.Is(err, websocket.ErrCloseSent) || errors.Is(err, net.ErrClosed)
}
