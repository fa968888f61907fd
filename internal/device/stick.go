package device

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/huyangdroid/droidpanel/internal/api"
)

// StickConn is an open /api/stick websocket.
type StickConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// DialStick opens the stick channel. Credentials travel in the auth query
// parameter.
func (c *Client) DialStick(ctx context.Context) (*StickConn, error) {
	u, err := url.Parse(c.baseURL + "/api/stick")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if c.username != "" {
		q := u.Query()
		q.Set("auth", c.credentials())
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, &APIError{Status: resp.StatusCode, Detail: strings.TrimSpace(resp.Status)}
		}
		return nil, fmt.Errorf("failed to dial stick channel: %w", err)
	}
	return &StickConn{conn: conn}, nil
}

// Send writes one frame and waits for the daemon's reply.
func (s *StickConn) Send(part string, x, y float64) (api.StickReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reply api.StickReply
	_ = s.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := s.conn.WriteJSON(api.StickFrame{Type: part, X: x, Y: y}); err != nil {
		return reply, fmt.Errorf("failed to send stick frame: %w", err)
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := s.conn.ReadJSON(&reply); err != nil {
		return reply, fmt.Errorf("failed to read stick reply: %w", err)
	}
	if reply.Type == api.StickReplyError {
		return reply, fmt.Errorf("stick frame rejected: %s", reply.Message)
	}
	return reply, nil
}

// Close sends a close frame and closes the connection.
func (s *StickConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}
