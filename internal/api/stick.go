package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/huyangdroid/droidpanel/internal/droid"
	"github.com/huyangdroid/droidpanel/internal/metrics"
)

const (
	stickReadTimeout  = 60 * time.Second
	stickWriteTimeout = 10 * time.Second
	stickPingInterval = 30 * time.Second
	stickReadLimit    = 4096
)

// StickFrame is one joystick reading sent over /api/stick.
// X drives rotation and Y the forward tilt, both in [-100, 100].
type StickFrame struct {
	Type         string   `json:"type"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	TiltSideways *float64 `json:"tiltSideways,omitempty"`
}

// StickReply answers every frame with the applied pose or an error.
type StickReply struct {
	Type         string `json:"type"`
	Part         string `json:"part,omitempty"`
	Rotate       int    `json:"rotate"`
	TiltForward  int    `json:"tiltForward"`
	TiltSideways int    `json:"tiltSideways"`
	Message      string `json:"message,omitempty"`
}

// Reply types.
const (
	StickReplyPose  = "pose"
	StickReplyError = "error"
)

type stickClient struct {
	conn   *websocket.Conn
	server *Server
	send   chan StickReply
}

// registerStickRoutes mounts the websocket stick channel next to the huma routes.
func (s *Server) registerStickRoutes() {
	s.mux.HandleFunc("GET /api/stick", s.handleStick)
}

func (s *Server) handleStick(w http.ResponseWriter, r *http.Request) {
	if s.options.AuthUsername != "" && s.options.AuthPassword != "" {
		credentials, err := requestCredentials(r.Header.Get("Authorization"), r.URL.Query().Get("auth"))
		if err != nil || credentials != s.options.AuthUsername+":"+s.options.AuthPassword {
			w.Header().Set("WWW-Authenticate", authRealm)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Stick websocket upgrade failed", "error", err)
		return
	}

	client := &stickClient{
		conn:   conn,
		server: s,
		send:   make(chan StickReply, 16),
	}
	metrics.StickClientConnected(1)
	s.logger.Info("Stick client connected", "remote_addr", r.RemoteAddr)

	go client.writePump()
	client.readPump()

	metrics.StickClientConnected(-1)
	s.logger.Info("Stick client disconnected", "remote_addr", r.RemoteAddr)
}

func (c *stickClient) readPump() {
	defer close(c.send)

	c.conn.SetReadLimit(stickReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(stickReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(stickReadTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Debug("Stick websocket closed", "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(stickReadTimeout))

		reply := c.server.applyStickFrame(data)
		select {
		case c.send <- reply:
		default:
			// Writer is behind; newer replies supersede this one.
		}
	}
}

func (c *stickClient) writePump() {
	ticker := time.NewTicker(stickPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case reply, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(stickWriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(reply); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(stickWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// applyStickFrame moves the droid for one frame.
func (s *Server) applyStickFrame(data []byte) StickReply {
	metrics.RecordStickFrame()

	var frame StickFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return StickReply{Type: StickReplyError, Message: "invalid frame"}
	}

	var part droid.Part
	switch frame.Type {
	case string(droid.Neck):
		part = droid.Neck
	case string(droid.Body):
		part = droid.Body
	default:
		record("unknown", droid.ErrUnknownCommand)
		return StickReply{Type: StickReplyError, Message: unknownCommandType}
	}

	axes, err := s.controller.Move(part, frame.X, frame.Y, value(frame.TiltSideways))
	record(frame.Type, err)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, droid.ErrDisabled) {
			msg = unknownCommandType
		}
		return StickReply{Type: StickReplyError, Part: frame.Type, Message: msg}
	}

	return StickReply{
		Type:         StickReplyPose,
		Part:         frame.Type,
		Rotate:       axes.Rotate,
		TiltForward:  axes.TiltForward,
		TiltSideways: axes.TiltSideways,
	}
}
