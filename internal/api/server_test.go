package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/huyangdroid/droidpanel/internal/api/models"
	"github.com/huyangdroid/droidpanel/internal/droid"
	"github.com/huyangdroid/droidpanel/internal/events"
	"github.com/huyangdroid/droidpanel/internal/lights"
)

type testServer struct {
	server     *Server
	http       *httptest.Server
	controller *droid.Controller
	store      *droid.TOMLStore
}

func newTestServer(t *testing.T, features droid.Features, user, pass string) *testServer {
	t.Helper()
	store := droid.NewTOML(filepath.Join(t.TempDir(), "droid.toml"))
	bus := events.New()
	ctrl, err := droid.NewController(droid.Options{
		Store:       store,
		Bus:         bus,
		Features:    features,
		RebootDelay: time.Millisecond,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	s := NewServer(&Options{
		AuthUsername: user,
		AuthPassword: pass,
		Controller:   ctrl,
		EventBus:     bus,
	})
	ts := httptest.NewServer(s.GetMux())
	t.Cleanup(ts.Close)
	return &testServer{server: s, http: ts, controller: ctrl, store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, header http.Header) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.http.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, data
}

func decodeResult(t *testing.T, data []byte) models.CommandResult {
	t.Helper()
	var res models.CommandResult
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("Invalid command response %s: %v", data, err)
	}
	return res
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, droid.AllFeatures(), "", "")
	code, data := ts.do(t, http.MethodGet, "/api/health", nil, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", code, data)
	}
	var health models.HealthData
	if err := json.Unmarshal(data, &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" {
		t.Errorf("Expected status ok, got %q", health.Status)
	}
}

func TestGetState(t *testing.T) {
	ts := newTestServer(t, droid.AllFeatures(), "", "")
	code, data := ts.do(t, http.MethodGet, "/api/calibration", nil, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", code, data)
	}
	var st models.DroidState
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatal(err)
	}
	if st.Face.LeftEye != int(droid.EyeOpen) || st.Face.RightEye != int(droid.EyeOpen) {
		t.Errorf("Expected open eyes, got %+v", st.Face)
	}
	if st.RobotName != droid.DefaultRobotName {
		t.Errorf("Expected default robot name, got %q", st.RobotName)
	}
	if !st.Features.TorsoLights {
		t.Error("Expected torso lights feature enabled")
	}
}

func TestAction(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]any
		code    int
		message string
	}{
		{"eye all", map[string]any{"type": "eye", "target": "all", "state": 3}, 200, "Eye command received"},
		{"eye default target", map[string]any{"type": "eye", "state": 5}, 200, "Eye command received"},
		{"eye bad target", map[string]any{"type": "eye", "target": "middle", "state": 1}, 400, ""},
		{"eye bad state", map[string]any{"type": "eye", "state": 42}, 400, ""},
		{"eye state string", map[string]any{"type": "eye", "state": "blink"}, 400, ""},
		{"neck", map[string]any{"type": "neck", "rotate": 50, "tiltForward": -50}, 200, "Neck command received"},
		{"body", map[string]any{"type": "body", "rotate": -100}, 200, "Body command received"},
		{"monocle", map[string]any{"type": "monocle", "position": 70}, 200, "Monocle command received"},
		{"automatic", map[string]any{"type": "automatic", "state": true}, 200, "Automatic mode updated"},
		{"unknown", map[string]any{"type": "wave"}, 400, ""},
	}

	ts := newTestServer(t, droid.AllFeatures(), "", "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, data := ts.do(t, http.MethodPost, "/api/action", tt.body, nil)
			if code != tt.code {
				t.Fatalf("Expected %d, got %d: %s", tt.code, code, data)
			}
			if tt.message == "" {
				return
			}
			res := decodeResult(t, data)
			if res.Status != models.StatusSuccess || res.Message != tt.message {
				t.Errorf("Expected success %q, got %+v", tt.message, res)
			}
		})
	}

	st := ts.controller.State()
	if st.Neck.Rotate != 45 || st.Neck.TiltForward != -45 {
		t.Errorf("Expected neck 45/-45, got %+v", st.Neck)
	}
	if st.Body.Rotate != -90 {
		t.Errorf("Expected body rotate -90, got %d", st.Body.Rotate)
	}
	if st.MonoclePosition != 70 {
		t.Errorf("Expected monocle 70, got %d", st.MonoclePosition)
	}
	if !st.Automatic {
		t.Error("Expected automatic enabled")
	}
	if st.LeftEye != droid.EyeSad {
		t.Errorf("Expected sad eyes, got %v", st.LeftEye)
	}
}

func TestActionDisabledFeature(t *testing.T) {
	ts := newTestServer(t, droid.Features{}, "", "")
	code, data := ts.do(t, http.MethodPost, "/api/action", map[string]any{"type": "neck", "rotate": 10}, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", code, data)
	}
	if !strings.Contains(string(data), unknownCommandType) {
		t.Errorf("Expected %q in response, got %s", unknownCommandType, data)
	}
}

func TestLights(t *testing.T) {
	ts := newTestServer(t, droid.AllFeatures(), "", "")

	code, data := ts.do(t, http.MethodPost, "/api/lights", map[string]any{"mode": 4}, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", code, data)
	}
	if res := decodeResult(t, data); res.Message != "Chest light mode updated" {
		t.Errorf("Unexpected message %q", res.Message)
	}
	if got := ts.controller.State().ChestLight; got != lights.Droid1 {
		t.Errorf("Expected mode %v, got %v", lights.Droid1, got)
	}

	code, _ = ts.do(t, http.MethodPost, "/api/lights", map[string]any{"mode": 9}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown mode, got %d", code)
	}
	if got := ts.controller.State().ChestLight; got != lights.Droid1 {
		t.Errorf("Unknown mode changed state to %v", got)
	}
}

func TestLightsDisabled(t *testing.T) {
	ts := newTestServer(t, droid.Features{Eyes: true}, "", "")
	code, data := ts.do(t, http.MethodPost, "/api/lights", map[string]any{"mode": 1}, nil)
	if code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d: %s", code, data)
	}
	if !strings.Contains(string(data), "Chest lights disabled") {
		t.Errorf("Expected disabled message, got %s", data)
	}
}

func TestCalibrate(t *testing.T) {
	ts := newTestServer(t, droid.AllFeatures(), "", "")

	steps := []struct {
		body    map[string]any
		code    int
		message string
	}{
		{map[string]any{"action": "update", "type": "neck", "rotation": 5}, 200, "Calibration update received"},
		{map[string]any{"action": "update", "type": "monocle", "position": -3}, 200, "Calibration update received"},
		{map[string]any{"action": "update", "type": "tail", "rotation": 1}, 400, ""},
		{map[string]any{"action": "save"}, 200, "Calibration saved"},
		{map[string]any{"action": "set_middle_and_lock"}, 200, "Set middle and lock command received"},
		{map[string]any{"action": "unlock_servos"}, 200, "Unlock servos command received"},
		{map[string]any{"action": "dance"}, 400, ""},
	}
	for _, step := range steps {
		code, data := ts.do(t, http.MethodPost, "/api/calibrate", step.body, nil)
		if code != step.code {
			t.Fatalf("%v: expected %d, got %d: %s", step.body, step.code, code, data)
		}
		if step.message != "" {
			if res := decodeResult(t, data); res.Message != step.message {
				t.Errorf("%v: expected %q, got %q", step.body, step.message, res.Message)
			}
		}
	}

	p, err := ts.store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if p.Calibration.NeckRotation != 5 || p.Calibration.Monocle != -3 {
		t.Errorf("Expected saved offsets, got %+v", p.Calibration)
	}

	code, data := ts.do(t, http.MethodPost, "/api/calibrate", map[string]any{"action": "reset"}, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", code, data)
	}
	if got := ts.controller.State().Calibration; got != (droid.Calibration{}) {
		t.Errorf("Expected zero calibration after reset, got %+v", got)
	}
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t, droid.AllFeatures(), "", "")

	code, data := ts.do(t, http.MethodPost, "/api/settings", map[string]any{"robotName": "Huyang"}, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", code, data)
	}
	if res := decodeResult(t, data); res.Message != "Settings updated" {
		t.Errorf("Unexpected message %q", res.Message)
	}
	st := ts.controller.State().Settings
	if st.RobotName != "Huyang" || st.MasterMovementSpeed != 100 {
		t.Errorf("Expected name change only, got %+v", st)
	}

	code, _ = ts.do(t, http.MethodPost, "/api/settings", map[string]any{"masterMovementSpeed": 400}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("Expected 400 for speed out of range, got %d", code)
	}
}

func TestSystem(t *testing.T) {
	ts := newTestServer(t, droid.AllFeatures(), "", "")

	tests := []struct {
		command string
		code    int
		message string
	}{
		{"reboot", 200, "Rebooting..."},
		{"factory_reset", 200, "Factory reset and rebooting..."},
		{"shutdown", 400, ""},
	}
	for _, tt := range tests {
		code, data := ts.do(t, http.MethodPost, "/api/system", map[string]any{"command": tt.command}, nil)
		if code != tt.code {
			t.Fatalf("%s: expected %d, got %d: %s", tt.command, tt.code, code, data)
		}
		if tt.message != "" {
			if res := decodeResult(t, data); res.Message != tt.message {
				t.Errorf("%s: expected %q, got %q", tt.command, tt.message, res.Message)
			}
		}
	}
}

func TestBasicAuth(t *testing.T) {
	ts := newTestServer(t, droid.AllFeatures(), "droid", "secret")
	creds := base64.StdEncoding.EncodeToString([]byte("droid:secret"))
	wrong := base64.StdEncoding.EncodeToString([]byte("droid:nope"))

	tests := []struct {
		name   string
		path   string
		header http.Header
		code   int
	}{
		{"health is public", "/api/health", nil, 200},
		{"missing credentials", "/api/calibration", nil, 401},
		{"wrong password", "/api/calibration", http.Header{"Authorization": {"Basic " + wrong}}, 401},
		{"bearer token", "/api/calibration", http.Header{"Authorization": {"Bearer abc"}}, 401},
		{"header", "/api/calibration", http.Header{"Authorization": {"Basic " + creds}}, 200},
		{"query", "/api/calibration?auth=" + creds, nil, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, data := ts.do(t, http.MethodGet, tt.path, nil, tt.header)
			if code != tt.code {
				t.Errorf("Expected %d, got %d: %s", tt.code, code, data)
			}
		})
	}
}

func TestRequestCredentials(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString([]byte("a:b"))
	tests := []struct {
		header, query string
		want          string
		wantErr       bool
	}{
		{header: "Basic " + enc, want: "a:b"},
		{query: enc, want: "a:b"},
		{header: "Basic " + enc, query: "garbage", want: "a:b"},
		{header: "Token " + enc, wantErr: true},
		{query: "%%%", wantErr: true},
		{wantErr: true},
	}
	for _, tt := range tests {
		got, err := requestCredentials(tt.header, tt.query)
		if (err != nil) != tt.wantErr {
			t.Errorf("requestCredentials(%q, %q) error = %v, wantErr %v", tt.header, tt.query, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("requestCredentials(%q, %q) = %q, want %q", tt.header, tt.query, got, tt.want)
		}
	}
}

func dialStick(t *testing.T, ts *testServer, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/api/stick" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func stickRoundTrip(t *testing.T, conn *websocket.Conn, frame any) StickReply {
	t.Helper()
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply StickReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return reply
}

func TestStickWebsocket(t *testing.T) {
	ts := newTestServer(t, droid.AllFeatures(), "", "")
	conn := dialStick(t, ts, "")

	reply := stickRoundTrip(t, conn, StickFrame{Type: "neck", X: 100, Y: -100})
	if reply.Type != StickReplyPose || reply.Part != "neck" {
		t.Fatalf("Expected neck pose, got %+v", reply)
	}
	if reply.Rotate != 90 || reply.TiltForward != -90 || reply.TiltSideways != 0 {
		t.Errorf("Expected 90/-90/0, got %+v", reply)
	}
	if got := ts.controller.State().Neck; got.Rotate != 90 || got.TiltForward != -90 {
		t.Errorf("Controller not updated, got %+v", got)
	}

	reply = stickRoundTrip(t, conn, StickFrame{Type: "body", X: -50, Y: 0})
	if reply.Type != StickReplyPose || reply.Rotate != -45 {
		t.Errorf("Expected body rotate -45, got %+v", reply)
	}

	reply = stickRoundTrip(t, conn, StickFrame{Type: "tail"})
	if reply.Type != StickReplyError || reply.Message != unknownCommandType {
		t.Errorf("Expected unknown type error, got %+v", reply)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	var bad StickReply
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&bad); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if bad.Type != StickReplyError {
		t.Errorf("Expected error reply for invalid frame, got %+v", bad)
	}
}

func TestStickWebsocketDisabled(t *testing.T) {
	ts := newTestServer(t, droid.Features{Eyes: true}, "", "")
	conn := dialStick(t, ts, "")

	reply := stickRoundTrip(t, conn, StickFrame{Type: "body", X: 10})
	if reply.Type != StickReplyError || reply.Message != unknownCommandType {
		t.Errorf("Expected disabled error, got %+v", reply)
	}
}

func TestStickWebsocketAuth(t *testing.T) {
	ts := newTestServer(t, droid.AllFeatures(), "droid", "secret")
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/api/stick"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Expected dial without credentials to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %v", resp)
	}

	creds := base64.StdEncoding.EncodeToString([]byte("droid:secret"))
	conn := dialStick(t, ts, "?auth="+creds)
	reply := stickRoundTrip(t, conn, StickFrame{Type: "neck"})
	if reply.Type != StickReplyPose {
		t.Errorf("Expected pose reply, got %+v", reply)
	}
}
