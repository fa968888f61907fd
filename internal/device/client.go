// Package device is the HTTP client of the droid command API, used by the
// control panel and the send command.
package device

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/huyangdroid/droidpanel/internal/api/models"
	"github.com/huyangdroid/droidpanel/internal/logging"
)

// Client talks to a droid daemon.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger

	// Health monitoring
	mu           sync.RWMutex
	online       bool
	onChange     func(online bool)
	healthTicker *time.Ticker
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithBasicAuth sends credentials with every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithHTTPClient replaces the default client, which times out after 5s.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the daemon at baseURL, e.g. http://huyang.local:8090.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logging.GetLogger("device"),
		stopChan:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the daemon address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is a non-2xx reply from the daemon.
type APIError struct {
	Status int
	Title  string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("droid API %d: %s", e.Status, e.Detail)
	}
	if e.Title != "" {
		return fmt.Sprintf("droid API %d: %s", e.Status, e.Title)
	}
	return fmt.Sprintf("droid API status %d", e.Status)
}

func (c *Client) credentials() string {
	return base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.Header.Set("Authorization", "Basic "+c.credentials())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var problem struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &problem) == nil {
			apiErr.Title = problem.Title
			apiErr.Detail = problem.Detail
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) command(ctx context.Context, path string, body any) (models.CommandResult, error) {
	var res models.CommandResult
	err := c.do(ctx, http.MethodPost, path, body, &res)
	if err == nil {
		c.logger.Debug("Command sent", "path", path, "message", res.Message)
	}
	return res, err
}

// State fetches the full droid snapshot.
func (c *Client) State(ctx context.Context) (models.DroidState, error) {
	var st models.DroidState
	err := c.do(ctx, http.MethodGet, "/api/calibration", nil, &st)
	return st, err
}

// Health checks the daemon health endpoint.
func (c *Client) Health(ctx context.Context) (models.HealthData, error) {
	var h models.HealthData
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &h)
	return h, err
}

// Action sends one /api/action command.
func (c *Client) Action(ctx context.Context, a models.ActionData) (models.CommandResult, error) {
	return c.command(ctx, "/api/action", a)
}

// Move sends a neck or body pose in stick percentages.
func (c *Client) Move(ctx context.Context, part string, rotate, tiltForward, tiltSideways float64) (models.CommandResult, error) {
	return c.Action(ctx, models.ActionData{
		Type:         part,
		Rotate:       &rotate,
		TiltForward:  &tiltForward,
		TiltSideways: &tiltSideways,
	})
}

// Eyes sets the eye state on "all", "left" or "right".
func (c *Client) Eyes(ctx context.Context, target string, state int) (models.CommandResult, error) {
	return c.Action(ctx, models.ActionData{Type: models.ActionEye, Target: target, State: state})
}

// Automatic toggles automatic animations.
func (c *Client) Automatic(ctx context.Context, enabled bool) (models.CommandResult, error) {
	return c.Action(ctx, models.ActionData{Type: models.ActionAutomatic, State: enabled})
}

// Monocle moves the monocle.
func (c *Client) Monocle(ctx context.Context, position int) (models.CommandResult, error) {
	return c.Action(ctx, models.ActionData{Type: models.ActionMonocle, Position: &position})
}

// Lights sets the chest light mode.
func (c *Client) Lights(ctx context.Context, mode int) (models.CommandResult, error) {
	return c.command(ctx, "/api/lights", models.LightsData{Mode: mode})
}

// Calibrate sends one /api/calibrate command.
func (c *Client) Calibrate(ctx context.Context, data models.CalibrateData) (models.CommandResult, error) {
	return c.command(ctx, "/api/calibrate", data)
}

// Settings updates the keys set in data.
func (c *Client) Settings(ctx context.Context, data models.SettingsData) (models.CommandResult, error) {
	return c.command(ctx, "/api/settings", data)
}

// System sends "reboot" or "factory_reset".
func (c *Client) System(ctx context.Context, command string) (models.CommandResult, error) {
	return c.command(ctx, "/api/system", models.SystemData{Command: command})
}

// Online reports the last health check result.
func (c *Client) Online() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// StartHealthMonitor polls /api/health every interval and calls onChange
// when the daemon goes offline or comes back.
func (c *Client) StartHealthMonitor(interval time.Duration, onChange func(online bool)) {
	c.onChange = onChange
	c.healthTicker = time.NewTicker(interval)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		c.checkHealth()

		for {
			select {
			case <-c.healthTicker.C:
				c.checkHealth()
			case <-c.stopChan:
				return
			}
		}
	}()
}

func (c *Client) checkHealth() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Health(ctx)
	online := err == nil

	c.mu.Lock()
	changed := online != c.online
	c.online = online
	c.mu.Unlock()

	if !changed {
		return
	}
	if online {
		c.logger.Info("Droid API is online", "url", c.baseURL)
	} else {
		c.logger.Warn("Droid API is unavailable", "url", c.baseURL, "error", err)
	}
	if c.onChange != nil {
		c.onChange(online)
	}
}

// Stop stops the health monitor.
func (c *Client) Stop() {
	if c.healthTicker != nil {
		c.healthTicker.Stop()
	}
	select {
	case <-c.stopChan:
	default:
		close(c.stopChan)
	}
	c.wg.Wait()
}
