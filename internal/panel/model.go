// Package panel is the terminal control panel: two mouse-driven joysticks
// for the neck and body, a live preview of the chest lights, a stick history
// chart and the tail of the log buffer. Every change is forwarded to the
// droid daemon without waiting for the reply.
package panel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/huyangdroid/droidpanel/internal/api/models"
	"github.com/huyangdroid/droidpanel/internal/joystick"
	"github.com/huyangdroid/droidpanel/internal/lights"
	"github.com/huyangdroid/droidpanel/internal/logging"
	"github.com/huyangdroid/droidpanel/internal/schedule"
	"github.com/huyangdroid/droidpanel/internal/session"
)

// Layout, in terminal cells.
const (
	headerHeight = 3 // title, status, blank
	stickCols    = 30
	stickRows    = 15
	stickGap     = 4
	chartHeight  = 8
	maxLogs      = 5
	borderSize   = 2

	stickSize    = stickCols * cellWidth
	tickInterval = 50 * time.Millisecond
	maxMonocle   = 180
	monocleStep  = 10

	commandQueueSize = 64
)

// Chart data sets.
const (
	seriesNeckX = "neck-x"
	seriesNeckY = "neck-y"
	seriesBodyX = "body-x"
	seriesBodyY = "body-y"
)

var seriesColors = map[string]string{
	seriesNeckX: "51",  // cyan
	seriesNeckY: "45",  // light blue
	seriesBodyX: "208", // orange
	seriesBodyY: "226", // yellow
}

var seriesOrder = []string{seriesNeckX, seriesNeckY, seriesBodyX, seriesBodyY}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Commander sends droid commands. *device.Client implements it.
type Commander interface {
	State(ctx context.Context) (models.DroidState, error)
	Move(ctx context.Context, part string, rotate, tiltForward, tiltSideways float64) (models.CommandResult, error)
	Eyes(ctx context.Context, target string, state int) (models.CommandResult, error)
	Automatic(ctx context.Context, enabled bool) (models.CommandResult, error)
	Monocle(ctx context.Context, position int) (models.CommandResult, error)
	Lights(ctx context.Context, mode int) (models.CommandResult, error)
}

// Options configures a Model.
type Options struct {
	Client Commander
	// Buffer feeds the log box. Defaults to the global log buffer.
	Buffer *logging.RingBuffer
	// Timeout bounds each forwarded command. Defaults to 2s.
	Timeout time.Duration
	// Scheduler drives the chest light preview. Defaults to a realtime scheduler.
	Scheduler schedule.Scheduler
}

// Model is the bubbletea model of the panel.
type Model struct {
	client  Commander
	session *session.Session
	timeout time.Duration
	logger  *slog.Logger
	buffer  *logging.RingBuffer

	neckSurface *Surface
	bodySurface *Surface
	neck        *joystick.Widget
	body        *joystick.Widget

	sched schedule.Scheduler
	seq   *lights.Sequencer
	led1  *previewLED
	led2  *previewLED

	chart      *streamlinechart.Model
	lastPushed [4]float64
	pushed     bool

	commands  chan command
	inflight  sync.WaitGroup
	closeOnce sync.Once
	online    bool
	width     int
	height    int
	quitting  bool
}

// Messages
type (
	stateMsg  models.DroidState
	tickMsg   time.Time
	onlineMsg bool
)

// NewModel builds the panel. The chest light preview starts in the
// session's default mode.
func NewModel(opts Options) (*Model, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("panel: client is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.Buffer == nil {
		opts.Buffer = logging.GetBuffer()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.NewRealtime()
	}

	m := &Model{
		client:      opts.Client,
		session:     session.New(),
		timeout:     opts.Timeout,
		logger:      logging.GetLogger("panel"),
		buffer:      opts.Buffer,
		neckSurface: NewSurface(0, headerHeight, stickCols, stickRows),
		bodySurface: NewSurface(stickCols+stickGap, headerHeight, stickCols, stickRows),
		sched:       opts.Scheduler,
		led1:        newPreviewLED(),
		led2:        newPreviewLED(),
		commands:    make(chan command, commandQueueSize),
	}

	var err error
	m.neck, err = joystick.New(m.neckSurface, joystick.Config{Size: stickSize}, m.onNeck)
	if err != nil {
		return nil, err
	}
	m.body, err = joystick.New(m.bodySurface, joystick.Config{Size: stickSize}, m.onBody)
	if err != nil {
		return nil, err
	}

	m.seq = lights.New(m.sched, m.led1, m.led2, logging.GetLogger("lights"))
	if err := m.seq.SetMode(m.session.Snapshot().LightMode); err != nil {
		return nil, err
	}

	chart := streamlinechart.New(2*stickCols+stickGap, chartHeight,
		streamlinechart.WithYRange(-100, 100),
	)
	for _, name := range seriesOrder {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name]))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}
	m.chart = &chart

	go m.runSender()
	return m, nil
}

// Session exposes the panel's view of the droid.
func (m *Model) Session() *session.Session {
	return m.session
}

func (m *Model) onNeck(r joystick.Reading) {
	if m.session.ChangedNeck(r) {
		m.forward("neck", func(ctx context.Context) (models.CommandResult, error) {
			return m.client.Move(ctx, "neck", r.X, r.Y, 0)
		})
	}
}

func (m *Model) onBody(r joystick.Reading) {
	if m.session.ChangedBody(r) {
		m.forward("body", func(ctx context.Context) (models.CommandResult, error) {
			return m.client.Move(ctx, "body", r.X, r.Y, 0)
		})
	}
}

type command struct {
	name string
	send func(ctx context.Context) (models.CommandResult, error)
}

// forward queues a command for the sender goroutine and returns at once.
// Commands go out in order; failures are logged and never retried.
func (m *Model) forward(name string, send func(ctx context.Context) (models.CommandResult, error)) {
	m.inflight.Add(1)
	select {
	case m.commands <- command{name: name, send: send}:
	default:
		m.inflight.Done()
		m.logger.Warn("Command queue full, dropping command", "command", name)
	}
}

func (m *Model) runSender() {
	for c := range m.commands {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		if _, err := c.send(ctx); err != nil {
			m.logger.Warn("Command failed", "command", c.name, "error", err)
		}
		cancel()
		m.inflight.Done()
	}
}

// Wait blocks until every forwarded command has finished.
func (m *Model) Wait() {
	m.inflight.Wait()
}

// Close stops the light preview, drains the command queue and stops the
// sender.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.seq.Stop()
		if c, ok := m.sched.(interface{ Close() }); ok {
			c.Close()
		}
		m.Wait()
		close(m.commands)
	})
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) fetchState() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		st, err := m.client.State(ctx)
		if err != nil {
			m.logger.Warn("Failed to fetch droid state", "error", err)
			return nil
		}
		return stateMsg(st)
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchState(), tick())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case stateMsg:
		m.applyState(models.DroidState(msg))
		return m, nil

	case onlineMsg:
		wasOnline := m.online
		m.online = bool(msg)
		if m.online && !wasOnline {
			return m, m.fetchState()
		}
		return m, nil

	case tickMsg:
		m.pushChart()
		return m, tick()
	}

	return m, nil
}

// handleMouse routes a mouse event to the joysticks. A press starts a drag
// on the stick under the pointer; motion and release go to sticks that are
// dragging. Motion off a dragging stick's surface ends its drag.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	x, y := ClientPoint(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		ev := joystick.Event{Type: joystick.PointerDown, Source: joystick.Mouse, ClientX: x, ClientY: y}
		switch {
		case m.neckSurface.Contains(msg.X, msg.Y):
			m.neck.HandleEvent(ev)
		case m.bodySurface.Contains(msg.X, msg.Y):
			m.body.HandleEvent(ev)
		}

	case tea.MouseActionMotion:
		for _, s := range []struct {
			w       *joystick.Widget
			surface *Surface
		}{{m.neck, m.neckSurface}, {m.body, m.bodySurface}} {
			if !s.w.Dragging() {
				continue
			}
			ev := joystick.Event{Type: joystick.PointerMove, Source: joystick.Mouse, ClientX: x, ClientY: y}
			if !s.surface.Contains(msg.X, msg.Y) {
				ev.Type = joystick.PointerLeave
			}
			s.w.HandleEvent(ev)
		}

	case tea.MouseActionRelease:
		ev := joystick.Event{Type: joystick.PointerUp, Source: joystick.Mouse, ClientX: x, ClientY: y}
		for _, w := range []*joystick.Widget{m.neck, m.body} {
			if w.Dragging() {
				w.HandleEvent(ev)
			}
		}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return tea.Quit

	case "0", "1", "2", "3", "4", "5":
		m.setLightMode(lights.Mode(key[0] - '0'))

	case "a":
		enabled := !m.session.Snapshot().Automatic
		m.session.SetAutomatic(enabled)
		m.forward("automatic", func(ctx context.Context) (models.CommandResult, error) {
			return m.client.Automatic(ctx, enabled)
		})

	case "e":
		next := (m.session.Snapshot().LeftEye + 1) % 7
		m.session.SetEyes("all", next)
		m.forward("eye", func(ctx context.Context) (models.CommandResult, error) {
			return m.client.Eyes(ctx, "all", next)
		})

	case "[", "]":
		pos := m.session.Snapshot().Monocle
		if key == "[" {
			pos -= monocleStep
		} else {
			pos += monocleStep
		}
		pos = max(0, min(maxMonocle, pos))
		m.session.SetMonocle(pos)
		m.forward("monocle", func(ctx context.Context) (models.CommandResult, error) {
			return m.client.Monocle(ctx, pos)
		})

	case "r":
		return m.fetchState()
	}
	return nil
}

func (m *Model) setLightMode(mode lights.Mode) {
	m.session.SetLightMode(mode)
	if err := m.seq.SetMode(mode); err != nil {
		m.logger.Warn("Light preview failed", "mode", mode, "error", err)
	}
	m.forward("lights", func(ctx context.Context) (models.CommandResult, error) {
		return m.client.Lights(ctx, int(mode))
	})
}

// applyState mirrors a daemon snapshot and restarts the light preview when
// the daemon's mode differs from ours.
func (m *Model) applyState(st models.DroidState) {
	before := m.session.Snapshot().LightMode
	m.session.Apply(st)
	after := m.session.Snapshot().LightMode
	if after != before || m.seq.Mode() != after {
		if err := m.seq.SetMode(after); err != nil {
			m.logger.Warn("Daemon reported unknown light mode", "mode", int(after))
		}
	}
}

// pushChart appends the current stick positions, freezing while idle.
func (m *Model) pushChart() {
	values := [4]float64{
		float64(m.neck.X()), float64(m.neck.Y()),
		float64(m.body.X()), float64(m.body.Y()),
	}
	idle := !m.neck.Dragging() && !m.body.Dragging()
	if m.pushed && idle && values == m.lastPushed {
		return
	}
	for i, name := range seriesOrder {
		m.chart.PushDataSet(name, values[i])
	}
	m.chart.DrawAll()
	m.lastPushed = values
	m.pushed = true
}

func (m *Model) resizeChart() {
	w := m.width - borderSize - 2
	if w < 2*stickCols+stickGap {
		w = 2*stickCols + stickGap
	}
	m.chart.Resize(w, chartHeight)
}
