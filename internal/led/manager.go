package led

import (
	"log/slog"
	"sync"

	"github.com/huyangdroid/droidpanel/internal/events"
	"github.com/huyangdroid/droidpanel/internal/lights"
)

// Manager follows light mode changes on the bus and plays them on the
// chest LEDs through a sequencer.
type Manager struct {
	sequencer *lights.Sequencer
	eventBus  *events.Bus
	logger    *slog.Logger

	mu          sync.Mutex
	unsubscribe func()
}

// NewManager creates a manager for sequencer.
func NewManager(sequencer *lights.Sequencer, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		sequencer: sequencer,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// Start paints initial on the LEDs, then follows light mode events.
func (m *Manager) Start(initial lights.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		return
	}
	if err := m.sequencer.SetMode(initial); err != nil {
		m.logger.Warn("Invalid initial light mode", "mode", int(initial), "error", err)
	}
	m.unsubscribe = m.eventBus.Subscribe(func(e events.LightModeChangedEvent) {
		m.handleEvent(e)
	})
	m.logger.Info("LED manager started", "mode", m.sequencer.Mode())
}

// Stop unsubscribes and cancels the running animation.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.mu.Unlock()

	m.sequencer.Stop()
	m.logger.Info("LED manager stopped")
}

func (m *Manager) handleEvent(e events.LightModeChangedEvent) {
	mode := lights.Mode(e.Mode)
	if err := m.sequencer.SetMode(mode); err != nil {
		m.logger.Warn("Ignoring light mode event", "mode", e.Mode, "error", err)
		return
	}
	m.logger.Debug("Chest LEDs switched", "mode", mode)
}

// Sequencer returns the underlying sequencer.
func (m *Manager) Sequencer() *lights.Sequencer {
	return m.sequencer
}
