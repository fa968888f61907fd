// Package systemd restarts the droid daemon's own unit over D-Bus.
package systemd

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
)

// Manager handles systemd unit lifecycle operations via D-Bus.
type Manager struct {
	conn *dbus.Conn
}

// NewManager connects to the user bus, or the system bus when system is true.
func NewManager(ctx context.Context, system bool) (*Manager, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	if system {
		conn, err = dbus.NewSystemConnectionContext(ctx)
	} else {
		conn, err = dbus.NewUserConnectionContext(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	return &Manager{conn: conn}, nil
}

// ServiceStatus retrieves the ActiveState property of a unit.
func (m *Manager) ServiceStatus(ctx context.Context, unit string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return "", err
	}
	return prop.Value.String(), nil
}

// RestartService queues a restart of unit using the replace mode. It does
// not wait for the job, since the unit may be the calling process.
func (m *Manager) RestartService(ctx context.Context, unit string) error {
	_, err := m.conn.RestartUnitContext(ctx, unit, "replace", nil)
	return err
}

// Close cleanly closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

// UnitRebooter reboots the droid by restarting its systemd unit.
type UnitRebooter struct {
	Unit   string
	System bool
}

// Reboot opens a bus connection, restarts the unit and closes again.
func (r UnitRebooter) Reboot(ctx context.Context) error {
	m, err := NewManager(ctx, r.System)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.RestartService(ctx, r.Unit); err != nil {
		return fmt.Errorf("failed to restart %s: %w", r.Unit, err)
	}
	return nil
}

// UnitStatus opens a bus connection and reports the unit's ActiveState.
func (r UnitRebooter) UnitStatus(ctx context.Context) (string, error) {
	m, err := NewManager(ctx, r.System)
	if err != nil {
		return "", err
	}
	defer m.Close()
	return m.ServiceStatus(ctx, r.Unit)
}
