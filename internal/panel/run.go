package panel

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/huyangdroid/droidpanel/internal/device"
)

// Run shows the panel for client until the user quits or ctx ends.
func Run(ctx context.Context, client *device.Client, opts Options) error {
	opts.Client = client
	m, err := NewModel(opts)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	client.StartHealthMonitor(2*time.Second, func(online bool) {
		p.Send(onlineMsg(online))
	})
	defer client.Stop()

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
