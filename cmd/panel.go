package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/huyangdroid/droidpanel/internal/logging"
	"github.com/huyangdroid/droidpanel/internal/panel"
)

// CreatePanelCmd creates the panel command.
func CreatePanelCmd() *cobra.Command {
	conn := &connFlags{}
	var logLevel string

	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Drive the droid from a terminal control panel",
		Long: `Opens a full-screen panel with neck and body joysticks, a live chest light preview ` +
			`and an axis chart. Drag the sticks with the mouse; keys switch lights, eyes and monocle.`,
		Args: cobra.NoArgs,
		// Replaces the daemon setup inherited from the root command.
		PersistentPreRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The panel owns the screen; logs go to the journal and the panel's log box.
			logging.Initialize(logging.Config{
				Level:  logLevel,
				Format: "text",
				Quiet:  true,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return panel.Run(ctx, conn.client(), panel.Options{
				Buffer:  logging.GetBuffer(),
				Timeout: conn.timeout,
			})
		},
	}

	conn.register(cmd)
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")

	return cmd
}
