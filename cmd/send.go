package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/huyangdroid/droidpanel/internal/api/models"
	"github.com/huyangdroid/droidpanel/internal/device"
	"github.com/huyangdroid/droidpanel/internal/droid"
	"github.com/huyangdroid/droidpanel/internal/lights"
)

// connFlags are the daemon connection flags shared by send and panel.
type connFlags struct {
	url      string
	user     string
	password string
	timeout  time.Duration
}

func (f *connFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.url, "url", "u", "http://localhost:8090", "Droid daemon URL")
	cmd.PersistentFlags().StringVar(&f.user, "user", "admin", "Basic auth username")
	cmd.PersistentFlags().StringVar(&f.password, "password", "password", "Basic auth password")
	cmd.PersistentFlags().DurationVar(&f.timeout, "timeout", 5*time.Second, "Request timeout")
}

func (f *connFlags) client() *device.Client {
	var opts []device.Option
	if f.user != "" {
		opts = append(opts, device.WithBasicAuth(f.user, f.password))
	}
	return device.NewClient(f.url, opts...)
}

func (f *connFlags) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, f.timeout)
}

// CreateSendCmd creates the send command.
func CreateSendCmd() *cobra.Command {
	conn := &connFlags{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a single command to a running droid daemon",
		// Replaces the daemon setup inherited from the root command.
		PersistentPreRun: func(*cobra.Command, []string) {},
	}
	conn.register(cmd)

	// run wraps a single request with the connection timeout and prints its result.
	run := func(send func(ctx context.Context, c *device.Client) (models.CommandResult, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := conn.context(cmd)
			defer cancel()
			result, err := send(ctx, conn.client())
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "state",
			Short: "Print the droid state as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := conn.context(cmd)
				defer cancel()
				state, err := conn.client().State(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			},
		},
		&cobra.Command{
			Use:   "health",
			Short: "Print daemon health",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := conn.context(cmd)
				defer cancel()
				health, err := conn.client().Health(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", health.Status, health.Message)
				return nil
			},
		},
		&cobra.Command{
			Use:   "lights [mode]",
			Short: "Set the chest light mode (0-5 or a name)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				mode, err := lights.ParseMode(args[0])
				if err != nil {
					return err
				}
				return run(func(ctx context.Context, c *device.Client) (models.CommandResult, error) {
					return c.Lights(ctx, int(mode))
				})(cmd, args)
			},
		},
		createMoveCmd(string(droid.Neck), run),
		createMoveCmd(string(droid.Body), run),
		&cobra.Command{
			Use:   "eyes [all|left|right] [state]",
			Short: "Set eye state (0-6 or a name such as blink)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				state, err := parseEyeState(args[1])
				if err != nil {
					return err
				}
				return run(func(ctx context.Context, c *device.Client) (models.CommandResult, error) {
					return c.Eyes(ctx, args[0], state)
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "automatic [on|off]",
			Short: "Enable or disable automatic animations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				enabled, err := parseSwitch(args[0])
				if err != nil {
					return err
				}
				return run(func(ctx context.Context, c *device.Client) (models.CommandResult, error) {
					return c.Automatic(ctx, enabled)
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "monocle [position]",
			Short: "Move the monocle",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pos, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid monocle position %q", args[0])
				}
				return run(func(ctx context.Context, c *device.Client) (models.CommandResult, error) {
					return c.Monocle(ctx, pos)
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "reboot",
			Short: "Reboot the droid",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, c *device.Client) (models.CommandResult, error) {
				return c.System(ctx, string(droid.CommandReboot))
			}),
		},
		&cobra.Command{
			Use:   "factory-reset",
			Short: "Reset calibration and settings, then reboot",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, c *device.Client) (models.CommandResult, error) {
				return c.System(ctx, string(droid.CommandFactoryReset))
			}),
		},
		createCalibrateCmd(run),
		createSettingsCmd(run),
		createStickCmd(conn),
	)

	return cmd
}

type runFunc = func(send func(ctx context.Context, c *device.Client) (models.CommandResult, error)) func(*cobra.Command, []string) error

func createMoveCmd(part string, run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:     part + " [rotate] [tiltForward] [tiltSideways]",
		Short:   "Move the " + part + " (each axis in percent, -100..100)",
		Example: "  droidpanel send " + part + " -- 20 -40",
		Args:    cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			axes := make([]float64, 3)
			for i, a := range args {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("invalid axis value %q", a)
				}
				axes[i] = v
			}
			return run(func(ctx context.Context, c *device.Client) (models.CommandResult, error) {
				return c.Move(ctx, part, axes[0], axes[1], axes[2])
			})(cmd, args)
		},
	}
}

func createCalibrateCmd(run runFunc) *cobra.Command {
	var target string
	var rotation, tiltForward, tiltSideways, position int

	cmd := &cobra.Command{
		Use:   "calibrate [update|save|reset|set_middle_and_lock|unlock_servos]",
		Short: "Run a calibration action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := models.CalibrateData{Action: args[0], Type: target}
			flags := cmd.Flags()
			if flags.Changed("rotation") {
				data.Rotation = &rotation
			}
			if flags.Changed("tilt-forward") {
				data.TiltForward = &tiltForward
			}
			if flags.Changed("tilt-sideways") {
				data.TiltSideways = &tiltSideways
			}
			if flags.Changed("position") {
				data.Position = &position
			}
			return run(func(ctx context.Context, c *device.Client) (models.CommandResult, error) {
				return c.Calibrate(ctx, data)
			})(cmd, args)
		},
	}

	cmd.Flags().StringVarP(&target, "type", "t", "", "Calibration target for update (neck, body, monocle)")
	cmd.Flags().IntVar(&rotation, "rotation", 0, "Rotation offset")
	cmd.Flags().IntVar(&tiltForward, "tilt-forward", 0, "Forward tilt offset")
	cmd.Flags().IntVar(&tiltSideways, "tilt-sideways", 0, "Sideways tilt offset")
	cmd.Flags().IntVar(&position, "position", 0, "Monocle offset")

	return cmd
}

func createSettingsCmd(run runFunc) *cobra.Command {
	var name string
	var speed int

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Update robot name or movement speed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data models.SettingsData
			if cmd.Flags().Changed("name") {
				data.RobotName = &name
			}
			if cmd.Flags().Changed("speed") {
				data.MasterMovementSpeed = &speed
			}
			if data.RobotName == nil && data.MasterMovementSpeed == nil {
				return fmt.Errorf("nothing to update: set --name or --speed")
			}
			return run(func(ctx context.Context, c *device.Client) (models.CommandResult, error) {
				return c.Settings(ctx, data)
			})(cmd, args)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Robot name")
	cmd.Flags().IntVar(&speed, "speed", droid.DefaultSettings().MasterMovementSpeed, "Movement speed in percent (50..150)")

	return cmd
}

func createStickCmd(conn *connFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stick [neck|body] [x] [y]",
		Short: "Send one stick frame over the websocket channel",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid x %q", args[1])
			}
			y, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid y %q", args[2])
			}

			ctx, cancel := conn.context(cmd)
			defer cancel()
			stick, err := conn.client().DialStick(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = stick.Close() }()

			reply, err := stick.Send(args[0], x, y)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s rotate=%d tiltForward=%d tiltSideways=%d\n",
				reply.Part, reply.Rotate, reply.TiltForward, reply.TiltSideways)
			return nil
		},
	}
}

func printResult(w io.Writer, result models.CommandResult) {
	fmt.Fprintf(w, "%s: %s\n", result.Status, result.Message)
}

func parseEyeState(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if !droid.EyeState(n).Valid() {
			return 0, fmt.Errorf("invalid eye state %d", n)
		}
		return n, nil
	}
	state, err := droid.ParseEyeState(s)
	if err != nil {
		return 0, err
	}
	return int(state), nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
