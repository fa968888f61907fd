package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"

	"github.com/huyangdroid/droidpanel/internal/lights"
	"github.com/huyangdroid/droidpanel/internal/logging"
	"github.com/huyangdroid/droidpanel/internal/schedule"
)

// CreateLightsCmd creates the lights command.
func CreateLightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lights",
		Short: "Inspect chest light patterns",
		// Replaces the daemon setup inherited from the root command.
		PersistentPreRun: func(*cobra.Command, []string) {},
	}
	cmd.AddCommand(createLightsListCmd(), createLightsTimelineCmd())
	return cmd
}

func createLightsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List light modes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, m := range lights.Modes() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d  %s\n", int(m), m)
			}
		},
	}
}

func createLightsTimelineCmd() *cobra.Command {
	var duration time.Duration
	var step time.Duration
	var swatches bool

	cmd := &cobra.Command{
		Use:   "timeline [mode]",
		Short: "Print the LED colours of a light mode over time",
		Long: `Plays a light mode on a simulated clock and prints both LED colours at every step. ` +
			`The mode is a protocol number (0-5) or a name such as droid_1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := lights.ParseMode(args[0])
			if err != nil {
				return err
			}
			if step <= 0 {
				return fmt.Errorf("step must be positive")
			}
			return writeTimeline(cmd.OutOrStdout(), mode, duration, step, swatches)
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 2*time.Second, "Simulated time to play")
	cmd.Flags().DurationVarP(&step, "step", "s", 100*time.Millisecond, "Sampling interval")
	cmd.Flags().BoolVar(&swatches, "swatch", false, "Show a colour swatch next to each value")

	return cmd
}

// recordingLED remembers the last colour it was given.
type recordingLED struct {
	color colorful.Color
}

func (l *recordingLED) SetColor(c colorful.Color) {
	l.color = c
}

// writeTimeline plays mode on a virtual clock, sampling both LEDs every step.
func writeTimeline(w io.Writer, mode lights.Mode, duration, step time.Duration, swatches bool) error {
	sched := schedule.NewVirtual()
	led1, led2 := &recordingLED{}, &recordingLED{}
	seq := lights.New(sched, led1, led2, logging.GetLogger("lights"))
	defer seq.Stop()

	if err := seq.SetMode(mode); err != nil {
		return err
	}

	fmt.Fprintf(w, "%-8s  %-8s  %-8s\n", "time", "led1", "led2")
	for {
		fmt.Fprintf(w, "%-8s  %s  %s\n",
			sched.Now().String(), formatColor(led1.color, swatches), formatColor(led2.color, swatches))
		if sched.Now()+step > duration {
			return nil
		}
		sched.Advance(step)
	}
}

func formatColor(c colorful.Color, swatch bool) string {
	hex := c.Hex()
	if !swatch {
		return fmt.Sprintf("%-8s", hex)
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ") + " " + hex
}
