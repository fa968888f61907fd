package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/huyangdroid/droidpanel/cmd"
	"github.com/huyangdroid/droidpanel/internal/api"
	"github.com/huyangdroid/droidpanel/internal/config"
	"github.com/huyangdroid/droidpanel/internal/droid"
	"github.com/huyangdroid/droidpanel/internal/events"
	"github.com/huyangdroid/droidpanel/internal/led"
	"github.com/huyangdroid/droidpanel/internal/lights"
	"github.com/huyangdroid/droidpanel/internal/logging"
	"github.com/huyangdroid/droidpanel/internal/metrics"
	"github.com/huyangdroid/droidpanel/internal/schedule"
	"github.com/huyangdroid/droidpanel/internal/systemd"
	"github.com/huyangdroid/droidpanel/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Droid settings
	DroidStateFile   string `help:"Calibration and settings file" default:"droid.toml" toml:"droid.state_file" env:"DROID_STATE_FILE"`
	DroidFirmware    string `help:"Firmware version reported to clients (defaults to build version)" toml:"droid.firmware_version" env:"DROID_FIRMWARE"`
	DroidRebootDelay string `help:"Delay between replying and rebooting" default:"1s" toml:"droid.reboot_delay" env:"DROID_REBOOT_DELAY"`

	// Features settings
	FeaturesEyes         bool `help:"Enable eye commands" default:"true" toml:"features.eyes" env:"FEATURES_EYES"`
	FeaturesMonocle      bool `help:"Enable monocle commands" default:"true" toml:"features.monocle" env:"FEATURES_MONOCLE"`
	FeaturesNeckMovement bool `help:"Enable neck tilt" default:"true" toml:"features.neck_movement" env:"FEATURES_NECK_MOVEMENT"`
	FeaturesHeadRotation bool `help:"Enable neck rotation" default:"true" toml:"features.head_rotation" env:"FEATURES_HEAD_ROTATION"`
	FeaturesBodyMovement bool `help:"Enable body tilt" default:"true" toml:"features.body_movement" env:"FEATURES_BODY_MOVEMENT"`
	FeaturesBodyRotation bool `help:"Enable body rotation" default:"true" toml:"features.body_rotation" env:"FEATURES_BODY_ROTATION"`
	FeaturesTorsoLights  bool `help:"Enable chest lights" default:"true" toml:"features.torso_lights" env:"FEATURES_TORSO_LIGHTS"`

	// LED settings
	LedLeft  string `help:"Sysfs name of the left chest LED" default:"chest:rgb:left" toml:"led.left" env:"LED_LEFT"`
	LedRight string `help:"Sysfs name of the right chest LED" default:"chest:rgb:right" toml:"led.right" env:"LED_RIGHT"`

	// Systemd settings
	SystemdUnit   string `help:"Unit restarted on reboot (empty logs reboots only)" toml:"systemd.unit" env:"SYSTEMD_UNIT"`
	SystemdSystem bool   `help:"Use the system bus instead of the user bus" default:"true" toml:"systemd.system" env:"SYSTEMD_SYSTEM"`

	// Metrics settings
	MetricsEnabled bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingAPI    string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingDroid  string `help:"Droid controller logging level" default:"info" toml:"logging.droid" env:"LOGGING_DROID"`
	LoggingLights string `help:"Light sequencer logging level" default:"info" toml:"logging.lights" env:"LOGGING_LIGHTS"`
	LoggingLed    string `help:"LED output logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingConfig string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

func (o *Options) features() droid.Features {
	return droid.Features{
		Eyes:         o.FeaturesEyes,
		Monocle:      o.FeaturesMonocle,
		NeckMovement: o.FeaturesNeckMovement,
		HeadRotation: o.FeaturesHeadRotation,
		BodyMovement: o.FeaturesBodyMovement,
		BodyRotation: o.FeaturesBodyRotation,
		TorsoLights:  o.FeaturesTorsoLights,
	}
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"api":    opts.LoggingAPI,
				"droid":  opts.LoggingDroid,
				"lights": opts.LoggingLights,
				"led":    opts.LoggingLed,
				"config": opts.LoggingConfig,
			},
		})

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Stream log records to SSE clients
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(api.LogEntryEvent(entry))
		})

		rebootDelay, err := time.ParseDuration(opts.DroidRebootDelay)
		if err != nil {
			logger.Warn("Invalid reboot delay, using 1s", "value", opts.DroidRebootDelay)
			rebootDelay = time.Second
		}

		firmware := opts.DroidFirmware
		if firmware == "" {
			firmware = version.String()
		}

		// Reboots restart the droid's unit when one is configured
		var rebooter droid.Rebooter
		var unitStatus func(ctx context.Context) (string, error)
		if opts.SystemdUnit != "" {
			unit := systemd.UnitRebooter{Unit: opts.SystemdUnit, System: opts.SystemdSystem}
			rebooter = unit
			unitStatus = unit.UnitStatus
			logger.Info("Reboots restart systemd unit", "unit", opts.SystemdUnit)
		}

		stateStore := droid.NewTOML(opts.DroidStateFile)
		controller, err := droid.NewController(droid.Options{
			Store:           stateStore,
			Bus:             eventBus,
			Features:        opts.features(),
			Rebooter:        rebooter,
			RebootDelay:     rebootDelay,
			FirmwareVersion: firmware,
			Logger:          logging.GetLogger("droid"),
		})
		if err != nil {
			logger.Error("Failed to create droid controller", "error", err, "state_file", stateStore.Path())
			os.Exit(1)
		}

		// Chest lights follow light mode events
		var ledManager *led.Manager
		sched := schedule.NewRealtime()
		if opts.FeaturesTorsoLights {
			ledLogger := logging.GetLogger("led")
			led1, led2 := led.New([2]string{opts.LedLeft, opts.LedRight}, ledLogger)
			sequencer := lights.New(sched, led1, led2, logging.GetLogger("lights"))
			ledManager = led.NewManager(sequencer, eventBus, ledLogger)
		}

		// Reload calibration and settings when the state file changes on disk
		stateLoader := func(path string) (droid.Persisted, error) {
			return droid.NewTOML(path).Load()
		}
		watcher := config.NewWatcher(
			stateStore.Path(),
			stateLoader,
			logging.GetLogger("config"),
			config.WithDebounce[droid.Persisted](time.Second),
		)
		watcher.OnReload(func(p droid.Persisted) {
			// Saves made by the controller itself come back unchanged
			if st := controller.State(); st.Calibration == p.Calibration && st.Settings == p.Settings {
				return
			}
			controller.ApplyPersisted(p)
		})

		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			Controller:   controller,
			EventBus:     eventBus,
			UnitStatus:   unitStatus,
		}

		// Add Prometheus handler if enabled
		if opts.MetricsEnabled {
			apiOpts.PrometheusHandler = metrics.Handler()
		}

		server := api.NewServer(apiOpts)

		hooks.OnStart(func() {
			if ledManager != nil {
				ledManager.Start(controller.State().ChestLight)
			}

			// Start state watcher (non-fatal if it fails)
			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Failed to start state watcher, hot-reload disabled", "error", startErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port, "version", version.String())
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping state watcher", "error", stopErr)
			}

			if ledManager != nil {
				ledManager.Stop()
			}
			sched.Close()
		})
	})

	cli.Root().Use = "droidpanel"
	cli.Root().Version = version.String()

	// Add panel command
	cli.Root().AddCommand(cmd.CreatePanelCmd())

	// Add send command
	cli.Root().AddCommand(cmd.CreateSendCmd())

	// Add lights command
	cli.Root().AddCommand(cmd.CreateLightsCmd())

	// Run the CLI
	cli.Run()
}
