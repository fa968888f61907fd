// Package logging provides structured logging with per-module log levels.
//
// Records fan out to stdout (unless Quiet), the systemd journal when one is
// reachable, and an in-memory ring buffer that backs the log stream of the
// API and the panel's log box.
//
// Initialize once at startup, then ask for module loggers:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "text",
//		Modules: map[string]string{"lights": "debug", "api": "warn"},
//	})
//
//	logger := logging.GetLogger("lights")
//	logger.Info("Mode changed", "mode", mode)
//
// Loggers obtained before Initialize keep working; their levels are updated
// in place.
//
// Journal entries carry SYSLOG_IDENTIFIER=droidpanel and upper-cased
// attributes:
//
//	journalctl -t droidpanel -f
//	journalctl -t droidpanel MODULE=lights
//
// TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	quiet = false
//	lights = "debug"
package logging
