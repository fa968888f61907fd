// Package metrics provides Prometheus metrics for the droid daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "droidpanel"

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "commands_total",
		Help:      "Device commands handled, by command type and result",
	}, []string{"type", "result"})

	lightMode = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "lights",
		Name:      "mode",
		Help:      "Current chest light mode (0-5)",
	})

	poseDegrees = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pose",
		Name:      "degrees",
		Help:      "Commanded servo angle in degrees",
	}, []string{"part", "axis"})

	stickClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "stick",
		Name:      "clients",
		Help:      "Connected websocket stick clients",
	})

	stickFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stick",
		Name:      "frames_total",
		Help:      "Stick frames received over websocket",
	})
)

// Command results.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// RecordCommand counts one handled command.
func RecordCommand(commandType, result string) {
	commandsTotal.WithLabelValues(commandType, result).Inc()
}

// SetLightMode records the active light mode.
func SetLightMode(mode int) {
	lightMode.Set(float64(mode))
}

// SetPose records the commanded angles of a part.
func SetPose(part string, rotate, tiltForward, tiltSideways int) {
	poseDegrees.WithLabelValues(part, "rotate").Set(float64(rotate))
	poseDegrees.WithLabelValues(part, "tilt_forward").Set(float64(tiltForward))
	poseDegrees.WithLabelValues(part, "tilt_sideways").Set(float64(tiltSideways))
}

// StickClientConnected adjusts the websocket client gauge.
func StickClientConnected(delta int) {
	stickClients.Add(float64(delta))
}

// RecordStickFrame counts one websocket stick frame.
func RecordStickFrame() {
	stickFrames.Inc()
}
