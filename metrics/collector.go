// Package metrics exposes SCPI engine activity as Prometheus metrics,
// grounded on RichiH-modbus_exporter/modbus/prometheus.go's GaugeVec/
// CounterVec-plus-MustRegister pattern, reshaped from package-level globals
// into an instance an embedder owns and attaches to one scpi.Engine.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus vectors an Engine reports activity into.
// It satisfies the engine's metricsSink interface (ObserveCommand,
// ObserveError, ObserveResponseQueueDepth) without either package importing
// the other's concrete type.
type Collector struct {
	commandsTotal      *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
	responseQueueDepth prometheus.Gauge
}

// NewCollector builds a Collector and registers its metrics with reg. A nil
// reg registers against prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scpi_commands_total",
				Help: "SCPI commands executed, by resolved path and kind.",
			},
			[]string{"path", "kind"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scpi_errors_total",
				Help: "SCPI errors pushed onto the error queue, by code.",
			},
			[]string{"code"},
		),
		responseQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scpi_response_queue_depth",
				Help: "Number of buffered responses awaiting a query read.",
			},
		),
	}

	reg.MustRegister(c.commandsTotal, c.errorsTotal, c.responseQueueDepth)

	return c
}

// ObserveCommand records one executed command against its resolved path.
func (c *Collector) ObserveCommand(pathString string, isQuery bool) {
	kind := "set"
	if isQuery {
		kind = "query"
	}
	c.commandsTotal.WithLabelValues(pathString, kind).Inc()
}

// ObserveError records one error code pushed onto the error queue.
func (c *Collector) ObserveError(code int) {
	c.errorsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveResponseQueueDepth records the current buffered-response count.
func (c *Collector) ObserveResponseQueueDepth(depth int) {
	c.responseQueueDepth.Set(float64(depth))
}
