package scpi

import "github.com/nine-fives/scpi-go/metrics"

// SetMetrics attaches a Prometheus collector to e. *metrics.Collector
// satisfies metricsSink directly. Passing nil detaches it; an Engine with no
// collector attached runs exactly as before, at no extra cost.
func (e *Engine) SetMetrics(c *metrics.Collector) {
	if c == nil {
		e.metrics = nil
		return
	}
	e.metrics = c
}
