package revlines

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts the work done by readers.
type Metrics struct {
	blocksRead   prometheus.Counter
	bytesRead    prometheus.Counter
	linesEmitted prometheus.Counter
	readErrors   prometheus.Counter
	pendingBytes prometheus.Gauge
}

// NewMetrics creates reader metrics and registers them on reg when reg is not
// nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		blocksRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "revlines_blocks_read_total",
			Help: "Number of blocks read while scanning streams backwards.",
		}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "revlines_bytes_read_total",
			Help: "Number of bytes read while scanning streams backwards.",
		}),
		linesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "revlines_lines_emitted_total",
			Help: "Number of lines handed to callers.",
		}),
		readErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "revlines_read_errors_total",
			Help: "Number of failed block fetches.",
		}),
		pendingBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "revlines_pending_bytes",
			Help: "Size of the most recently grown pending buffer.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.blocksRead,
			m.bytesRead,
			m.linesEmitted,
			m.readErrors,
			m.pendingBytes,
		)
	}
	return m
}

func (m *Metrics) observeBlock(n, pending int) {
	if m == nil {
		return
	}
	m.blocksRead.Inc()
	m.bytesRead.Add(float64(n))
	m.pendingBytes.Set(float64(pending))
}

func (m *Metrics) observeLine() {
	if m == nil {
		return
	}
	m.linesEmitted.Inc()
}

func (m *Metrics) observeError() {
	if m == nil {
		return
	}
	m.readErrors.Inc()
}
