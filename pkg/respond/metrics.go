package respond

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts emitted responses and requests answered by the error
// handler.
type Metrics struct {
	responses *prometheus.CounterVec
	failures  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "actions",
			Name:      "responses_total",
			Help:      "Action responses by emission mode and status.",
		}, []string{"service", "method", "mode", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "actions",
			Name:      "failures_total",
			Help:      "Actions answered by the error handler, by failure reason.",
		}, []string{"service", "method", "reason"}),
	}
	for _, c := range []prometheus.Collector{m.responses, m.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(service, method string, mode Mode, status int) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(service, method, string(mode), strconv.Itoa(status)).Inc()
}

func (m *Metrics) observeFailure(service, method, reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(service, method, reason).Inc()
}
