package metrics

import "github.com/prometheus/client_golang/prometheus"

// HTTPMetrics counts and times API requests by route template.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patientcare",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "patientcare",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

func (m *HTTPMetrics) ObserveRequest(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, status).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(seconds)
}

// StoreMetrics tracks document store writes.
type StoreMetrics struct {
	writeFailures *prometheus.CounterVec
	writesTotal   *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		writeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patientcare",
			Name:      "store_write_failures_total",
			Help:      "Document store writes that failed, by collection",
		}, []string{"collection"}),
		writesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patientcare",
			Name:      "store_writes_total",
			Help:      "Document store writes attempted, by collection",
		}, []string{"collection"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.writeFailures, m.writesTotal)
	return m
}

// ObserveWrite records one write to collection; err marks it as failed.
func (m *StoreMetrics) ObserveWrite(collection string, err error) {
	if m == nil {
		return
	}
	m.writesTotal.WithLabelValues(collection).Inc()
	if err != nil {
		m.writeFailures.WithLabelValues(collection).Inc()
	}
}
