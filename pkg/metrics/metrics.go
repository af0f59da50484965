// Package metrics содержит Prometheus метрики сервиса встреч.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetings_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meetings_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "path"},
	)

	lifecycleTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetings_lifecycle_transitions_total",
			Help: "Total number of meeting lifecycle transitions",
		},
		[]string{"transition", "result"},
	)

	notifierDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetings_notifier_deliveries_total",
			Help: "Total number of notifier event deliveries",
		},
		[]string{"event", "result"},
	)

	notifierSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meetings_notifier_subscribers",
			Help: "Current number of notifier subscribers across all rooms",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(lifecycleTransitionsTotal)
	prometheus.MustRegister(notifierDeliveriesTotal)
	prometheus.MustRegister(notifierSubscribers)
}

// RecordHTTPRequest записывает завершенный HTTP запрос
func RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// RecordLifecycleTransition записывает попытку перехода статуса встречи.
// transition: start/end/cancel/join/leave, result: ok/rejected
func RecordLifecycleTransition(transition, result string) {
	lifecycleTransitionsTotal.WithLabelValues(transition, result).Inc()
}

// RecordNotifierDelivery записывает доставку события подписчику.
// result: delivered/dropped
func RecordNotifierDelivery(event, result string) {
	notifierDeliveriesTotal.WithLabelValues(event, result).Inc()
}

// SetNotifierSubscribers обновляет gauge текущего числа подписчиков
func SetNotifierSubscribers(n int) {
	notifierSubscribers.Set(float64(n))
}
