package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the attendance engine. A nil
// *Metrics is valid and records nothing, so tests can leave it unwired.
type Metrics struct {
	CheckIns          *prometheus.CounterVec
	CheckOuts         *prometheus.CounterVec
	NotificationsSent *prometheus.CounterVec
	ReportFallbacks   prometheus.Counter
}

// New creates and registers all Prometheus metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		CheckIns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_check_ins_total",
			Help: "Total check-in attempts by verification method and result",
		}, []string{"method", "result"}),

		CheckOuts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_check_outs_total",
			Help: "Total check-out attempts by result",
		}, []string{"result"}),

		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_notifications_total",
			Help: "Total notification deliveries by event kind and result",
		}, []string{"kind", "result"}),

		ReportFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attendance_report_fallbacks_total",
			Help: "Total report queries degraded to a by-employee scan",
		}),
	}
}

// CheckIn records a check-in attempt outcome.
func (m *Metrics) CheckIn(method, result string) {
	if m == nil {
		return
	}
	m.CheckIns.WithLabelValues(method, result).Inc()
}

// CheckOut records a check-out attempt outcome.
func (m *Metrics) CheckOut(result string) {
	if m == nil {
		return
	}
	m.CheckOuts.WithLabelValues(result).Inc()
}

// Notification records a delivery attempt outcome.
func (m *Metrics) Notification(kind, result string) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(kind, result).Inc()
}

// ReportFallback records one degraded report query.
func (m *Metrics) ReportFallback() {
	if m == nil {
		return
	}
	m.ReportFallbacks.Inc()
}
