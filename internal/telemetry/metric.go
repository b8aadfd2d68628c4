package telemetry

import (
	"strconv"
	"time"

	"supportdesk/config"
	"supportdesk/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric struct；未啟用時所有欄位皆為 nil，呼叫端需自行判斷
type Metric struct {
	HttpRequestsTotal        *prometheus.CounterVec
	HttpRequestDuration      *prometheus.HistogramVec
	ResponseSuccessTotal     *prometheus.CounterVec
	ResponseFailTotal        *prometheus.CounterVec
	RateLimitedTotal         *prometheus.CounterVec
	MessagesAppendedTotal    prometheus.Counter
	AttachmentsRejectedTotal *prometheus.CounterVec
	RealtimeSubscriptions    prometheus.Gauge
	ReconcileTotal           *prometheus.CounterVec
	RealtimeResyncsTotal     prometheus.Counter
	TouchFailedTotal         prometheus.Counter
	config                   *config.Configuration
}

// NewMetric 建立所有指標
func NewMetric(config *config.Configuration) *Metric {
	if config == nil || !config.Telemetry.Metric.Enabled {
		return &Metric{}
	}
	buckets := prometheus.DefBuckets
	if len(config.Telemetry.Metric.Buckets) > 0 {
		buckets = config.Telemetry.Metric.Buckets
	}
	prefix := config.App.Name + "_"
	return &Metric{
		config: config,
		HttpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricHttpRequestsTotal),
				Help: "Total received API requests",
			},
			labelNames(core.MetricLabelEndpoint, core.MetricLabelStatus),
		),
		HttpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + string(core.MetricHttpRequestDuration),
				Help:    "Request duration (seconds)",
				Buckets: buckets,
			},
			labelNames(core.MetricLabelEndpoint),
		),
		ResponseSuccessTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricResponseSuccessTotal),
				Help: "Successful responses wrapped by the response middleware",
			},
			labelNames(core.MetricLabelEndpoint, core.MetricLabelStatus),
		),
		ResponseFailTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricResponseFailTotal),
				Help: "Failed responses rendered by the recovery middleware",
			},
			labelNames(core.MetricLabelReason),
		),
		RateLimitedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricRateLimitTotal),
				Help: "Requests rejected by the message send rate limit",
			},
			labelNames(core.MetricLabelEndpoint),
		),
		MessagesAppendedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricMessagesAppendedTotal),
				Help: "Messages appended to conversations",
			},
		),
		AttachmentsRejectedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricAttachmentsRejectedTotal),
				Help: "Attachments rejected or skipped by the attachment pipeline",
			},
			labelNames(core.MetricLabelReason),
		),
		RealtimeSubscriptions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + string(core.MetricRealtimeSubscriptions),
				Help: "Live realtime conversation subscriptions",
			},
		),
		ReconcileTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricReconcileTotal),
				Help: "Identity reconciliation results by outcome",
			},
			labelNames(core.MetricLabelOutcome),
		),
		RealtimeResyncsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricRealtimeResyncsTotal),
				Help: "Realtime subscriptions resubscribed after a redis reconnect",
			},
		),
		TouchFailedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricTouchFailedTotal),
				Help: "Appended messages whose conversation updatedAt could not be bumped",
			},
		),
	}
}

// labelNames helper: LabelName slice 轉成 []string
func labelNames(labels ...core.MetricLabelName) []string {
	strs := make([]string, len(labels))
	for i, l := range labels {
		strs[i] = string(l)
	}
	return strs
}

func (m *Metric) IncMessagesAppended() {
	if m == nil || m.MessagesAppendedTotal == nil {
		return
	}
	m.MessagesAppendedTotal.Inc()
}

func (m *Metric) IncAttachmentRejected(reason string) {
	if m == nil || m.AttachmentsRejectedTotal == nil {
		return
	}
	m.AttachmentsRejectedTotal.WithLabelValues(reason).Inc()
}

func (m *Metric) AddRealtimeSubscriptions(delta float64) {
	if m == nil || m.RealtimeSubscriptions == nil {
		return
	}
	m.RealtimeSubscriptions.Add(delta)
}

func (m *Metric) IncRealtimeResyncs() {
	if m == nil || m.RealtimeResyncsTotal == nil {
		return
	}
	m.RealtimeResyncsTotal.Inc()
}

func (m *Metric) IncTouchFailed() {
	if m == nil || m.TouchFailedTotal == nil {
		return
	}
	m.TouchFailedTotal.Inc()
}

func (m *Metric) IncReconcile(outcome string) {
	if m == nil || m.ReconcileTotal == nil {
		return
	}
	m.ReconcileTotal.WithLabelValues(outcome).Inc()
}

func (m *Metric) ObserveSuccess(endpoint string, status int, duration time.Duration) {
	if m == nil || m.ResponseSuccessTotal == nil || m.HttpRequestDuration == nil {
		return
	}
	m.ResponseSuccessTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.HttpRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Metric) ObserveFailure(reason, endpoint string, duration time.Duration) {
	if m == nil || m.ResponseFailTotal == nil || m.HttpRequestDuration == nil {
		return
	}
	m.ResponseFailTotal.WithLabelValues(reason).Inc()
	m.HttpRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Metric) IncRateLimited(endpoint string) {
	if m == nil || m.RateLimitedTotal == nil {
		return
	}
	m.RateLimitedTotal.WithLabelValues(endpoint).Inc()
}
