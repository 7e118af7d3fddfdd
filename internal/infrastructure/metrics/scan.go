package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ScanMetrics holds Prometheus metrics for recipient scans.
// All methods are safe on a nil receiver.
type ScanMetrics struct {
	ScansTotal       *prometheus.CounterVec
	ScanDuration     *prometheus.HistogramVec
	ChunksScanned    *prometheus.CounterVec
	TransfersMatched *prometheus.CounterVec
	SkippedEvents    *prometheus.CounterVec
	BalanceFailures  *prometheus.CounterVec
	UpstreamRequests *prometheus.CounterVec
}

// NewScanMetrics registers scan metrics with reg
func NewScanMetrics(reg prometheus.Registerer) *ScanMetrics {
	factory := promauto.With(reg)

	return &ScanMetrics{
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_scans_total",
			Help: "Total number of recipient scans by outcome mode",
		}, []string{"chain", "mode"}),
		ScanDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scanner_scan_duration_seconds",
			Help:    "Wall-clock duration of a recipient scan",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"chain"}),
		ChunksScanned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_chunks_scanned_total",
			Help: "Total number of block chunks or pages scanned",
		}, []string{"chain"}),
		TransfersMatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_transfers_matched_total",
			Help: "Total number of outgoing transfers matched",
		}, []string{"chain"}),
		SkippedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_skipped_events_total",
			Help: "Total number of raw events rejected by the decoder",
		}, []string{"chain"}),
		BalanceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_balance_failures_total",
			Help: "Total number of failed recipient balance lookups",
		}, []string{"chain"}),
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_upstream_requests_total",
			Help: "Total number of upstream requests by result",
		}, []string{"upstream", "method", "result"}),
	}
}

// ObserveScan records a finished scan
func (m *ScanMetrics) ObserveScan(chain, mode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(chain, mode).Inc()
	m.ScanDuration.WithLabelValues(chain).Observe(duration.Seconds())
}

// AddChunks records scanned chunks
func (m *ScanMetrics) AddChunks(chain string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ChunksScanned.WithLabelValues(chain).Add(float64(n))
}

// AddTransfers records matched transfers
func (m *ScanMetrics) AddTransfers(chain string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TransfersMatched.WithLabelValues(chain).Add(float64(n))
}

// AddSkipped records decoder rejections
func (m *ScanMetrics) AddSkipped(chain string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SkippedEvents.WithLabelValues(chain).Add(float64(n))
}

// IncBalanceFailure records a failed balance lookup
func (m *ScanMetrics) IncBalanceFailure(chain string) {
	if m == nil {
		return
	}
	m.BalanceFailures.WithLabelValues(chain).Inc()
}

// ObserveUpstream records an upstream request result
func (m *ScanMetrics) ObserveUpstream(upstream, method string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.UpstreamRequests.WithLabelValues(upstream, method, result).Inc()
}
