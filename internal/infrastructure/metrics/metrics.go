package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"spotarb/internal/application/port"
)

// Metrics Prometheus 采集器
type Metrics struct {
	ScanDuration   prometheus.Histogram
	Opportunities  prometheus.Gauge
	VenueFailures  *prometheus.CounterVec
	LiveTrades     *prometheus.CounterVec
	PaperBalanceGa prometheus.Gauge

	registry *prometheus.Registry
}

// New 在独立 registry 上注册全部指标，附带 Go 运行时与进程指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "spotarb_scan_duration_seconds",
			Help:    "Wall time of one scan across all venues",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}),
		Opportunities: f.NewGauge(prometheus.GaugeOpts{
			Name: "spotarb_opportunities_found",
			Help: "Opportunities above the net profit threshold in the last scan",
		}),
		VenueFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spotarb_venue_fetch_failures_total",
			Help: "Price fetches that failed or timed out, by venue",
		}, []string{"venue"}),
		LiveTrades: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spotarb_live_trades_total",
			Help: "Live trade attempts by terminal state",
		}, []string{"state"}),
		PaperBalanceGa: f.NewGauge(prometheus.GaugeOpts{
			Name: "spotarb_paper_balance",
			Help: "Current paper trading balance in quote currency",
		}),
		registry: reg,
	}
}

// Gatherer 供 /metrics 使用
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

func (m *Metrics) ObserveScan(d time.Duration, found int) {
	m.ScanDuration.Observe(d.Seconds())
	m.Opportunities.Set(float64(found))
}

func (m *Metrics) VenueFailed(venue string) {
	m.VenueFailures.WithLabelValues(venue).Inc()
}

func (m *Metrics) LiveTrade(state string) {
	m.LiveTrades.WithLabelValues(state).Inc()
}

func (m *Metrics) PaperBalance(v float64) {
	m.PaperBalanceGa.Set(v)
}

var _ port.Metrics = (*Metrics)(nil)
