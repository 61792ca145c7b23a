package port

import "time"

// Metrics 运行指标
type Metrics interface {
	ObserveScan(d time.Duration, found int)
	VenueFailed(venue string)
	LiveTrade(state string)
	PaperBalance(v float64)
}

type noopMetrics struct{}

func NoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) ObserveScan(time.Duration, int) {}
func (noopMetrics) VenueFailed(string) {}
func (noopMetrics) LiveTrade(string) {}
func (noopMetrics) PaperBalance(float64) {}
