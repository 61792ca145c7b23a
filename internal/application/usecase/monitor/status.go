package monitor

import (
	"sync"
	"time"

	"spotarb/internal/domain/model"
)

// Status 最近一轮的摘要，供 /stats 读取
type Status struct {
	Mode          Mode               `json:"mode"`
	Cycle         int                `json:"cycle"`
	LastScanAt    time.Time          `json:"last_scan_at"`
	ScanDuration  string             `json:"scan_duration"`
	Venues        int                `json:"venues"`
	FailedVenues  []string           `json:"failed_venues"`
	Opportunities int                `json:"opportunities"`
	Best          *model.Opportunity `json:"best,omitempty"`
	Paper         *model.PaperStats  `json:"paper,omitempty"`
	LivePnL       *float64           `json:"live_pnl,omitempty"`
}

type statusBox struct {
	mu sync.RWMutex
	v  Status
}

func (b *statusBox) set(v Status) {
	b.mu.Lock()
	b.v = v
	b.mu.Unlock()
}

func (b *statusBox) get() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.v
}
