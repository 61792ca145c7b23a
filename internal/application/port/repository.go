package port

import (
	"context"
	"time"

	"spotarb/internal/domain/model"
)

// TradeRepository 机会与成交记录的持久化
type TradeRepository interface {
	// Latest quotes of a cycle
	SaveQuotes(ctx context.Context, quotes []model.VenueQuote) error

	SaveOpportunities(ctx context.Context, opps []model.Opportunity) error
	SavePaperTrade(ctx context.Context, t model.PaperTrade) error
	SaveLiveTrade(ctx context.Context, t model.LiveTrade) error

	// Connection management
	Close() error
}

// PnLSource 能从历史记录恢复实盘盈亏的仓储
type PnLSource interface {
	LivePnLSince(ctx context.Context, since time.Time) (float64, error)
}

// HistoryExporter 导出模拟盘成交历史
type HistoryExporter interface {
	Export(ctx context.Context, trades []model.PaperTrade) error
}
