package port

import (
	"context"

	"spotarb/internal/domain/model"
)

// PriceFeed 单个交易所的买一价来源
// 未知符号或无效价格只导致结果缺失；HTTP 状态码、网络和解码失败返回 error，
// 扫描器把出错的交易所当作本轮无报价
type PriceFeed interface {
	Name() string
	FetchPrices(ctx context.Context, pairs []model.TradingPair) (map[model.TradingPair]float64, error)
}
