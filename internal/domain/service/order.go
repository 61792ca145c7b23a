package service

import (
	"context"
	"strings"
	"time"

	"spotarb/internal/domain/model"
)

// Side 买卖方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderFill 市价单回报
type OrderFill struct {
	OrderID     string
	FilledQty   float64 // 实际成交的基础资产数量，未知时为 0
	AvgPrice    float64
	QuoteFilled float64
	Status      string
	SubmittedAt time.Time
}

// OrderStatus 订单状态
type OrderStatus struct {
	OrderID          string
	Symbol           string
	Side             Side
	Quantity         float64
	ExecutedQuantity float64
	AvgExecutedPrice float64
	Status           string // "NEW", "FILLED", "PARTIALLY_FILLED", "CANCELED", ...
	UpdatedAt        time.Time
}

// Final 订单不会再有新的成交
func (s *OrderStatus) Final() bool {
	return IsFinalStatus(s.Status)
}

// IsFinalStatus FILLED / CANCELED / REJECTED / EXPIRED 为终态；空串视为未知
func IsFinalStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "FILLED", "CANCELED", "CANCELLED", "REJECTED", "EXPIRED", "EXPIRED_IN_MATCH":
		return true
	}
	return false
}

// OrderExecutor 单个交易所的下单能力（仅实盘使用）
type OrderExecutor interface {
	// PlaceMarketOrder 下市价单，返回 error 表示下单未成功
	PlaceMarketOrder(ctx context.Context, pair model.TradingPair, side Side, quantity float64) (*OrderFill, error)

	// GetBalance 查询可用余额，失败时返回 0 和 error
	GetBalance(ctx context.Context, asset string) (float64, error)

	// GetOrderStatus 查询订单状态
	GetOrderStatus(ctx context.Context, pair model.TradingPair, orderID string) (*OrderStatus, error)
}
