package service

import (
	"fmt"
	"sync"

	"spotarb/internal/domain/model"
)

// RiskManager 实盘风控：开关、最低利润、单笔规模、日亏损上限
type RiskManager struct {
	mu sync.RWMutex

	Enabled        bool
	MinProfitPct   float64 // 实盘最低净利润率 %，比模拟盘更严格
	MaxTradeSize   float64 // 单笔最大金额（计价资产）
	DailyLossLimit float64 // 亏损上限（正数）

	totalPnL float64
}

// NewRiskManager 创建风险管理器
func NewRiskManager(enabled bool, minProfitPct, maxTradeSize, dailyLossLimit float64) *RiskManager {
	return &RiskManager{
		Enabled:        enabled,
		MinProfitPct:   minProfitPct,
		MaxTradeSize:   maxTradeSize,
		DailyLossLimit: dailyLossLimit,
	}
}

// CheckEnabled 全局开关
func (rm *RiskManager) CheckEnabled() error {
	if !rm.Enabled {
		return ErrTradingDisabled
	}
	return nil
}

// CheckProfit 检查利润是否达到实盘阈值
func (rm *RiskManager) CheckProfit(opp model.Opportunity) error {
	if opp.NetProfitPct < rm.MinProfitPct {
		return fmt.Errorf("%w: %.4f%% < %.4f%%", ErrProfitTooLow, opp.NetProfitPct, rm.MinProfitPct)
	}
	return nil
}

// CheckLossLimit 累计亏损超过上限后停止交易
func (rm *RiskManager) CheckLossLimit() error {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if rm.totalPnL < -rm.DailyLossLimit {
		return fmt.Errorf("%w: pnl %.2f, limit %.2f", ErrDailyLossLimit, rm.totalPnL, rm.DailyLossLimit)
	}
	return nil
}

// RecordPnL 只在交易结算后调用
func (rm *RiskManager) RecordPnL(delta float64) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.totalPnL += delta
}

// RestorePnL 启动时从存储恢复当日盈亏
func (rm *RiskManager) RestorePnL(v float64) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.totalPnL = v
}

func (rm *RiskManager) TotalPnL() float64 {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.totalPnL
}
