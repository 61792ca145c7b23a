package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"spotarb/internal/domain/model"
)

// PaperLedger 模拟交易账本
// 只由调度循环写入；锁用于 /stats 等并发读取
type PaperLedger struct {
	mu sync.RWMutex

	initialBalance   float64
	currentBalance   float64
	totalTrades      int
	profitableTrades int
	history          []model.PaperTrade

	now func() time.Time
}

// NewPaperLedger 创建模拟账本
func NewPaperLedger(initialBalance float64) *PaperLedger {
	return &PaperLedger{
		initialBalance: initialBalance,
		currentBalance: initialBalance,
		history:        make([]model.PaperTrade, 0),
		now:            time.Now,
	}
}

// Execute simulates buying amount worth of the base asset on the buy venue
// and selling the same quantity on the sell venue. A losing trade is a
// valid outcome and is recorded like any other.
func (l *PaperLedger) Execute(opp model.Opportunity, amount float64) model.PaperTrade {
	qty := amount / opp.BuyPrice
	revenue := qty * opp.SellPrice
	buyFee := amount * opp.BuyFeeRate
	sellFee := revenue * opp.SellFeeRate
	gross := revenue - amount
	net := gross - buyFee - sellFee

	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentBalance += net
	l.totalTrades++
	if net > 0 {
		l.profitableTrades++
	}

	rec := model.PaperTrade{
		ID:           uuid.NewString(),
		Pair:         opp.Pair,
		BuyVenue:     opp.BuyVenue,
		SellVenue:    opp.SellVenue,
		BuyPrice:     opp.BuyPrice,
		SellPrice:    opp.SellPrice,
		Amount:       amount,
		Quantity:     qty,
		Revenue:      revenue,
		BuyFee:       buyFee,
		SellFee:      sellFee,
		GrossProfit:  gross,
		NetProfit:    net,
		NetProfitPct: opp.NetProfitPct,
		BalanceAfter: l.currentBalance,
		ExecutedAt:   l.now(),
	}
	l.history = append(l.history, rec)
	return rec
}

// Stats 账户表现统计
func (l *PaperLedger) Stats() model.PaperStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := model.PaperStats{
		InitialBalance:   l.initialBalance,
		CurrentBalance:   l.currentBalance,
		TotalTrades:      l.totalTrades,
		ProfitableTrades: l.profitableTrades,
		TotalNetProfit:   l.currentBalance - l.initialBalance,
	}
	if l.totalTrades > 0 {
		st.WinRate = float64(l.profitableTrades) / float64(l.totalTrades) * 100
	}
	if l.initialBalance != 0 {
		st.ReturnPct = st.TotalNetProfit / l.initialBalance * 100
	}
	return st
}

// History 返回成交记录副本（按时间顺序）
func (l *PaperLedger) History() []model.PaperTrade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.PaperTrade, len(l.history))
	copy(out, l.history)
	return out
}

func (l *PaperLedger) Balance() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.currentBalance
}
