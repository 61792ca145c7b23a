package model

import (
	"fmt"
	"strings"
	"time"
)

// PairDelimiter 规范交易对的分隔符
const PairDelimiter = "-"

// TradingPair 规范交易对，例如 BTC-USDT
// 各交易所适配器负责把它映射成自己的符号格式
type TradingPair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// NewTradingPair 创建交易对
func NewTradingPair(base, quote string) TradingPair {
	return TradingPair{
		Base:  strings.ToUpper(strings.TrimSpace(base)),
		Quote: strings.ToUpper(strings.TrimSpace(quote)),
	}
}

// ParsePair 解析 "BASE-QUOTE" 格式
func ParsePair(s string) (TradingPair, error) {
	parts := strings.Split(strings.TrimSpace(s), PairDelimiter)
	if len(parts) != 2 {
		return TradingPair{}, fmt.Errorf("invalid trading pair %q: want BASE%sQUOTE", s, PairDelimiter)
	}
	p := NewTradingPair(parts[0], parts[1])
	if p.Base == "" || p.Quote == "" {
		return TradingPair{}, fmt.Errorf("invalid trading pair %q: empty asset", s)
	}
	return p, nil
}

// MustPair is ParsePair for literals known to be valid.
func MustPair(s string) TradingPair {
	p, err := ParsePair(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p TradingPair) String() string {
	return p.Base + PairDelimiter + p.Quote
}

func (p TradingPair) IsZero() bool {
	return p.Base == "" && p.Quote == ""
}

// VenueQuote 单个交易所某一轮的买一价
type VenueQuote struct {
	Venue      string      `json:"venue"`
	Pair       TradingPair `json:"pair"`
	Bid        float64     `json:"bid"`
	ObservedAt time.Time   `json:"observed_at"`
}

// Opportunity 跨所价差套利机会（值对象，每轮重新生成）
type Opportunity struct {
	Pair         TradingPair `json:"pair"`
	BuyVenue     string      `json:"buy_venue"`
	SellVenue    string      `json:"sell_venue"`
	BuyPrice     float64     `json:"buy_price"`
	SellPrice    float64     `json:"sell_price"`
	SpreadAbs    float64     `json:"spread_abs"`
	SpreadPct    float64     `json:"spread_pct"`
	BuyFeeRate   float64     `json:"buy_fee_rate"`
	SellFeeRate  float64     `json:"sell_fee_rate"`
	NetProfitPct float64     `json:"net_profit_pct"` // 扣除双边手续费后的利润率 %
	DetectedAt   time.Time   `json:"detected_at"`
}

// ========== Paper Trading ==========

// PaperTrade 模拟成交记录（不可变）
type PaperTrade struct {
	ID           string      `json:"id"`
	Pair         TradingPair `json:"pair"`
	BuyVenue     string      `json:"buy_venue"`
	SellVenue    string      `json:"sell_venue"`
	BuyPrice     float64     `json:"buy_price"`
	SellPrice    float64     `json:"sell_price"`
	Amount       float64     `json:"amount"`   // 投入的计价资产
	Quantity     float64     `json:"quantity"` // 买入的基础资产数量
	Revenue      float64     `json:"revenue"`
	BuyFee       float64     `json:"buy_fee"`
	SellFee      float64     `json:"sell_fee"`
	GrossProfit  float64     `json:"gross_profit"`
	NetProfit    float64     `json:"net_profit"`
	NetProfitPct float64     `json:"net_profit_pct"`
	BalanceAfter float64     `json:"balance_after"`
	ExecutedAt   time.Time   `json:"executed_at"`
}

// PaperStats 模拟账户统计
type PaperStats struct {
	InitialBalance   float64 `json:"initial_balance"`
	CurrentBalance   float64 `json:"current_balance"`
	TotalTrades      int     `json:"total_trades"`
	ProfitableTrades int     `json:"profitable_trades"`
	TotalNetProfit   float64 `json:"total_net_profit"`
	WinRate          float64 `json:"win_rate"`
	ReturnPct        float64 `json:"return_pct"`
}

// ========== Live Trading ==========

// TradeState 实盘交易状态机
type TradeState string

const (
	StateIdle             TradeState = "IDLE"
	StateSafetyCheck      TradeState = "SAFETY_CHECK"
	StateAwaitingApproval TradeState = "AWAITING_APPROVAL"
	StatePlacingBuy       TradeState = "PLACING_BUY"
	StatePlacingSell      TradeState = "PLACING_SELL"
	StateSettled          TradeState = "SETTLED"
	StateRejected         TradeState = "REJECTED"
	StateAborted          TradeState = "ABORTED"
	StatePartiallyFilled  TradeState = "PARTIALLY_FILLED" // 买单成交、卖单失败，需要人工处理
)

// IsTerminal reports whether no further transition is possible.
func (s TradeState) IsTerminal() bool {
	switch s {
	case StateSettled, StateRejected, StateAborted, StatePartiallyFilled:
		return true
	}
	return false
}

// LiveTrade 实盘交易记录
type LiveTrade struct {
	ID             string      `json:"id"`
	Pair           TradingPair `json:"pair"`
	BuyVenue       string      `json:"buy_venue"`
	SellVenue      string      `json:"sell_venue"`
	BuyPrice       float64     `json:"buy_price"`
	SellPrice      float64     `json:"sell_price"`
	Size           float64     `json:"size"` // 计价资产金额
	Quantity       float64     `json:"quantity"`
	NetProfitPct   float64     `json:"net_profit_pct"`
	ExpectedProfit float64     `json:"expected_profit"`
	BuyOrderID     string      `json:"buy_order_id,omitempty"`
	SellOrderID    string      `json:"sell_order_id,omitempty"`
	State          TradeState  `json:"state"`
	Reason         string      `json:"reason,omitempty"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     time.Time   `json:"finished_at"`
}

// LiveTradeResult 一次实盘尝试的结果
type LiveTradeResult struct {
	State  TradeState
	Reason string
	Err    error
	Trade  *LiveTrade // nil if rejected before any order was attempted
}

// TradeProposal 提交人工确认的交易参数
type TradeProposal struct {
	Pair           TradingPair
	BuyVenue       string
	SellVenue      string
	BuyPrice       float64
	SellPrice      float64
	NetProfitPct   float64
	Size           float64
	ExpectedProfit float64
}
