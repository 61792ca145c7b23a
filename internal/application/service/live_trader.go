package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
	dsvc "spotarb/internal/domain/service"
)

// ErrManualInterventionPending 存在未处理的单边持仓时拒绝继续实盘
var ErrManualInterventionPending = errors.New("unhedged position awaiting manual intervention")

// LiveTraderDeps 实盘控制器依赖
type LiveTraderDeps struct {
	Risk      *dsvc.RiskManager
	Executors map[string]dsvc.OrderExecutor // venue -> executor
	Feeds     map[string]port.PriceFeed     // 健康检查用
	Approver  port.Approver
	Alerter   port.Alerter
	Metrics   port.Metrics

	ProbePair    model.TradingPair // 为空时使用机会本身的交易对
	ProbeTimeout time.Duration
	OrderTimeout time.Duration

	// 买单成交确认：最多查询 StatusRetries 次，间隔 StatusRetryDelay
	StatusRetries    int
	StatusRetryDelay time.Duration
}

// LiveTrader 实盘状态机：
// Idle -> SafetyCheck -> AwaitingApproval? -> PlacingBuy -> PlacingSell -> Settled
// 以及 Rejected / Aborted / PartiallyFilled 终态
type LiveTrader struct {
	deps LiveTraderDeps

	mu      sync.RWMutex
	history []model.LiveTrade
	halted  bool

	now func() time.Time
}

// NewLiveTrader 创建实盘控制器
func NewLiveTrader(deps LiveTraderDeps) *LiveTrader {
	if deps.ProbeTimeout <= 0 {
		deps.ProbeTimeout = 5 * time.Second
	}
	if deps.OrderTimeout <= 0 {
		deps.OrderTimeout = 15 * time.Second
	}
	if deps.StatusRetries <= 0 {
		deps.StatusRetries = 10
	}
	if deps.StatusRetryDelay <= 0 {
		deps.StatusRetryDelay = 500 * time.Millisecond
	}
	if deps.Metrics == nil {
		deps.Metrics = port.NoopMetrics()
	}
	norm := make(map[string]dsvc.OrderExecutor, len(deps.Executors))
	for k, v := range deps.Executors {
		if v != nil {
			norm[strings.ToLower(k)] = v
		}
	}
	deps.Executors = norm
	feeds := make(map[string]port.PriceFeed, len(deps.Feeds))
	for k, v := range deps.Feeds {
		if v != nil {
			feeds[strings.ToLower(k)] = v
		}
	}
	deps.Feeds = feeds
	return &LiveTrader{deps: deps, now: time.Now}
}

// Execute runs one live attempt for opp. It never panics and never returns
// an unclassified failure: every outcome is a terminal state with a reason.
func (lt *LiveTrader) Execute(ctx context.Context, opp model.Opportunity, manualApproval bool) (res model.LiveTradeResult) {
	var (
		trade     *model.LiveTrade
		buyFilled bool
	)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("live trade panic: %v", r)
			if buyFilled {
				res = lt.partial(ctx, trade, err)
			} else {
				res = lt.finish(trade, model.StateRejected, err)
			}
		}
		lt.deps.Metrics.LiveTrade(string(res.State))
	}()

	// SafetyCheck
	if err := lt.safetyCheck(ctx, opp); err != nil {
		log.Warn().Err(err).Str("pair", opp.Pair.String()).
			Str("buy", opp.BuyVenue).Str("sell", opp.SellVenue).
			Msg("live trade rejected")
		return lt.finish(nil, model.StateRejected, err)
	}

	size := lt.deps.Risk.MaxTradeSize
	expected := size * opp.NetProfitPct / 100

	// AwaitingApproval
	if manualApproval {
		ok, err := lt.approve(ctx, opp, size, expected)
		if err != nil || !ok {
			if err == nil {
				err = dsvc.ErrUserAborted
			} else {
				err = fmt.Errorf("%w: %v", dsvc.ErrUserAborted, err)
			}
			log.Info().Str("pair", opp.Pair.String()).Msg("live trade aborted by operator")
			return lt.finish(nil, model.StateAborted, err)
		}
	}

	trade = &model.LiveTrade{
		ID:             uuid.NewString(),
		Pair:           opp.Pair,
		BuyVenue:       opp.BuyVenue,
		SellVenue:      opp.SellVenue,
		BuyPrice:       opp.BuyPrice,
		SellPrice:      opp.SellPrice,
		Size:           size,
		NetProfitPct:   opp.NetProfitPct,
		ExpectedProfit: expected,
		State:          model.StatePlacingBuy,
		StartedAt:      lt.now(),
	}

	// 下单开始后不再响应取消，让交易走到终态
	octx := context.WithoutCancel(ctx)
	buyEx := lt.deps.Executors[strings.ToLower(opp.BuyVenue)]
	sellEx := lt.deps.Executors[strings.ToLower(opp.SellVenue)]

	// PlacingBuy
	balance := lt.balance(octx, buyEx, opp.BuyVenue, opp.Pair.Quote)
	if balance < size {
		err := fmt.Errorf("%w on %s: %.2f %s < %.2f", dsvc.ErrInsufficientFunds, opp.BuyVenue, balance, opp.Pair.Quote, size)
		log.Warn().Err(err).Msg("live trade rejected")
		return lt.finish(trade, model.StateRejected, err)
	}

	qty := size / opp.BuyPrice
	log.Info().Str("venue", opp.BuyVenue).Str("pair", opp.Pair.String()).
		Float64("qty", qty).Msg("placing live buy")

	buy, err := lt.place(octx, buyEx, opp.Pair, dsvc.SideBuy, qty)
	if err != nil {
		err = fmt.Errorf("%w on %s: %v", dsvc.ErrBuyFailed, opp.BuyVenue, err)
		log.Error().Err(err).Msg("live buy failed, no position opened")
		return lt.finish(trade, model.StateRejected, err)
	}
	buyFilled = true
	trade.BuyOrderID = buy.OrderID

	filled, err := lt.awaitFill(octx, buyEx, opp.Pair, buy)
	trade.Quantity = filled
	if err != nil {
		return lt.partial(ctx, trade, fmt.Errorf("%w: order %s on %s: %v", dsvc.ErrFillUnknown, buy.OrderID, opp.BuyVenue, err))
	}
	if filled <= 0 {
		err := fmt.Errorf("%w on %s: order %s closed without a fill", dsvc.ErrBuyFailed, opp.BuyVenue, buy.OrderID)
		log.Error().Err(err).Msg("live buy not filled, no position opened")
		return lt.finish(trade, model.StateRejected, err)
	}
	trade.State = model.StatePlacingSell

	// PlacingSell: 卖出买单实际成交数量
	log.Info().Str("venue", opp.SellVenue).Str("pair", opp.Pair.String()).
		Float64("qty", filled).Msg("placing live sell")

	sell, err := lt.place(octx, sellEx, opp.Pair, dsvc.SideSell, filled)
	if err != nil {
		return lt.partial(ctx, trade, fmt.Errorf("%w on %s: %v", dsvc.ErrSellFailed, opp.SellVenue, err))
	}
	trade.SellOrderID = sell.OrderID

	lt.deps.Risk.RecordPnL(expected)
	log.Info().Str("pair", opp.Pair.String()).
		Str("buy_order", trade.BuyOrderID).Str("sell_order", trade.SellOrderID).
		Float64("profit", expected).Float64("total_pnl", lt.deps.Risk.TotalPnL()).
		Msg("live trade settled")
	return lt.finish(trade, model.StateSettled, nil)
}

func (lt *LiveTrader) safetyCheck(ctx context.Context, opp model.Opportunity) error {
	rm := lt.deps.Risk
	if err := rm.CheckEnabled(); err != nil {
		return err
	}
	if lt.isHalted() {
		return ErrManualInterventionPending
	}
	if err := rm.CheckProfit(opp); err != nil {
		return err
	}
	for _, venue := range []string{opp.BuyVenue, opp.SellVenue} {
		if _, ok := lt.deps.Executors[strings.ToLower(venue)]; !ok {
			return fmt.Errorf("%w: %s", dsvc.ErrNoExecutor, venue)
		}
	}
	if err := rm.CheckLossLimit(); err != nil {
		return err
	}
	for _, venue := range []string{opp.BuyVenue, opp.SellVenue} {
		if err := lt.probe(ctx, venue, opp.Pair); err != nil {
			return fmt.Errorf("%w: %s: %v", dsvc.ErrVenueUnhealthy, venue, err)
		}
	}
	return nil
}

// probe 最小价格请求，返回非空即健康
func (lt *LiveTrader) probe(ctx context.Context, venue string, fallback model.TradingPair) (err error) {
	feed, ok := lt.deps.Feeds[strings.ToLower(venue)]
	if !ok {
		return errors.New("no price feed")
	}
	pair := lt.deps.ProbePair
	if pair.IsZero() {
		pair = fallback
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panic: %v", r)
		}
	}()

	pctx, cancel := context.WithTimeout(ctx, lt.deps.ProbeTimeout)
	defer cancel()
	prices, err := feed.FetchPrices(pctx, []model.TradingPair{pair})
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		return fmt.Errorf("empty price response for %s", pair)
	}
	return nil
}

func (lt *LiveTrader) approve(ctx context.Context, opp model.Opportunity, size, expected float64) (ok bool, err error) {
	if lt.deps.Approver == nil {
		return false, errors.New("no approver configured")
	}
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("approver panic: %v", r)
		}
	}()
	return lt.deps.Approver.Approve(ctx, model.TradeProposal{
		Pair:           opp.Pair,
		BuyVenue:       opp.BuyVenue,
		SellVenue:      opp.SellVenue,
		BuyPrice:       opp.BuyPrice,
		SellPrice:      opp.SellPrice,
		NetProfitPct:   opp.NetProfitPct,
		Size:           size,
		ExpectedProfit: expected,
	})
}

// balance 查询失败按 0 处理
func (lt *LiveTrader) balance(ctx context.Context, ex dsvc.OrderExecutor, venue, asset string) (bal float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("venue", venue).Interface("panic", r).Msg("balance query panicked")
			bal = 0
		}
	}()
	bctx, cancel := context.WithTimeout(ctx, lt.deps.OrderTimeout)
	defer cancel()
	bal, err := ex.GetBalance(bctx, asset)
	if err != nil {
		log.Warn().Err(err).Str("venue", venue).Str("asset", asset).Msg("balance query failed")
		return 0
	}
	return bal
}

func (lt *LiveTrader) place(ctx context.Context, ex dsvc.OrderExecutor, pair model.TradingPair, side dsvc.Side, qty float64) (fill *dsvc.OrderFill, err error) {
	defer func() {
		if r := recover(); r != nil {
			fill, err = nil, fmt.Errorf("order panic: %v", r)
		}
	}()
	pctx, cancel := context.WithTimeout(ctx, lt.deps.OrderTimeout)
	defer cancel()
	fill, err = ex.PlaceMarketOrder(pctx, pair, side, qty)
	if err == nil && fill == nil {
		err = errors.New("empty order response")
	}
	return fill, err
}

// awaitFill 返回买单的最终成交数量。回报带终态成交时直接使用，
// 否则轮询订单状态直到终态；重试用尽仍未确认时返回最后看到的数量和 error
func (lt *LiveTrader) awaitFill(ctx context.Context, ex dsvc.OrderExecutor, pair model.TradingPair, fill *dsvc.OrderFill) (float64, error) {
	if fill.FilledQty > 0 && (fill.Status == "" || dsvc.IsFinalStatus(fill.Status)) {
		return fill.FilledQty, nil
	}
	if fill.OrderID == "" {
		return fill.FilledQty, errors.New("no order id to query")
	}

	last := fill.FilledQty
	var lastErr error
	for i := 0; i < lt.deps.StatusRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-time.After(lt.deps.StatusRetryDelay):
			}
		}
		st, err := lt.orderStatus(ctx, ex, pair, fill.OrderID)
		if err != nil {
			log.Warn().Err(err).Str("order_id", fill.OrderID).Int("attempt", i+1).Msg("order status query failed")
			lastErr = err
			continue
		}
		last = st.ExecutedQuantity
		if st.Final() {
			return last, nil
		}
		lastErr = fmt.Errorf("order still %s with %.8f filled", st.Status, last)
	}
	return last, fmt.Errorf("fill not final after %d checks: %w", lt.deps.StatusRetries, lastErr)
}

// orderStatus panic 不在这里恢复，由 Execute 按单边持仓处理
func (lt *LiveTrader) orderStatus(ctx context.Context, ex dsvc.OrderExecutor, pair model.TradingPair, orderID string) (*dsvc.OrderStatus, error) {
	sctx, cancel := context.WithTimeout(ctx, lt.deps.OrderTimeout)
	defer cancel()
	st, err := ex.GetOrderStatus(sctx, pair, orderID)
	if err == nil && st == nil {
		err = errors.New("empty order status")
	}
	return st, err
}

// partial 买单已成交但卖单失败：单边持仓，必须人工处理，不重试
func (lt *LiveTrader) partial(ctx context.Context, trade *model.LiveTrade, err error) model.LiveTradeResult {
	lt.mu.Lock()
	lt.halted = true
	lt.mu.Unlock()

	ev := log.WithLevel(zerolog.FatalLevel).Err(err)
	if trade != nil {
		ev = ev.Str("trade_id", trade.ID).
			Str("pair", trade.Pair.String()).
			Str("buy_venue", trade.BuyVenue).
			Str("buy_order", trade.BuyOrderID).
			Float64("qty", trade.Quantity).
			Str("sell_venue", trade.SellVenue)
	}
	ev.Msg("!!! PARTIALLY FILLED: unhedged position open, manual intervention required !!!")

	if lt.deps.Alerter != nil {
		body := err.Error()
		if trade != nil {
			body = fmt.Sprintf("%s %s bought on %s (order %s, qty %.8f), not hedged on %s: %v",
				trade.ID, trade.Pair, trade.BuyVenue, trade.BuyOrderID, trade.Quantity, trade.SellVenue, err)
		}
		if aerr := lt.deps.Alerter.Alert(context.WithoutCancel(ctx), "PARTIALLY FILLED", body); aerr != nil {
			log.Error().Err(aerr).Msg("alert delivery failed")
		}
	}
	return lt.finish(trade, model.StatePartiallyFilled, err)
}

func (lt *LiveTrader) finish(trade *model.LiveTrade, state model.TradeState, err error) model.LiveTradeResult {
	res := model.LiveTradeResult{State: state, Err: err}
	if err != nil {
		res.Reason = err.Error()
	}
	if trade == nil {
		return res
	}

	trade.State = state
	trade.Reason = res.Reason
	trade.FinishedAt = lt.now()
	rec := *trade
	res.Trade = &rec

	lt.mu.Lock()
	lt.history = append(lt.history, rec)
	lt.mu.Unlock()
	return res
}

func (lt *LiveTrader) isHalted() bool {
	lt.mu.RLock()
	defer lt.mu.RUnlock()
	return lt.halted
}

// History 实盘记录副本
func (lt *LiveTrader) History() []model.LiveTrade {
	lt.mu.RLock()
	defer lt.mu.RUnlock()
	out := make([]model.LiveTrade, len(lt.history))
	copy(out, lt.history)
	return out
}

func (lt *LiveTrader) TotalPnL() float64 {
	return lt.deps.Risk.TotalPnL()
}
