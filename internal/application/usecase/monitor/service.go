package monitor

import (
	"context"
	"errors"
	"time"

	"spotarb/internal/application/port"
	"spotarb/internal/application/service"
	"spotarb/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// OpportunitySource 每轮扫描
type OpportunitySource interface {
	Venues() []string
	Scan(ctx context.Context) *service.ScanResult
}

// PaperBook 模拟盘账本
type PaperBook interface {
	Execute(opp model.Opportunity, amount float64) model.PaperTrade
	Stats() model.PaperStats
}

// LiveExecutor 实盘控制器
type LiveExecutor interface {
	Execute(ctx context.Context, opp model.Opportunity, manualApproval bool) model.LiveTradeResult
	TotalPnL() float64
}

type ServiceDeps struct {
	Scanner OpportunitySource
	Paper   PaperBook    // paper 模式必需
	Live    LiveExecutor // live 模式必需

	Mode            Mode
	Pairs           []model.TradingPair
	Interval        time.Duration
	TradesPerCycle  int // 每轮最多执行的机会数
	TradeAmount     float64
	ManualApproval  bool
	MinNetProfitPct float64

	Sink    port.Sink
	Repo    Repository
	Metrics port.Metrics
}

type Service struct {
	deps   ServiceDeps
	st     *State
	fmt    *Formatter
	cycle  int
	status statusBox
}

func NewService(deps ServiceDeps) *Service {
	if deps.Repo == nil {
		deps.Repo = NewNoopRepo()
	}
	if deps.Metrics == nil {
		deps.Metrics = port.NoopMetrics()
	}
	if deps.TradesPerCycle <= 0 {
		deps.TradesPerCycle = 1
	}
	if deps.Mode == "" {
		deps.Mode = ModeMonitor
	}
	var venues []string
	if deps.Scanner != nil {
		venues = deps.Scanner.Venues()
	}
	svc := &Service{
		deps: deps,
		st:   NewState(deps.Pairs),
		fmt:  NewFormatter(deps.MinNetProfitPct, venues),
	}
	svc.status.set(Status{Mode: deps.Mode, Venues: len(venues)})
	return svc
}

// Status 最近一轮的摘要，可并发读取
func (s *Service) Status() Status {
	return s.status.get()
}

func (s *Service) validate() error {
	if s.deps.Scanner == nil {
		return errors.New("no scanner")
	}
	if s.deps.Sink == nil {
		return errors.New("no sink")
	}
	switch s.deps.Mode {
	case ModePaper:
		if s.deps.Paper == nil {
			return errors.New("paper mode without ledger")
		}
		if s.deps.TradeAmount <= 0 {
			return errors.New("paper trade amount must be positive")
		}
	case ModeLive:
		if s.deps.Live == nil {
			return errors.New("live mode without controller")
		}
	}
	return nil
}

// Run 按固定间隔循环扫描，直到 ctx 结束
func (s *Service) Run(ctx context.Context) error {
	if err := s.validate(); err != nil {
		return err
	}
	log.Info().
		Str("mode", string(s.deps.Mode)).
		Int("venues", len(s.deps.Scanner.Venues())).
		Int("pairs", len(s.deps.Pairs)).
		Dur("interval", s.deps.Interval).
		Msg("scheduler started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			return ctx.Err()
		case <-timer.C:
		}

		start := time.Now()
		s.RunCycle(ctx)

		wait := s.deps.Interval - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// RunCycle 执行一轮：扫描、持久化、展示、分发
func (s *Service) RunCycle(ctx context.Context) {
	s.cycle++
	_ = s.deps.Sink.WriteLive(s.fmt.RenderStatus(s.cycle, len(s.deps.Scanner.Venues())))

	res := s.deps.Scanner.Scan(ctx)
	if ctx.Err() != nil {
		// interrupted mid-scan: quotes may be partial, take no decisions
		return
	}

	if err := s.deps.Repo.SaveQuotes(ctx, res.Quotes); err != nil {
		log.Warn().Err(err).Msg("save quotes failed")
	}
	if len(res.Opportunities) > 0 {
		if err := s.deps.Repo.SaveOpportunities(ctx, res.Opportunities); err != nil {
			log.Warn().Err(err).Msg("save opportunities failed")
		}
	}
	s.st.ApplyCycle(res.Quotes)

	s.dispatch(ctx, res.Opportunities)

	view := CycleView{Cycle: s.cycle, Mode: s.deps.Mode, State: s.st, Result: res}
	switch s.deps.Mode {
	case ModePaper:
		stats := s.deps.Paper.Stats()
		view.Paper = &stats
	case ModeLive:
		pnl := s.deps.Live.TotalPnL()
		view.LivePnL = &pnl
	}
	_ = s.deps.Sink.WriteSnapshot(res.StartedAt, s.fmt.RenderCycle(view))
	s.publish(view)
}

func (s *Service) publish(v CycleView) {
	st := Status{
		Mode:          v.Mode,
		Cycle:         v.Cycle,
		LastScanAt:    v.Result.StartedAt,
		ScanDuration:  v.Result.Duration.String(),
		Venues:        len(s.deps.Scanner.Venues()),
		FailedVenues:  append([]string(nil), v.Result.FailedVenues...),
		Opportunities: len(v.Result.Opportunities),
		Paper:         v.Paper,
		LivePnL:       v.LivePnL,
	}
	if len(v.Result.Opportunities) > 0 {
		best := v.Result.Opportunities[0]
		st.Best = &best
	}
	s.status.set(st)
}

func (s *Service) dispatch(ctx context.Context, opps []model.Opportunity) {
	if s.deps.Mode == ModeMonitor || len(opps) == 0 {
		return
	}
	top := opps
	if len(top) > s.deps.TradesPerCycle {
		top = top[:s.deps.TradesPerCycle]
	}

	for _, opp := range top {
		switch s.deps.Mode {
		case ModePaper:
			s.paperTrade(ctx, opp)
		case ModeLive:
			if ctx.Err() != nil {
				return
			}
			s.liveTrade(ctx, opp)
		}
	}
}

func (s *Service) paperTrade(ctx context.Context, opp model.Opportunity) {
	t := s.deps.Paper.Execute(opp, s.deps.TradeAmount)
	s.deps.Metrics.PaperBalance(t.BalanceAfter)
	if err := s.deps.Repo.SavePaperTrade(ctx, t); err != nil {
		log.Warn().Err(err).Str("trade", t.ID).Msg("save paper trade failed")
	}
	log.Info().
		Str("pair", t.Pair.String()).
		Str("buy", t.BuyVenue).
		Str("sell", t.SellVenue).
		Float64("net", t.NetProfit).
		Float64("balance", t.BalanceAfter).
		Msg("paper trade")
}

func (s *Service) liveTrade(ctx context.Context, opp model.Opportunity) {
	res := s.deps.Live.Execute(ctx, opp, s.deps.ManualApproval)
	if res.Trade != nil {
		// 记录不受取消影响
		if err := s.deps.Repo.SaveLiveTrade(context.WithoutCancel(ctx), *res.Trade); err != nil {
			log.Warn().Err(err).Str("trade", res.Trade.ID).Msg("save live trade failed")
		}
	}
	_ = s.deps.Sink.WriteSnapshot(time.Now(), s.fmt.RenderLiveResult(res, opp))
}
