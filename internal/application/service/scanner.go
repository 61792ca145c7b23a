package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
	dsvc "spotarb/internal/domain/service"
)

// FeeModel 交易所费率查询
type FeeModel interface {
	FeeRate(venue string) float64
}

// ScannerConfig 扫描参数
type ScannerConfig struct {
	Pairs            []model.TradingPair
	MinNetProfitPct  float64       // 净利润下限（含），可以为 0
	MaxOpportunities int           // <= 0 不限制
	FetchTimeout     time.Duration // 单个交易所请求上限
}

// ScanResult 一轮扫描的结果
type ScanResult struct {
	Opportunities []model.Opportunity
	Quotes        []model.VenueQuote
	FailedVenues  []string
	StartedAt     time.Time
	Duration      time.Duration
}

// Scanner 并发拉取各交易所价格，两两比较生成套利机会
type Scanner struct {
	venues  []string // 固定顺序，保证排序稳定
	feeds   map[string]port.PriceFeed
	fees    FeeModel
	cfg     ScannerConfig
	metrics port.Metrics
	now     func() time.Time
}

// NewScanner 创建扫描器；feeds 的顺序即发现顺序
func NewScanner(feeds []port.PriceFeed, fees FeeModel, cfg ScannerConfig, metrics port.Metrics) *Scanner {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if metrics == nil {
		metrics = port.NoopMetrics()
	}
	s := &Scanner{
		feeds:   make(map[string]port.PriceFeed, len(feeds)),
		fees:    fees,
		cfg:     cfg,
		metrics: metrics,
		now:     time.Now,
	}
	for _, f := range feeds {
		if f == nil {
			continue
		}
		name := strings.ToLower(f.Name())
		if _, dup := s.feeds[name]; dup {
			log.Warn().Str("venue", name).Msg("duplicate price feed ignored")
			continue
		}
		s.venues = append(s.venues, name)
		s.feeds[name] = f
	}
	return s
}

// Venues returns the configured venue names in discovery order.
func (s *Scanner) Venues() []string {
	out := make([]string, len(s.venues))
	copy(out, s.venues)
	return out
}

// Feed 按名称获取价格源
func (s *Scanner) Feed(venue string) (port.PriceFeed, bool) {
	f, ok := s.feeds[strings.ToLower(venue)]
	return f, ok
}

type venueResult struct {
	prices map[model.TradingPair]float64
	err    error
}

// Scan 执行一轮：并发拉取 -> 汇合 -> 两两比较 -> 过滤 -> 排序 -> 截断
func (s *Scanner) Scan(ctx context.Context) *ScanResult {
	start := s.now()

	results := make([]venueResult, len(s.venues))
	var g errgroup.Group
	for i, venue := range s.venues {
		g.Go(func() error {
			results[i] = s.fetch(ctx, venue)
			return nil
		})
	}
	_ = g.Wait()

	res := &ScanResult{StartedAt: start}
	books := make(map[string]map[model.TradingPair]float64, len(s.venues))
	for i, venue := range s.venues {
		r := results[i]
		if r.err != nil {
			// 失败的交易所本轮视为无数据
			log.Warn().Err(r.err).Str("venue", venue).Msg("price fetch failed")
			s.metrics.VenueFailed(venue)
			res.FailedVenues = append(res.FailedVenues, venue)
			continue
		}
		books[venue] = r.prices
	}

	res.Quotes = s.quotes(books, start)
	res.Opportunities = s.detect(books, start)
	res.Duration = s.now().Sub(start)
	s.metrics.ObserveScan(res.Duration, len(res.Opportunities))
	return res
}

// fetch 调用单个交易所，超时或 panic 都转换成 error
func (s *Scanner) fetch(ctx context.Context, venue string) venueResult {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	done := make(chan venueResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- venueResult{err: fmt.Errorf("price feed panic: %v", r)}
			}
		}()
		prices, err := s.feeds[venue].FetchPrices(fctx, s.cfg.Pairs)
		done <- venueResult{prices: prices, err: err}
	}()

	select {
	case r := <-done:
		return r
	case <-fctx.Done():
		return venueResult{err: fmt.Errorf("fetch %s: %w", venue, fctx.Err())}
	}
}

func (s *Scanner) quotes(books map[string]map[model.TradingPair]float64, at time.Time) []model.VenueQuote {
	var out []model.VenueQuote
	for _, pair := range s.cfg.Pairs {
		for _, venue := range s.venues {
			if px, ok := usablePrice(books[venue], pair); ok {
				out = append(out, model.VenueQuote{Venue: venue, Pair: pair, Bid: px, ObservedAt: at})
			}
		}
	}
	return out
}

type venuePrice struct {
	venue string
	price float64
}

func (s *Scanner) detect(books map[string]map[model.TradingPair]float64, at time.Time) []model.Opportunity {
	var opps []model.Opportunity

	for _, pair := range s.cfg.Pairs {
		var quoted []venuePrice
		for _, venue := range s.venues {
			if px, ok := usablePrice(books[venue], pair); ok {
				quoted = append(quoted, venuePrice{venue: venue, price: px})
			}
		}
		if len(quoted) < 2 {
			continue
		}

		// 有向、穷举：最低价的交易所在费率不同的情况下未必是最佳买入方
		for _, buy := range quoted {
			for _, sell := range quoted {
				if buy.venue == sell.venue || sell.price <= buy.price {
					continue
				}
				abs, pct := dsvc.Spread(buy.price, sell.price)
				buyFee := s.fees.FeeRate(buy.venue)
				sellFee := s.fees.FeeRate(sell.venue)
				net := dsvc.NetProfitPct(pct, buyFee, sellFee)
				if net < s.cfg.MinNetProfitPct {
					continue
				}
				opps = append(opps, model.Opportunity{
					Pair:         pair,
					BuyVenue:     buy.venue,
					SellVenue:    sell.venue,
					BuyPrice:     buy.price,
					SellPrice:    sell.price,
					SpreadAbs:    abs,
					SpreadPct:    pct,
					BuyFeeRate:   buyFee,
					SellFeeRate:  sellFee,
					NetProfitPct: net,
					DetectedAt:   at,
				})
			}
		}
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].NetProfitPct > opps[j].NetProfitPct
	})
	if s.cfg.MaxOpportunities > 0 && len(opps) > s.cfg.MaxOpportunities {
		opps = opps[:s.cfg.MaxOpportunities]
	}
	return opps
}

func usablePrice(book map[model.TradingPair]float64, pair model.TradingPair) (float64, bool) {
	px, ok := book[pair]
	if !ok || px <= 0 || math.IsNaN(px) || math.IsInf(px, 0) {
		return 0, false
	}
	return px, true
}
