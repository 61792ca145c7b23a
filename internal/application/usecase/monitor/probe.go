package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"spotarb/internal/domain/model"
)

// ProbeResult 单个交易所的一次拉取
type ProbeResult struct {
	Venue  string
	Prices map[model.TradingPair]float64
	Took   time.Duration
	Err    error
}

// Probe 每个交易所拉取一次价格，结果按交易所名称排序
func Probe(ctx context.Context, feeds []PriceFeed, pairs []model.TradingPair, timeout time.Duration) []ProbeResult {
	out := make([]ProbeResult, len(feeds))
	var g errgroup.Group
	for i, f := range feeds {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			start := time.Now()
			prices, err := f.FetchPrices(fctx, pairs)
			out[i] = ProbeResult{Venue: f.Name(), Prices: prices, Took: time.Since(start), Err: err}
			return nil
		})
	}
	_ = g.Wait()
	sort.SliceStable(out, func(a, b int) bool { return out[a].Venue < out[b].Venue })
	return out
}

// RenderProbe 每个交易所一段：耗时、错误或各交易对价格
func RenderProbe(results []ProbeResult, pairs []model.TradingPair) string {
	var b strings.Builder
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(&b, "%s: %s (%s)\n", r.Venue, colorize("error", ansiRed), r.Err)
			continue
		}
		fmt.Fprintf(&b, "%s: %d/%d pairs in %s\n", r.Venue, len(r.Prices), len(pairs), r.Took.Round(time.Millisecond))
		for _, p := range pairs {
			if px, ok := r.Prices[p]; ok {
				fmt.Fprintf(&b, "  %-12s %s\n", p, formatPrice(px))
			} else {
				fmt.Fprintf(&b, "  %-12s --\n", p)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
