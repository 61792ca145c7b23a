package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

type stubFeed struct {
	name   string
	prices map[model.TradingPair]float64
	err    error
	delay  time.Duration
	calls  int
}

func (f *stubFeed) Name() string { return f.name }

func (f *stubFeed) FetchPrices(ctx context.Context, pairs []model.TradingPair) (map[model.TradingPair]float64, error) {
	f.calls++
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[model.TradingPair]float64)
	for _, p := range pairs {
		if px, ok := f.prices[p]; ok {
			out[p] = px
		}
	}
	return out, nil
}

type flatFees float64

func (f flatFees) FeeRate(string) float64 { return float64(f) }

type tableFees map[string]float64

func (f tableFees) FeeRate(v string) float64 { return f[v] }

var (
	btc = model.MustPair("BTC-USDT")
	eth = model.MustPair("ETH-USDT")
)

func asFeeds(in []*stubFeed) []port.PriceFeed {
	out := make([]port.PriceFeed, 0, len(in))
	for _, f := range in {
		out = append(out, f)
	}
	return out
}

func feed(name string, prices map[model.TradingPair]float64) *stubFeed {
	return &stubFeed{name: name, prices: prices}
}

func TestScannerDirectionalExhaustive(t *testing.T) {
	feeds := []*stubFeed{
		feed("a", map[model.TradingPair]float64{btc: 100}),
		feed("b", map[model.TradingPair]float64{btc: 101}),
		feed("c", map[model.TradingPair]float64{btc: 99.5}),
	}
	s := NewScanner(asFeeds(feeds), flatFees(0), ScannerConfig{Pairs: []model.TradingPair{btc}}, nil)

	res := s.Scan(context.Background())
	require.Len(t, res.Opportunities, 3)

	got := map[string]bool{}
	for _, o := range res.Opportunities {
		got[o.BuyVenue+"->"+o.SellVenue] = true
		assert.Greater(t, o.SellPrice, o.BuyPrice)
		assert.NotEqual(t, o.BuyVenue, o.SellVenue)
		assert.InDelta(t, o.SellPrice-o.BuyPrice, o.SpreadAbs, 1e-12)
	}
	assert.True(t, got["c->a"])
	assert.True(t, got["c->b"])
	assert.True(t, got["a->b"])

	// c->b has the widest spread
	assert.Equal(t, "c", res.Opportunities[0].BuyVenue)
	assert.Equal(t, "b", res.Opportunities[0].SellVenue)
}

func TestScannerRankingAndCap(t *testing.T) {
	// one pair per spread so net profits are known
	pairs := []model.TradingPair{
		model.MustPair("P1-USDT"), model.MustPair("P2-USDT"), model.MustPair("P3-USDT"),
		model.MustPair("P4-USDT"), model.MustPair("P5-USDT"),
	}
	sells := []float64{100.5, 101.2, 100.8, 100.3, 101.0}
	buyBook := map[model.TradingPair]float64{}
	sellBook := map[model.TradingPair]float64{}
	for i, p := range pairs {
		buyBook[p] = 100
		sellBook[p] = sells[i]
	}

	cfg := ScannerConfig{Pairs: pairs, MaxOpportunities: 2}
	s := NewScanner(asFeeds([]*stubFeed{feed("lo", buyBook), feed("hi", sellBook)}), flatFees(0), cfg, nil)

	res := s.Scan(context.Background())
	require.Len(t, res.Opportunities, 2)
	assert.InDelta(t, 1.2, res.Opportunities[0].NetProfitPct, 1e-9)
	assert.InDelta(t, 1.0, res.Opportunities[1].NetProfitPct, 1e-9)

	s.cfg.MaxOpportunities = 0
	all := s.Scan(context.Background()).Opportunities
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].NetProfitPct, all[i].NetProfitPct)
	}
}

func TestScannerStableTies(t *testing.T) {
	book1 := map[model.TradingPair]float64{btc: 100, eth: 100}
	book2 := map[model.TradingPair]float64{btc: 101, eth: 101}
	s := NewScanner(asFeeds([]*stubFeed{feed("x", book1), feed("y", book2)}), flatFees(0),
		ScannerConfig{Pairs: []model.TradingPair{btc, eth}}, nil)

	res := s.Scan(context.Background())
	require.Len(t, res.Opportunities, 2)
	assert.Equal(t, btc, res.Opportunities[0].Pair, "equal net profit keeps discovery order")
	assert.Equal(t, eth, res.Opportunities[1].Pair)
}

func TestScannerThresholdAndFees(t *testing.T) {
	book1 := map[model.TradingPair]float64{btc: 100}
	book2 := map[model.TradingPair]float64{btc: 100.3}
	fees := tableFees{"cheap": 0.001, "pricey": 0.001}

	s := NewScanner(asFeeds([]*stubFeed{feed("cheap", book1), feed("pricey", book2)}), fees,
		ScannerConfig{Pairs: []model.TradingPair{btc}, MinNetProfitPct: 0.09}, nil)
	res := s.Scan(context.Background())
	require.Len(t, res.Opportunities, 1)
	assert.InDelta(t, 0.1, res.Opportunities[0].NetProfitPct, 1e-9)

	s.cfg.MinNetProfitPct = 0.11
	assert.Empty(t, s.Scan(context.Background()).Opportunities)
}

func TestScannerPartialVenueFailure(t *testing.T) {
	feeds := []*stubFeed{
		feed("a", map[model.TradingPair]float64{btc: 100}),
		{name: "dead", err: errors.New("connection refused")},
		feed("b", map[model.TradingPair]float64{btc: 102}),
	}
	s := NewScanner(asFeeds(feeds), flatFees(0.001), ScannerConfig{Pairs: []model.TradingPair{btc}}, nil)

	res := s.Scan(context.Background())
	assert.Equal(t, []string{"dead"}, res.FailedVenues)
	require.Len(t, res.Opportunities, 1)
	assert.Equal(t, "a", res.Opportunities[0].BuyVenue)
	assert.Equal(t, "b", res.Opportunities[0].SellVenue)
}

func TestScannerHungVenueTimesOut(t *testing.T) {
	slow := feed("slow", map[model.TradingPair]float64{btc: 50})
	slow.delay = 2 * time.Second
	feeds := []*stubFeed{
		feed("a", map[model.TradingPair]float64{btc: 100}),
		feed("b", map[model.TradingPair]float64{btc: 101}),
		slow,
	}
	s := NewScanner(asFeeds(feeds), flatFees(0),
		ScannerConfig{Pairs: []model.TradingPair{btc}, FetchTimeout: 50 * time.Millisecond}, nil)

	start := time.Now()
	res := s.Scan(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, res.FailedVenues, "slow")
	require.Len(t, res.Opportunities, 1)
}

func TestScannerIgnoresUnusablePrices(t *testing.T) {
	feeds := []*stubFeed{
		feed("a", map[model.TradingPair]float64{btc: 0, eth: 10}),
		feed("b", map[model.TradingPair]float64{btc: 101, eth: -1}),
	}
	s := NewScanner(asFeeds(feeds), flatFees(0), ScannerConfig{Pairs: []model.TradingPair{btc, eth}}, nil)

	res := s.Scan(context.Background())
	assert.Empty(t, res.Opportunities)
	assert.Len(t, res.Quotes, 2)
}

func TestScannerSingleRequestPerVenue(t *testing.T) {
	a := feed("a", map[model.TradingPair]float64{btc: 100, eth: 10})
	b := feed("b", map[model.TradingPair]float64{btc: 101, eth: 11})
	s := NewScanner(asFeeds([]*stubFeed{a, b}), flatFees(0), ScannerConfig{Pairs: []model.TradingPair{btc, eth}}, nil)

	s.Scan(context.Background())
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}
