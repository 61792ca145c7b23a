package monitor

import (
	"strings"
	"testing"

	"spotarb/internal/application/service"
	"spotarb/internal/domain/model"
)

func TestStateDirection(t *testing.T) {
	st := NewState([]model.TradingPair{btc, btc, {}})
	if got := len(st.Pairs()); got != 1 {
		t.Fatalf("pairs = %d, want 1", got)
	}

	st.ApplyCycle([]model.VenueQuote{{Venue: "Binance", Pair: btc, Bid: 100}})
	px := st.Snapshot(btc)["binance"]
	if !px.seen || px.dir != DirSame || px.price != 100 {
		t.Fatalf("first quote: %+v", px)
	}

	st.ApplyCycle([]model.VenueQuote{{Venue: "binance", Pair: btc, Bid: 101}})
	if d := st.Snapshot(btc)["binance"].dir; d != DirUp {
		t.Fatalf("dir = %v, want up", d)
	}

	st.ApplyCycle([]model.VenueQuote{{Venue: "binance", Pair: btc, Bid: 99}})
	if d := st.Snapshot(btc)["binance"].dir; d != DirDown {
		t.Fatalf("dir = %v, want down", d)
	}

	// venue missing this cycle keeps last price but is not seen
	st.ApplyCycle(nil)
	px = st.Snapshot(btc)["binance"]
	if px.seen || px.price != 99 {
		t.Fatalf("missing cycle: %+v", px)
	}
}

func TestStateIgnoresUnknownPairs(t *testing.T) {
	st := NewState([]model.TradingPair{btc})
	st.ApplyCycle([]model.VenueQuote{{Venue: "okx", Pair: model.MustPair("ETH-USDT"), Bid: 10}})
	if st.Snapshot(model.MustPair("ETH-USDT")) != nil {
		t.Fatal("unexpected state for untracked pair")
	}
}

func TestFormatterRender(t *testing.T) {
	st := NewState([]model.TradingPair{btc})
	st.ApplyCycle([]model.VenueQuote{{Venue: "binance", Pair: btc, Bid: 43250.1}})

	f := NewFormatter(0.1, []string{"binance", "kucoin"})
	out := f.RenderCycle(CycleView{
		Cycle: 3,
		Mode:  ModeMonitor,
		State: st,
		Result: &service.ScanResult{
			Opportunities: []model.Opportunity{{
				Pair: btc, BuyVenue: "binance", SellVenue: "kucoin",
				BuyPrice: 43250.1, SellPrice: 43400, SpreadPct: 0.35, NetProfitPct: 0.25,
			}},
			FailedVenues: []string{"kucoin"},
		},
	})

	for _, want := range []string{"cycle 3", "venues 1/2", "failed: kucoin", "binance:43250.10", "kucoin:--", "net 0.2500%"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, ansiGreen) {
		t.Error("net profit above twice the threshold should be green")
	}
}

func TestFormatPrice(t *testing.T) {
	cases := map[float64]string{
		43250.123: "43250.12",
		1.5:       "1.5000",
		0.0001234: "0.00012340",
	}
	for in, want := range cases {
		if got := formatPrice(in); got != want {
			t.Errorf("formatPrice(%v) = %q, want %q", in, got, want)
		}
	}
}
