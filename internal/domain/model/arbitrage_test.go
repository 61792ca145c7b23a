package model

import "testing"

func TestParsePair(t *testing.T) {
	p, err := ParsePair(" btc-usdt ")
	if err != nil {
		t.Fatalf("ParsePair failed: %v", err)
	}
	if p.Base != "BTC" || p.Quote != "USDT" {
		t.Errorf("unexpected pair: %+v", p)
	}
	if p.String() != "BTC-USDT" {
		t.Errorf("String() = %q", p.String())
	}

	for _, bad := range []string{"", "BTCUSDT", "BTC-", "-USDT", "A-B-C"} {
		if _, err := ParsePair(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestTradeStateTerminal(t *testing.T) {
	terminal := []TradeState{StateSettled, StateRejected, StateAborted, StatePartiallyFilled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []TradeState{StateIdle, StateSafetyCheck, StateAwaitingApproval, StatePlacingBuy, StatePlacingSell} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
