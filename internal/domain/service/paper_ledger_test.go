package service

import (
	"math"
	"testing"

	"spotarb/internal/domain/model"
)

func testOpp(buy, sell, buyFee, sellFee float64) model.Opportunity {
	abs, pct := Spread(buy, sell)
	return model.Opportunity{
		Pair:         model.MustPair("BTC-USDT"),
		BuyVenue:     "binance",
		SellVenue:    "kraken",
		BuyPrice:     buy,
		SellPrice:    sell,
		SpreadAbs:    abs,
		SpreadPct:    pct,
		BuyFeeRate:   buyFee,
		SellFeeRate:  sellFee,
		NetProfitPct: NetProfitPct(pct, buyFee, sellFee),
	}
}

func TestPaperLedgerExecuteArithmetic(t *testing.T) {
	l := NewPaperLedger(1000)
	rec := l.Execute(testOpp(100, 101, 0.001, 0.002), 100)

	// qty = 1, revenue = 101, fees = 0.1 + 0.202
	if math.Abs(rec.Quantity-1) > 1e-12 {
		t.Errorf("quantity: got %v", rec.Quantity)
	}
	if math.Abs(rec.Revenue-101) > 1e-9 {
		t.Errorf("revenue: got %v", rec.Revenue)
	}
	if math.Abs(rec.BuyFee-0.1) > 1e-12 || math.Abs(rec.SellFee-0.202) > 1e-12 {
		t.Errorf("fees: got %v / %v", rec.BuyFee, rec.SellFee)
	}
	if math.Abs(rec.GrossProfit-1) > 1e-9 {
		t.Errorf("gross: got %v", rec.GrossProfit)
	}
	if math.Abs(rec.NetProfit-0.698) > 1e-9 {
		t.Errorf("net: got %v", rec.NetProfit)
	}
	if math.Abs(rec.BalanceAfter-1000.698) > 1e-9 {
		t.Errorf("balance after: got %v", rec.BalanceAfter)
	}
	if rec.ID == "" {
		t.Error("expected record id")
	}
}

func TestPaperLedgerLosingTradeIsRecorded(t *testing.T) {
	l := NewPaperLedger(500)
	rec := l.Execute(testOpp(100, 100.1, 0.005, 0.005), 100)

	if rec.NetProfit >= 0 {
		t.Fatalf("expected a loss, got %v", rec.NetProfit)
	}
	st := l.Stats()
	if st.TotalTrades != 1 || st.ProfitableTrades != 0 {
		t.Errorf("unexpected counters: %+v", st)
	}
	if st.WinRate != 0 {
		t.Errorf("win rate should be 0, got %v", st.WinRate)
	}
}

func TestPaperLedgerHistoryMatchesBalance(t *testing.T) {
	l := NewPaperLedger(1000)
	opps := []model.Opportunity{
		testOpp(100, 101, 0.001, 0.001),
		testOpp(50, 50.02, 0.001, 0.002),
		testOpp(2000, 2010, 0.0008, 0.0026),
		testOpp(0.5, 0.501, 0.001, 0.001),
	}

	var sum float64
	for _, o := range opps {
		sum += l.Execute(o, 100).NetProfit
	}

	hist := l.History()
	if len(hist) != len(opps) {
		t.Fatalf("expected %d records, got %d", len(opps), len(hist))
	}
	st := l.Stats()
	if st.TotalTrades != len(opps) {
		t.Errorf("total trades: got %d", st.TotalTrades)
	}
	if math.Abs(st.CurrentBalance-(1000+sum)) > 1e-9 {
		t.Errorf("balance %v != initial + sum(net) %v", st.CurrentBalance, 1000+sum)
	}
	if math.Abs(st.TotalNetProfit-sum) > 1e-9 {
		t.Errorf("total net profit %v != %v", st.TotalNetProfit, sum)
	}
	if math.Abs(st.ReturnPct-sum/1000*100) > 1e-9 {
		t.Errorf("return pct: got %v", st.ReturnPct)
	}
}

func TestPaperLedgerStatsEmpty(t *testing.T) {
	st := NewPaperLedger(1000).Stats()
	if st.TotalTrades != 0 || st.WinRate != 0 || st.ReturnPct != 0 {
		t.Errorf("unexpected stats for empty ledger: %+v", st)
	}
}

func TestPaperLedgerHistoryIsCopy(t *testing.T) {
	l := NewPaperLedger(1000)
	l.Execute(testOpp(100, 101, 0.001, 0.001), 100)

	h := l.History()
	h[0].NetProfit = 12345

	if l.History()[0].NetProfit == 12345 {
		t.Error("History must not expose internal slice")
	}
}
