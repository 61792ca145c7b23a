package service

import (
	"errors"
	"testing"

	"spotarb/internal/domain/model"
)

func TestRiskManagerProfitThreshold(t *testing.T) {
	rm := NewRiskManager(true, 0.2, 100, 50)

	low := model.Opportunity{NetProfitPct: 0.15}
	if err := rm.CheckProfit(low); !errors.Is(err, ErrProfitTooLow) {
		t.Errorf("0.15%% should be rejected, got %v", err)
	}
	ok := model.Opportunity{NetProfitPct: 0.25}
	if err := rm.CheckProfit(ok); err != nil {
		t.Errorf("0.25%% should pass, got %v", err)
	}
}

func TestRiskManagerDisabled(t *testing.T) {
	rm := NewRiskManager(false, 0.2, 100, 50)
	if err := rm.CheckEnabled(); !errors.Is(err, ErrTradingDisabled) {
		t.Fatalf("expected ErrTradingDisabled, got %v", err)
	}
}

func TestRiskManagerLossLimit(t *testing.T) {
	rm := NewRiskManager(true, 0.2, 100, 50)

	rm.RecordPnL(-50)
	if err := rm.CheckLossLimit(); err != nil {
		t.Errorf("exactly at the limit should still trade, got %v", err)
	}

	rm.RecordPnL(-0.01)
	if err := rm.CheckLossLimit(); !errors.Is(err, ErrDailyLossLimit) {
		t.Errorf("expected ErrDailyLossLimit, got %v", err)
	}

	rm.RestorePnL(0)
	if rm.TotalPnL() != 0 {
		t.Errorf("restore failed: %v", rm.TotalPnL())
	}
}
