package pricefeed

import (
	"context"
	"testing"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

type nopFeed struct{ name string }

func (f nopFeed) Name() string { return f.name }

func (f nopFeed) FetchPrices(context.Context, []model.TradingPair) (map[model.TradingPair]float64, error) {
	return nil, nil
}

func TestRegisterCaseInsensitive(t *testing.T) {
	Register("TestVenue", func(opts Options) port.PriceFeed { return nopFeed{name: "testvenue"} })

	f, ok := Get("testvenue")
	if !ok {
		t.Fatal("factory not found")
	}
	if got := f(Options{}).Name(); got != "testvenue" {
		t.Fatalf("name = %q", got)
	}

	found := false
	for _, n := range Names() {
		if n == "testvenue" {
			found = true
		}
	}
	if !found {
		t.Fatal("Names() missing testvenue")
	}

	if _, ok := GetExecutor("testvenue"); ok {
		t.Fatal("no executor registered for testvenue")
	}
}

func TestRegisterNilIgnored(t *testing.T) {
	Register("nilvenue", nil)
	if _, ok := Get("nilvenue"); ok {
		t.Fatal("nil factory should not register")
	}
}
