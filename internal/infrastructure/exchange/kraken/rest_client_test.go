package kraken

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"spotarb/internal/domain/model"
	"spotarb/internal/infrastructure/pricefeed"
)

func TestFetchPricesKnownPairsOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pair"); got != "BTCUSDT,ETHUSDT" {
			t.Errorf("pair = %q", got)
		}
		_, _ = w.Write([]byte(`{"error":[],"result":{
			"BTCUSDT":{"b":["43255.0","1","1.000"]},
			"ETHUSDT":{"b":["2301.5","3","3.000"]}
		}}`))
	}))
	defer srv.Close()

	btc, eth := model.MustPair("BTC-USDT"), model.MustPair("ETH-USDT")
	pairs := []model.TradingPair{btc, eth, model.MustPair("PEPE-USDT")}
	prices, err := NewTickerFeed(pricefeed.Options{BaseURL: srv.URL}).FetchPrices(context.Background(), pairs)
	if err != nil {
		t.Fatal(err)
	}
	if len(prices) != 2 || prices[btc] != 43255.0 || prices[eth] != 2301.5 {
		t.Fatalf("prices = %v", prices)
	}
}

func TestFetchPricesUnknownPairErrorIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":["EQuery:Unknown asset pair"],"result":{}}`))
	}))
	defer srv.Close()

	prices, err := NewTickerFeed(pricefeed.Options{BaseURL: srv.URL}).
		FetchPrices(context.Background(), []model.TradingPair{model.MustPair("SUI-USDT")})
	if err != nil || len(prices) != 0 {
		t.Fatalf("prices=%v err=%v", prices, err)
	}
}

func TestFetchPricesFatalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":["EService:Unavailable"]}`))
	}))
	defer srv.Close()

	_, err := NewTickerFeed(pricefeed.Options{BaseURL: srv.URL}).
		FetchPrices(context.Background(), []model.TradingPair{model.MustPair("BTC-USDT")})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNoSupportedPairsSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	prices, err := NewTickerFeed(pricefeed.Options{BaseURL: srv.URL}).
		FetchPrices(context.Background(), []model.TradingPair{model.MustPair("PEPE-USDT")})
	if err != nil || len(prices) != 0 || called {
		t.Fatalf("prices=%v err=%v called=%v", prices, err, called)
	}
}
