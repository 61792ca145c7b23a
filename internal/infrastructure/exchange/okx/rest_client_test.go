package okx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"spotarb/internal/domain/model"
	"spotarb/internal/infrastructure/pricefeed"
)

func TestFetchPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("instType") != "SPOT" {
			t.Errorf("instType = %q", r.URL.Query().Get("instType"))
		}
		_, _ = w.Write([]byte(`{"code":"0","data":[
			{"instId":"BTC-USDT","bidPx":"43249.9"},
			{"instId":"SOL-USDT","bidPx":"101.25"},
			{"instId":"DOGE-USDT","bidPx":"0.08"}
		]}`))
	}))
	defer srv.Close()

	btc, sol := model.MustPair("BTC-USDT"), model.MustPair("SOL-USDT")
	prices, err := NewTickerFeed(pricefeed.Options{BaseURL: srv.URL}).
		FetchPrices(context.Background(), []model.TradingPair{btc, sol})
	if err != nil {
		t.Fatal(err)
	}
	if len(prices) != 2 || prices[btc] != 43249.9 || prices[sol] != 101.25 {
		t.Fatalf("prices = %v", prices)
	}
}

func TestFetchPricesSymbolOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"0","data":[{"instId":"RNDR-USDT","bidPx":"7.1"}]}`))
	}))
	defer srv.Close()

	render := model.MustPair("RENDER-USDT")
	feed := NewTickerFeed(pricefeed.Options{BaseURL: srv.URL, Symbols: map[string]string{"RENDER-USDT": "RNDR-USDT"}})
	prices, err := feed.FetchPrices(context.Background(), []model.TradingPair{render})
	if err != nil {
		t.Fatal(err)
	}
	if prices[render] != 7.1 {
		t.Fatalf("prices = %v", prices)
	}
}
