package bybit

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
		if r.URL.Path != "/v5/market/tickers" || r.URL.Query().Get("category") != "spot" {
			t.Errorf("unexpected request %s", r.URL)
		}
		_, _ = w.Write([]byte(`{"retCode":0,"result":{"list":[
			{"symbol":"BTCUSDT","bid1Price":"43251.2"},
			{"symbol":"ETHUSDT","bid1Price":""}
		]}}`))
	}))
	defer srv.Close()

	btc := model.MustPair("BTC-USDT")
	prices, err := NewTickerFeed(pricefeed.Options{BaseURL: srv.URL}).
		FetchPrices(context.Background(), []model.TradingPair{btc, model.MustPair("ETH-USDT")})
	if err != nil {
		t.Fatal(err)
	}
	if len(prices) != 1 || prices[btc] != 43251.2 {
		t.Fatalf("prices = %v", prices)
	}
}

func TestFetchPricesRetCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":10006,"retMsg":"Too many visits"}`))
	}))
	defer srv.Close()

	_, err := NewTickerFeed(pricefeed.Options{BaseURL: srv.URL}).
		FetchPrices(context.Background(), []model.TradingPair{model.MustPair("BTC-USDT")})
	if err == nil {
		t.Fatal("expected error for non-zero retCode")
	}
}
