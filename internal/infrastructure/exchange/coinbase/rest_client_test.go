package coinbase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"spotarb/internal/domain/model"
	"spotarb/internal/infrastructure/pricefeed"
)

func TestFetchPricesWithUSDFallback(t *testing.T) {
	var productCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products":
			productCalls.Add(1)
			_, _ = w.Write([]byte(`[
				{"id":"BTC-USDT","status":"online"},
				{"id":"ETH-USD","status":"online"},
				{"id":"XRP-USDT","status":"delisted"}
			]`))
		case "/products/BTC-USDT/ticker":
			_, _ = w.Write([]byte(`{"bid":"43247.5","price":"43248"}`))
		case "/products/ETH-USD/ticker":
			_, _ = w.Write([]byte(`{"price":"2299.9"}`))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	btc, eth, xrp := model.MustPair("BTC-USDT"), model.MustPair("ETH-USDT"), model.MustPair("XRP-USDT")
	feed := NewTickerFeed(pricefeed.Options{BaseURL: srv.URL})

	for i := 0; i < 2; i++ {
		prices, err := feed.FetchPrices(context.Background(), []model.TradingPair{btc, eth, xrp})
		if err != nil {
			t.Fatal(err)
		}
		if len(prices) != 2 || prices[btc] != 43247.5 || prices[eth] != 2299.9 {
			t.Fatalf("prices = %v", prices)
		}
	}
	if n := productCalls.Load(); n != 1 {
		t.Fatalf("product list fetched %d times, want cached", n)
	}
}

func TestFetchPricesProductListFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewTickerFeed(pricefeed.Options{BaseURL: srv.URL}).
		FetchPrices(context.Background(), []model.TradingPair{model.MustPair("BTC-USDT")})
	if err == nil {
		t.Fatal("expected error")
	}
}
