package kucoin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb/internal/domain/model"
	dsvc "spotarb/internal/domain/service"
	"spotarb/internal/infrastructure/pricefeed"
)

var btc = model.MustPair("BTC-USDT")

func opts(url string) pricefeed.Options {
	return pricefeed.Options{BaseURL: url, APIKey: "key", APISecret: "secret", Passphrase: "pass"}
}

func TestTickerFeedUsesBestBid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/market/allTickers", r.URL.Path)
		_, _ = w.Write([]byte(`{"code":"200000","data":{"ticker":[
			{"symbol":"BTC-USDT","buy":"43240.5","last":"43241"},
			{"symbol":"ETH-USDT","buy":null,"last":"2300"}
		]}}`))
	}))
	defer srv.Close()

	feed := NewTickerFeed(NewAPIClient(pricefeed.Options{BaseURL: srv.URL}))
	prices, err := feed.FetchPrices(context.Background(), []model.TradingPair{btc, model.MustPair("ETH-USDT")})
	require.NoError(t, err)
	assert.Equal(t, map[model.TradingPair]float64{btc: 43240.5}, prices)
}

func TestTickerFeedBadCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"429000","msg":"too many requests"}`))
	}))
	defer srv.Close()

	_, err := NewTickerFeed(NewAPIClient(pricefeed.Options{BaseURL: srv.URL})).
		FetchPrices(context.Background(), []model.TradingPair{btc})
	assert.Error(t, err)
}

func TestOrderClientNeedsPassphrase(t *testing.T) {
	_, err := NewSpotOrderClient(NewAPIClient(pricefeed.Options{APIKey: "k", APISecret: "s"}))
	assert.True(t, errors.Is(err, pricefeed.ErrNoCredentials))
}

func TestPlaceMarketOrderSignsHeaders(t *testing.T) {
	creds := NewCredentials("key", "secret", "pass")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/orders", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		ts := r.Header.Get("KC-API-TIMESTAMP")
		assert.Equal(t, "key", r.Header.Get("KC-API-KEY"))
		assert.Equal(t, "2", r.Header.Get("KC-API-KEY-VERSION"))
		assert.Equal(t, creds.Passphrase(), r.Header.Get("KC-API-PASSPHRASE"))
		assert.Equal(t, creds.Sign(ts+"POST/api/v1/orders"+string(body)), r.Header.Get("KC-API-SIGN"))

		var req placeOrderRequest
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "sell", req.Side)
		assert.Equal(t, "market", req.Type)
		assert.Equal(t, "BTC-USDT", req.Symbol)
		assert.Equal(t, "0.0025", req.Size)
		assert.NotEmpty(t, req.ClientOid)

		_, _ = w.Write([]byte(`{"code":"200000","data":{"orderId":"abc123"}}`))
	}))
	defer srv.Close()

	c, err := NewSpotOrderClient(NewAPIClient(opts(srv.URL)))
	require.NoError(t, err)

	fill, err := c.PlaceMarketOrder(context.Background(), btc, dsvc.SideSell, 0.0025)
	require.NoError(t, err)
	assert.Equal(t, "abc123", fill.OrderID)
	assert.Zero(t, fill.FilledQty, "fill must be looked up via order status")
}

func TestPlaceMarketOrderErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"200004","msg":"Balance insufficient"}`))
	}))
	defer srv.Close()

	c, err := NewSpotOrderClient(NewAPIClient(opts(srv.URL)))
	require.NoError(t, err)
	_, err = c.PlaceMarketOrder(context.Background(), btc, dsvc.SideBuy, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Balance insufficient")
}

func TestBalanceAndOrderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/accounts":
			assert.Equal(t, "USDT", r.URL.Query().Get("currency"))
			_, _ = w.Write([]byte(`{"code":"200000","data":[
				{"currency":"USDT","type":"main","balance":"999","available":"999"},
				{"currency":"USDT","type":"trade","balance":"120.5","available":"110.5"}
			]}`))
		case "/api/v1/orders/abc123":
			_, _ = w.Write([]byte(`{"code":"200000","data":{"id":"abc123","symbol":"BTC-USDT","side":"buy","size":"0.0025","dealSize":"0.0025","dealFunds":"108.1","isActive":false,"cancelExist":false}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := NewSpotOrderClient(NewAPIClient(opts(srv.URL)))
	require.NoError(t, err)

	bal, err := c.GetBalance(context.Background(), "usdt")
	require.NoError(t, err)
	assert.Equal(t, 110.5, bal)

	st, err := c.GetOrderStatus(context.Background(), btc, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 0.0025, st.ExecutedQuantity)
	assert.Equal(t, "FILLED", st.Status)
	assert.Equal(t, dsvc.SideBuy, st.Side)
	assert.InDelta(t, 43240, st.AvgExecutedPrice, 1e-6)
}

func TestOrderState(t *testing.T) {
	assert.Equal(t, "NEW", orderState(orderDetail{IsActive: true}, 0))
	assert.Equal(t, "PARTIALLY_FILLED", orderState(orderDetail{IsActive: true}, 1))
	assert.Equal(t, "CANCELED", orderState(orderDetail{CancelExist: true}, 0))
	assert.Equal(t, "FILLED", orderState(orderDetail{}, 1))
}
