package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spotarb/internal/domain/model"
	dsvc "spotarb/internal/domain/service"
	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/pricefeed"
)

// SpotOrderClient Binance 现货下单
type SpotOrderClient struct {
	*APIClient
}

// NewSpotOrderClient 需要 API key 和 secret
func NewSpotOrderClient(client *APIClient) (*SpotOrderClient, error) {
	if client.credentials.apiKey == "" || client.credentials.apiSecret == "" {
		return nil, pricefeed.ErrNoCredentials
	}
	return &SpotOrderClient{APIClient: client}, nil
}

// orderResponse POST/GET /api/v3/order
type orderResponse struct {
	Symbol              string `json:"symbol"`
	OrderID             int64  `json:"orderId"`
	Side                string `json:"side"`
	OrigQty             string `json:"origQty"`
	ExecutedQty         string `json:"executedQty"`
	CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
	Status              string `json:"status"`
	TransactTime        int64  `json:"transactTime"`
	UpdateTime          int64  `json:"updateTime"`
}

type accountResponse struct {
	Balances []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

func (c *SpotOrderClient) symbol(pair model.TradingPair) (string, error) {
	s, ok := c.mapper.Symbol(pair)
	if !ok {
		return "", fmt.Errorf("binance: unsupported pair %s", pair)
	}
	return s, nil
}

// PlaceMarketOrder 市价单，FULL 回报带成交数量
func (c *SpotOrderClient) PlaceMarketOrder(ctx context.Context, pair model.TradingPair, side dsvc.Side, quantity float64) (*dsvc.OrderFill, error) {
	sym, err := c.symbol(pair)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("binance: invalid quantity %v", quantity)
	}

	params := url.Values{}
	params.Set("symbol", sym)
	params.Set("side", string(side))
	params.Set("type", "MARKET")
	params.Set("quantity", exchange.FormatQuantity(quantity))
	params.Set("newOrderRespType", "FULL")

	var resp orderResponse
	if err := c.signedRequest(ctx, http.MethodPost, "/api/v3/order", params, &resp); err != nil {
		return nil, fmt.Errorf("binance place order: %w", err)
	}
	if resp.OrderID == 0 {
		return nil, fmt.Errorf("binance order rejected: status %q", resp.Status)
	}

	executed := exchange.ParseDecimal(resp.ExecutedQty)
	quote := exchange.ParseDecimal(resp.CummulativeQuoteQty)
	fill := &dsvc.OrderFill{
		OrderID:     strconv.FormatInt(resp.OrderID, 10),
		FilledQty:   executed,
		QuoteFilled: quote,
		Status:      resp.Status,
		SubmittedAt: time.UnixMilli(resp.TransactTime),
	}
	if executed > 0 {
		fill.AvgPrice = quote / executed
	}
	return fill, nil
}

// GetBalance 可用余额
func (c *SpotOrderClient) GetBalance(ctx context.Context, asset string) (float64, error) {
	var resp accountResponse
	if err := c.signedRequest(ctx, http.MethodGet, "/api/v3/account", nil, &resp); err != nil {
		return 0, fmt.Errorf("binance account: %w", err)
	}
	asset = strings.ToUpper(strings.TrimSpace(asset))
	for _, b := range resp.Balances {
		if b.Asset == asset {
			return exchange.ParseDecimal(b.Free), nil
		}
	}
	return 0, nil
}

// GetOrderStatus 查询订单
func (c *SpotOrderClient) GetOrderStatus(ctx context.Context, pair model.TradingPair, orderID string) (*dsvc.OrderStatus, error) {
	sym, err := c.symbol(pair)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("symbol", sym)
	params.Set("orderId", orderID)

	var resp orderResponse
	if err := c.signedRequest(ctx, http.MethodGet, "/api/v3/order", params, &resp); err != nil {
		return nil, fmt.Errorf("binance order status: %w", err)
	}

	executed := exchange.ParseDecimal(resp.ExecutedQty)
	st := &dsvc.OrderStatus{
		OrderID:          strconv.FormatInt(resp.OrderID, 10),
		Symbol:           resp.Symbol,
		Side:             dsvc.Side(resp.Side),
		Quantity:         exchange.ParseDecimal(resp.OrigQty),
		ExecutedQuantity: executed,
		Status:           resp.Status,
		UpdatedAt:        time.UnixMilli(resp.UpdateTime),
	}
	if executed > 0 {
		st.AvgExecutedPrice = exchange.ParseDecimal(resp.CummulativeQuoteQty) / executed
	}
	return st, nil
}

var _ dsvc.OrderExecutor = (*SpotOrderClient)(nil)
