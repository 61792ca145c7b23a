package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"spotarb/internal/domain/model"
	dsvc "spotarb/internal/domain/service"
	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/pricefeed"
)

// SpotOrderClient KuCoin 现货下单；下单回报不含成交量，需要查询订单
type SpotOrderClient struct {
	*APIClient
}

func NewSpotOrderClient(client *APIClient) (*SpotOrderClient, error) {
	if !client.credentials.valid() {
		return nil, pricefeed.ErrNoCredentials
	}
	return &SpotOrderClient{APIClient: client}, nil
}

type placeOrderRequest struct {
	ClientOid string `json:"clientOid"`
	Side      string `json:"side"`
	Symbol    string `json:"symbol"`
	Type      string `json:"type"`
	Size      string `json:"size"`
}

type orderDetail struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Size        string `json:"size"`
	DealSize    string `json:"dealSize"`
	DealFunds   string `json:"dealFunds"`
	IsActive    bool   `json:"isActive"`
	CancelExist bool   `json:"cancelExist"`
	CreatedAt   int64  `json:"createdAt"`
}

type account struct {
	Currency  string `json:"currency"`
	Type      string `json:"type"`
	Balance   string `json:"balance"`
	Available string `json:"available"`
}

func (c *SpotOrderClient) symbol(pair model.TradingPair) (string, error) {
	s, ok := c.mapper.Symbol(pair)
	if !ok {
		return "", fmt.Errorf("kucoin: unsupported pair %s", pair)
	}
	return s, nil
}

func (c *SpotOrderClient) PlaceMarketOrder(ctx context.Context, pair model.TradingPair, side dsvc.Side, quantity float64) (*dsvc.OrderFill, error) {
	sym, err := c.symbol(pair)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("kucoin: invalid quantity %v", quantity)
	}

	req := placeOrderRequest{
		ClientOid: uuid.NewString(),
		Side:      strings.ToLower(string(side)),
		Symbol:    sym,
		Type:      "market",
		Size:      exchange.FormatQuantity(quantity),
	}
	data, err := c.signedRequest(ctx, http.MethodPost, "/api/v1/orders", req)
	if err != nil {
		return nil, fmt.Errorf("kucoin place order: %w", err)
	}

	var resp struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("kucoin decode order: %w", err)
	}
	if resp.OrderID == "" {
		return nil, fmt.Errorf("kucoin order without id")
	}
	return &dsvc.OrderFill{
		OrderID:     resp.OrderID,
		Status:      "NEW",
		SubmittedAt: time.Now(),
	}, nil
}

// GetBalance 交易账户可用余额
func (c *SpotOrderClient) GetBalance(ctx context.Context, asset string) (float64, error) {
	q := url.Values{}
	q.Set("currency", strings.ToUpper(strings.TrimSpace(asset)))
	q.Set("type", "trade")

	data, err := c.signedRequest(ctx, http.MethodGet, "/api/v1/accounts?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("kucoin accounts: %w", err)
	}
	var accounts []account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return 0, fmt.Errorf("kucoin decode accounts: %w", err)
	}
	for _, a := range accounts {
		if a.Type == "trade" && strings.EqualFold(a.Currency, asset) {
			return exchange.ParseDecimal(a.Available), nil
		}
	}
	return 0, nil
}

func (c *SpotOrderClient) GetOrderStatus(ctx context.Context, pair model.TradingPair, orderID string) (*dsvc.OrderStatus, error) {
	data, err := c.signedRequest(ctx, http.MethodGet, "/api/v1/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return nil, fmt.Errorf("kucoin order status: %w", err)
	}
	var d orderDetail
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("kucoin decode order status: %w", err)
	}

	deal := exchange.ParseDecimal(d.DealSize)
	st := &dsvc.OrderStatus{
		OrderID:          d.ID,
		Symbol:           d.Symbol,
		Side:             dsvc.Side(strings.ToUpper(d.Side)),
		Quantity:         exchange.ParseDecimal(d.Size),
		ExecutedQuantity: deal,
		Status:           orderState(d, deal),
		UpdatedAt:        time.UnixMilli(d.CreatedAt),
	}
	if deal > 0 {
		st.AvgExecutedPrice = exchange.ParseDecimal(d.DealFunds) / deal
	}
	return st, nil
}

func orderState(d orderDetail, deal float64) string {
	switch {
	case d.IsActive && deal > 0:
		return "PARTIALLY_FILLED"
	case d.IsActive:
		return "NEW"
	case d.CancelExist:
		return "CANCELED"
	default:
		return "FILLED"
	}
}

var _ dsvc.OrderExecutor = (*SpotOrderClient)(nil)
