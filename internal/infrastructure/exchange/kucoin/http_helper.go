package kucoin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"spotarb/internal/infrastructure/exchange"
)

const codeOK = "200000"

// envelope KuCoin 统一响应
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// signedRequest endpoint 含 query，例如 /api/v1/accounts?currency=USDT
func (c *APIClient) signedRequest(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error) {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = b
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req.Header.Set("KC-API-KEY", c.credentials.apiKey)
	req.Header.Set("KC-API-SIGN", c.credentials.Sign(ts+method+endpoint+string(body)))
	req.Header.Set("KC-API-TIMESTAMP", ts)
	req.Header.Set("KC-API-PASSPHRASE", c.credentials.Passphrase())
	req.Header.Set("KC-API-KEY-VERSION", "2")
	req.Header.Set("Content-Type", "application/json")

	var env envelope
	if err := exchange.DoJSON(c.httpClient, req, &env); err != nil {
		return nil, err
	}
	if env.Code != codeOK {
		return nil, fmt.Errorf("kucoin code %s: %s", env.Code, env.Msg)
	}
	return env.Data, nil
}
