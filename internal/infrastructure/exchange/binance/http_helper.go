package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"spotarb/internal/infrastructure/exchange"
)

const recvWindow = "5000"

// apiError Binance 错误体 {"code":-2010,"msg":"..."}
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// signedRequest 对 query 做 HMAC 签名并把响应解码到 out
func (c *APIClient) signedRequest(ctx context.Context, method, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	if params.Get("recvWindow") == "" {
		params.Set("recvWindow", recvWindow)
	}

	query := params.Encode()
	endpoint, err := exchange.BuildQueryURL(c.baseURL, path, query+"&signature="+c.credentials.Sign(query))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-MBX-APIKEY", c.credentials.APIKey())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return withAPIError(exchange.DoJSON(c.httpClient, req, out))
}

// withAPIError 把错误码和说明带进错误信息，保留 StatusError 供 errors.As
func withAPIError(err error) error {
	var se *exchange.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var ae apiError
	if json.Unmarshal([]byte(se.Body), &ae) != nil || ae.Code == 0 {
		return err
	}
	return fmt.Errorf("binance code %d (%s): %w", ae.Code, ae.Msg, err)
}
