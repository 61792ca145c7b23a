package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 交易所名称（小写，与配置键一致）
const (
	Binance  = "binance"
	Bybit    = "bybit"
	OKX      = "okx"
	KuCoin   = "kucoin"
	GateIO   = "gateio"
	Kraken   = "kraken"
	Coinbase = "coinbase"
)

// DefaultTimeout 单次 HTTP 请求超时
const DefaultTimeout = 10 * time.Second

// StatusError 非 200 响应
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// IsStatus 判断 err 是否为指定 HTTP 状态码
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// NewHTTPClient 每个交易所一个，进程内复用
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// GetJSON GET 并解码 JSON
func GetJSON(ctx context.Context, client *http.Client, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return DoJSON(client, req, out)
}

// DoJSON 发送请求并解码 JSON 响应体
func DoJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// BuildQueryURL builds a URL with query parameters
func BuildQueryURL(base, path, query string) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "", errors.New("base url is empty")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query
	return u.String(), nil
}

// ParsePrice 解析字符串价格；空串、非正数、非法值返回 false
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// FormatQuantity 下单数量截断到 8 位小数
func FormatQuantity(qty float64) string {
	return decimal.NewFromFloat(qty).Truncate(8).String()
}

// ParseDecimal 交易所返回的十进制字符串；非法值为 0
func ParseDecimal(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// Closer 持有 http.Client 的交易所适配器
type Closer interface {
	Close() error
}

// CloseIdle 释放空闲连接
func CloseIdle(client *http.Client) error {
	if client != nil {
		client.CloseIdleConnections()
	}
	return nil
}
