package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/pricefeed"
)

// DefaultBaseURL Binance 现货 REST
const DefaultBaseURL = "https://api.binance.com"

// ===== Credentials 凭证 =====

// Credentials 包含 API 凭证和签名方法
type Credentials struct {
	apiKey    string
	apiSecret string
}

// NewCredentials 创建凭证对象
func NewCredentials(apiKey, apiSecret string) *Credentials {
	return &Credentials{
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// Sign 生成 HMAC-SHA256 签名
func (c *Credentials) Sign(data string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// APIKey 返回 API Key
func (c *Credentials) APIKey() string {
	return c.apiKey
}

// APIClient 共享 HTTP 连接、凭证和符号映射
type APIClient struct {
	credentials *Credentials
	httpClient  *http.Client
	baseURL     string
	mapper      *exchange.PairMapper
}

// NewAPIClient 根据注册参数创建客户端；凭证可以为空（只读行情）
func NewAPIClient(opts pricefeed.Options) *APIClient {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &APIClient{
		credentials: NewCredentials(opts.APIKey, opts.APISecret),
		httpClient:  exchange.NewHTTPClient(opts.Timeout),
		baseURL:     base,
		mapper:      exchange.NewPairMapper("").WithOverrides(opts.Symbols),
	}
}

// Close 释放空闲连接
func (c *APIClient) Close() error {
	return exchange.CloseIdle(c.httpClient)
}
