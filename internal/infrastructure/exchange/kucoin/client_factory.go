package kucoin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/pricefeed"
)

const DefaultBaseURL = "https://api.kucoin.com"

// Credentials KuCoin API v2 凭证
type Credentials struct {
	apiKey     string
	apiSecret  string
	passphrase string
}

func NewCredentials(apiKey, apiSecret, passphrase string) *Credentials {
	return &Credentials{apiKey: apiKey, apiSecret: apiSecret, passphrase: passphrase}
}

// Sign base64(HMAC-SHA256(secret, data))
func (c *Credentials) Sign(data string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Passphrase key version 2 要求对 passphrase 也签名
func (c *Credentials) Passphrase() string {
	return c.Sign(c.passphrase)
}

func (c *Credentials) valid() bool {
	return c.apiKey != "" && c.apiSecret != "" && c.passphrase != ""
}

// APIClient 共享 HTTP 连接、凭证和符号映射
type APIClient struct {
	credentials *Credentials
	httpClient  *http.Client
	baseURL     string
	mapper      *exchange.PairMapper
}

func NewAPIClient(opts pricefeed.Options) *APIClient {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &APIClient{
		credentials: NewCredentials(opts.APIKey, opts.APISecret, opts.Passphrase),
		httpClient:  exchange.NewHTTPClient(opts.Timeout),
		baseURL:     base,
		mapper:      exchange.NewPairMapper("-").WithOverrides(opts.Symbols),
	}
}

func (c *APIClient) Close() error {
	return exchange.CloseIdle(c.httpClient)
}
