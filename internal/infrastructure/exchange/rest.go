package exchange

import (
	"net/http"
	"strings"

	"spotarb/internal/infrastructure/pricefeed"
)

// RESTClient 只读行情适配器的公共部分
type RESTClient struct {
	HTTP    *http.Client
	BaseURL string
	Mapper  *PairMapper
}

// NewRESTClient opts.BaseURL 为空时使用 defaultBase
func NewRESTClient(opts pricefeed.Options, defaultBase string, mapper *PairMapper) *RESTClient {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBase
	}
	return &RESTClient{
		HTTP:    NewHTTPClient(opts.Timeout),
		BaseURL: base,
		Mapper:  mapper.WithOverrides(opts.Symbols),
	}
}

func (c *RESTClient) Close() error {
	return CloseIdle(c.HTTP)
}
