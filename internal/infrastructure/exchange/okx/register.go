package okx

import (
	"spotarb/internal/application/port"
	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/pricefeed"
)

// init() automatically registers OKX spot price feed factory
func init() {
	pricefeed.Register(exchange.OKX, func(opts pricefeed.Options) port.PriceFeed {
		return NewTickerFeed(opts)
	})
}
