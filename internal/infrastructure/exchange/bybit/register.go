package bybit

import (
	"spotarb/internal/application/port"
	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/pricefeed"
)

// init() automatically registers Bybit price feed factory
func init() {
	pricefeed.Register(exchange.Bybit, func(opts pricefeed.Options) port.PriceFeed {
		return NewTickerFeed(opts)
	})
}
