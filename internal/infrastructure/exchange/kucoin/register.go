package kucoin

import (
	"spotarb/internal/application/port"
	dsvc "spotarb/internal/domain/service"
	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/pricefeed"
)

// init() automatically registers KuCoin price feed and order executor factories
func init() {
	pricefeed.Register(exchange.KuCoin, func(opts pricefeed.Options) port.PriceFeed {
		return NewTickerFeed(NewAPIClient(opts))
	})
	pricefeed.RegisterExecutor(exchange.KuCoin, func(opts pricefeed.Options) (dsvc.OrderExecutor, error) {
		c, err := NewSpotOrderClient(NewAPIClient(opts))
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}
