package gateio

import (
	"context"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/pricefeed"
)

const DefaultBaseURL = "https://api.gateio.ws"

// TickerFeed Gate.io 现货买一价，currency_pair 形如 BTC_USDT
type TickerFeed struct {
	*exchange.RESTClient
}

func NewTickerFeed(opts pricefeed.Options) *TickerFeed {
	return &TickerFeed{RESTClient: exchange.NewRESTClient(opts, DefaultBaseURL, exchange.NewPairMapper("_"))}
}

type ticker struct {
	CurrencyPair string `json:"currency_pair"`
	HighestBid   string `json:"highest_bid"`
	LowestAsk    string `json:"lowest_ask"`
}

func (f *TickerFeed) Name() string { return exchange.GateIO }

func (f *TickerFeed) FetchPrices(ctx context.Context, pairs []model.TradingPair) (map[model.TradingPair]float64, error) {
	index := f.Mapper.Index(pairs)
	if len(index) == 0 {
		return map[model.TradingPair]float64{}, nil
	}

	var tickers []ticker
	if err := exchange.GetJSON(ctx, f.HTTP, f.BaseURL+"/api/v4/spot/tickers", &tickers); err != nil {
		return nil, err
	}

	out := make(map[model.TradingPair]float64, len(index))
	for _, t := range tickers {
		p, ok := index[t.CurrencyPair]
		if !ok {
			continue
		}
		// 买一价，与其他交易所一致
		if bid, ok := exchange.ParsePrice(t.HighestBid); ok {
			out[p] = bid
		}
	}
	return out, nil
}

func init() {
	pricefeed.Register(exchange.GateIO, func(opts pricefeed.Options) port.PriceFeed {
		return NewTickerFeed(opts)
	})
}
