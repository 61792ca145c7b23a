package binance

import (
	"context"

	"spotarb/internal/domain/model"
	"spotarb/internal/infrastructure/exchange"
)

// TickerFeed Binance 现货买一价
type TickerFeed struct {
	*APIClient
}

// NewTickerFeed 创建价格源
func NewTickerFeed(client *APIClient) *TickerFeed {
	return &TickerFeed{APIClient: client}
}

type bookTicker struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	AskPrice string `json:"askPrice"`
}

func (f *TickerFeed) Name() string { return exchange.Binance }

// FetchPrices 一次请求拉取全部 bookTicker 后按请求的交易对过滤
func (f *TickerFeed) FetchPrices(ctx context.Context, pairs []model.TradingPair) (map[model.TradingPair]float64, error) {
	index := f.mapper.Index(pairs)
	if len(index) == 0 {
		return map[model.TradingPair]float64{}, nil
	}

	var tickers []bookTicker
	if err := exchange.GetJSON(ctx, f.httpClient, f.baseURL+"/api/v3/ticker/bookTicker", &tickers); err != nil {
		return nil, err
	}

	out := make(map[model.TradingPair]float64, len(index))
	for _, t := range tickers {
		p, ok := index[t.Symbol]
		if !ok {
			continue
		}
		if bid, ok := exchange.ParsePrice(t.BidPrice); ok {
			out[p] = bid
		}
	}
	return out, nil
}
