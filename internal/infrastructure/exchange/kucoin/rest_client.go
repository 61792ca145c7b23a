package kucoin

import (
	"context"
	"fmt"

	"spotarb/internal/domain/model"
	"spotarb/internal/infrastructure/exchange"
)

// TickerFeed KuCoin 现货买一价
type TickerFeed struct {
	*APIClient
}

func NewTickerFeed(client *APIClient) *TickerFeed {
	return &TickerFeed{APIClient: client}
}

type allTickersResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Ticker []struct {
			Symbol string `json:"symbol"`
			Buy    string `json:"buy"`
			Last   string `json:"last"`
		} `json:"ticker"`
	} `json:"data"`
}

func (f *TickerFeed) Name() string { return exchange.KuCoin }

func (f *TickerFeed) FetchPrices(ctx context.Context, pairs []model.TradingPair) (map[model.TradingPair]float64, error) {
	index := f.mapper.Index(pairs)
	if len(index) == 0 {
		return map[model.TradingPair]float64{}, nil
	}

	var resp allTickersResponse
	if err := exchange.GetJSON(ctx, f.httpClient, f.baseURL+"/api/v1/market/allTickers", &resp); err != nil {
		return nil, err
	}
	if resp.Code != codeOK {
		return nil, fmt.Errorf("kucoin code %s: %s", resp.Code, resp.Msg)
	}

	out := make(map[model.TradingPair]float64, len(index))
	for _, t := range resp.Data.Ticker {
		p, ok := index[t.Symbol]
		if !ok {
			continue
		}
		// buy = 买一价；null 的交易对跳过
		if bid, ok := exchange.ParsePrice(t.Buy); ok {
			out[p] = bid
		}
	}
	return out, nil
}
