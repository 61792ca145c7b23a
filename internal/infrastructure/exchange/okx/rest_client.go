package okx

import (
	"context"
	"fmt"

	"spotarb/internal/domain/model"
	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/pricefeed"
)

const DefaultBaseURL = "https://www.okx.com"

// TickerFeed OKX 现货买一价，instId 形如 BTC-USDT
type TickerFeed struct {
	*exchange.RESTClient
}

func NewTickerFeed(opts pricefeed.Options) *TickerFeed {
	return &TickerFeed{RESTClient: exchange.NewRESTClient(opts, DefaultBaseURL, exchange.NewPairMapper("-"))}
}

type tickersResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID string `json:"instId"`
		BidPx  string `json:"bidPx"`
	} `json:"data"`
}

func (f *TickerFeed) Name() string { return exchange.OKX }

func (f *TickerFeed) FetchPrices(ctx context.Context, pairs []model.TradingPair) (map[model.TradingPair]float64, error) {
	index := f.Mapper.Index(pairs)
	if len(index) == 0 {
		return map[model.TradingPair]float64{}, nil
	}

	var resp tickersResponse
	if err := exchange.GetJSON(ctx, f.HTTP, f.BaseURL+"/api/v5/market/tickers?instType=SPOT", &resp); err != nil {
		return nil, err
	}
	if resp.Code != "0" {
		return nil, fmt.Errorf("okx code %s: %s", resp.Code, resp.Msg)
	}

	out := make(map[model.TradingPair]float64, len(index))
	for _, t := range resp.Data {
		p, ok := index[t.InstID]
		if !ok {
			continue
		}
		if bid, ok := exchange.ParsePrice(t.BidPx); ok {
			out[p] = bid
		}
	}
	return out, nil
}
