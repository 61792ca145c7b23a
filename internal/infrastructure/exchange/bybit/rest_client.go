package bybit

import (
	"context"
	"fmt"

	"spotarb/internal/domain/model"
	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/pricefeed"
)

const DefaultBaseURL = "https://api.bybit.com"

// TickerFeed Bybit 现货买一价
type TickerFeed struct {
	*exchange.RESTClient
}

func NewTickerFeed(opts pricefeed.Options) *TickerFeed {
	return &TickerFeed{RESTClient: exchange.NewRESTClient(opts, DefaultBaseURL, exchange.NewPairMapper(""))}
}

type tickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol    string `json:"symbol"`
			Bid1Price string `json:"bid1Price"`
		} `json:"list"`
	} `json:"result"`
}

func (f *TickerFeed) Name() string { return exchange.Bybit }

func (f *TickerFeed) FetchPrices(ctx context.Context, pairs []model.TradingPair) (map[model.TradingPair]float64, error) {
	index := f.Mapper.Index(pairs)
	if len(index) == 0 {
		return map[model.TradingPair]float64{}, nil
	}

	var resp tickersResponse
	if err := exchange.GetJSON(ctx, f.HTTP, f.BaseURL+"/v5/market/tickers?category=spot", &resp); err != nil {
		return nil, err
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("bybit retCode %d: %s", resp.RetCode, resp.RetMsg)
	}

	out := make(map[model.TradingPair]float64, len(index))
	for _, t := range resp.Result.List {
		p, ok := index[t.Symbol]
		if !ok {
			continue
		}
		if bid, ok := exchange.ParsePrice(t.Bid1Price); ok {
			out[p] = bid
		}
	}
	return out, nil
}
