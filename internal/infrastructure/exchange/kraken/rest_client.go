package kraken

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/pricefeed"
)

const DefaultBaseURL = "https://api.kraken.com/0"

// KnownPairs Kraken 只查询已知可用的交易对；配置中的 symbols 可以追加
var KnownPairs = map[string]string{
	"BTC-USDT":  "BTCUSDT",
	"ETH-USDT":  "ETHUSDT",
	"ADA-USDT":  "ADAUSDT",
	"DOT-USDT":  "DOTUSDT",
	"LINK-USDT": "LINKUSDT",
	"SOL-USDT":  "SOLUSDT",
	"AVAX-USDT": "AVAXUSDT",
	"ATOM-USDT": "ATOMUSDT",
	"XRP-USDT":  "XRPUSDT",
	"DOGE-USDT": "DOGEUSDT",
	"NEAR-USDT": "NEARUSDT",
	"ALGO-USDT": "ALGOUSDT",
	"SAND-USDT": "SANDUSDT",
	"MANA-USDT": "MANAUSDT",
	"ENJ-USDT":  "ENJUSDT",
	"CHZ-USDT":  "CHZUSDT",
	"BAT-USDT":  "BATUSDT",
	"GALA-USDT": "GALAUSDT",
	"IMX-USDT":  "IMXUSDT",
	"RUNE-USDT": "RUNEUSDT",
	"INJ-USDT":  "INJUSDT",
	"ARB-USDT":  "ARBUSDT",
	"OP-USDT":   "OPUSDT",
	"APT-USDT":  "APTUSDT",
	"SEI-USDT":  "SEIUSDT",
	"SUI-USDT":  "SUIUSDT",
}

// TickerFeed Kraken 买一价
type TickerFeed struct {
	*exchange.RESTClient
}

func NewTickerFeed(opts pricefeed.Options) *TickerFeed {
	return &TickerFeed{RESTClient: exchange.NewRESTClient(opts, DefaultBaseURL, exchange.NewFixedPairMapper(KnownPairs))}
}

// b = [price, whole lot volume, lot volume]
type tickerResponse struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		B []string `json:"b"`
	} `json:"result"`
}

func (f *TickerFeed) Name() string { return exchange.Kraken }

func (f *TickerFeed) FetchPrices(ctx context.Context, pairs []model.TradingPair) (map[model.TradingPair]float64, error) {
	index := f.Mapper.Index(pairs)
	if len(index) == 0 {
		return map[model.TradingPair]float64{}, nil
	}

	symbols := make([]string, 0, len(index))
	for s := range index {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	endpoint, err := exchange.BuildQueryURL(f.BaseURL, "/public/Ticker", "pair="+url.QueryEscape(strings.Join(symbols, ",")))
	if err != nil {
		return nil, err
	}

	var resp tickerResponse
	if err := exchange.GetJSON(ctx, f.HTTP, endpoint, &resp); err != nil {
		return nil, err
	}
	if errs := fatalErrors(resp.Error); len(errs) > 0 {
		return nil, fmt.Errorf("kraken: %s", strings.Join(errs, "; "))
	}
	if len(resp.Error) > 0 {
		log.Debug().Strs("errors", resp.Error).Msg("kraken unknown pairs ignored")
	}

	out := make(map[model.TradingPair]float64, len(index))
	for sym, t := range resp.Result {
		p, ok := index[sym]
		if !ok {
			// kraken 有时返回自己的别名
			p, ok = f.Mapper.Pair(sym)
			if !ok {
				continue
			}
		}
		if len(t.B) == 0 {
			continue
		}
		if bid, ok := exchange.ParsePrice(t.B[0]); ok {
			out[p] = bid
		}
	}
	return out, nil
}

// fatalErrors 过滤掉 "Unknown asset pair"
func fatalErrors(errs []string) []string {
	var out []string
	for _, e := range errs {
		if !strings.Contains(e, "Unknown asset pair") {
			out = append(out, e)
		}
	}
	return out
}

func init() {
	pricefeed.Register(exchange.Kraken, func(opts pricefeed.Options) port.PriceFeed {
		return NewTickerFeed(opts)
	})
}
