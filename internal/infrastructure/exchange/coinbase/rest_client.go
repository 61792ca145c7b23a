package coinbase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/pricefeed"
)

const (
	DefaultBaseURL = "https://api.exchange.coinbase.com"

	productsTTL = time.Hour
	maxInFlight = 4
)

// TickerFeed Coinbase Exchange 没有批量行情接口，按产品逐个查询
// USDT 交易对未上架时回退到 USD
type TickerFeed struct {
	*exchange.RESTClient

	mu        sync.Mutex
	products  map[string]struct{}
	fetchedAt time.Time
}

func NewTickerFeed(opts pricefeed.Options) *TickerFeed {
	return &TickerFeed{RESTClient: exchange.NewRESTClient(opts, DefaultBaseURL, exchange.NewPairMapper("-"))}
}

type product struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ticker struct {
	Bid   string `json:"bid"`
	Price string `json:"price"`
}

func (f *TickerFeed) Name() string { return exchange.Coinbase }

func (f *TickerFeed) FetchPrices(ctx context.Context, pairs []model.TradingPair) (map[model.TradingPair]float64, error) {
	listed, err := f.listed(ctx)
	if err != nil {
		return nil, err
	}

	targets := make(map[model.TradingPair]string, len(pairs))
	for _, p := range pairs {
		if id, ok := resolve(f.Mapper, listed, p); ok {
			targets[p] = id
		}
	}

	var (
		mu  sync.Mutex
		out = make(map[model.TradingPair]float64, len(targets))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)
	for p, id := range targets {
		g.Go(func() error {
			var t ticker
			if err := exchange.GetJSON(gctx, f.HTTP, f.BaseURL+"/products/"+id+"/ticker", &t); err != nil {
				// 单个产品失败只导致缺失
				log.Debug().Err(err).Str("product", id).Msg("coinbase ticker failed")
				return nil
			}
			bid, ok := exchange.ParsePrice(t.Bid)
			if !ok {
				bid, ok = exchange.ParsePrice(t.Price)
			}
			if ok {
				mu.Lock()
				out[p] = bid
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func resolve(m *exchange.PairMapper, listed map[string]struct{}, p model.TradingPair) (string, bool) {
	id, ok := m.Symbol(p)
	if !ok {
		return "", false
	}
	if _, ok := listed[id]; ok {
		return id, true
	}
	if p.Quote == "USDT" {
		alt := p.Base + "-USD"
		if _, ok := listed[alt]; ok {
			return alt, true
		}
	}
	return "", false
}

// listed 产品列表缓存一小时
func (f *TickerFeed) listed(ctx context.Context) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.products != nil && time.Since(f.fetchedAt) < productsTTL {
		return f.products, nil
	}

	var list []product
	if err := exchange.GetJSON(ctx, f.HTTP, f.BaseURL+"/products", &list); err != nil {
		return nil, err
	}
	products := make(map[string]struct{}, len(list))
	for _, p := range list {
		if p.Status != "" && !strings.EqualFold(p.Status, "online") {
			continue
		}
		products[strings.ToUpper(p.ID)] = struct{}{}
	}
	f.products = products
	f.fetchedAt = time.Now()
	return products, nil
}

func init() {
	pricefeed.Register(exchange.Coinbase, func(opts pricefeed.Options) port.PriceFeed {
		return NewTickerFeed(opts)
	})
}
