package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb/internal/domain/model"
)

type staticFeed struct {
	name   string
	prices map[model.TradingPair]float64
	err    error
	block  bool
}

func (f staticFeed) Name() string { return f.name }

func (f staticFeed) FetchPrices(ctx context.Context, _ []model.TradingPair) (map[model.TradingPair]float64, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.prices, f.err
}

func TestProbe(t *testing.T) {
	eth := model.MustPair("ETH-USDT")
	feeds := []PriceFeed{
		staticFeed{name: "okx", prices: map[model.TradingPair]float64{btc: 43000.5}},
		staticFeed{name: "binance", err: errors.New("http 451")},
		staticFeed{name: "kraken", block: true},
	}

	res := Probe(context.Background(), feeds, []model.TradingPair{btc, eth}, 20*time.Millisecond)
	require.Len(t, res, 3)
	assert.Equal(t, "binance", res[0].Venue)
	assert.Equal(t, "kraken", res[1].Venue)
	assert.ErrorIs(t, res[1].Err, context.DeadlineExceeded)
	assert.Equal(t, "okx", res[2].Venue)

	out := RenderProbe(res, []model.TradingPair{btc, eth})
	assert.Contains(t, out, "http 451")
	assert.Contains(t, out, "okx: 1/2 pairs")
	assert.Contains(t, out, "43000.50")
	assert.Contains(t, out, "ETH-USDT     --")
}
