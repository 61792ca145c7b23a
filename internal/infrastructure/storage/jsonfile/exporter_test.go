package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb/internal/domain/model"
)

func TestExportWritesOrderedHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "paper_trades.json")
	at := time.Unix(1700000000, 500000000)
	trades := []model.PaperTrade{
		{ID: "1", Pair: model.MustPair("BTC-USDT"), BuyVenue: "kraken", SellVenue: "okx", BuyPrice: 100, SellPrice: 101,
			Amount: 100, Quantity: 1, GrossProfit: 1, BuyFee: 0.2, SellFee: 0.202, NetProfit: 0.598, NetProfitPct: 0.598,
			BalanceAfter: 1000.598, ExecutedAt: at},
		{ID: "2", Pair: model.MustPair("ETH-USDT"), BuyVenue: "bybit", SellVenue: "binance", ExecutedAt: at.Add(time.Second)},
	}

	exp := New(path)
	require.NoError(t, exp.Export(context.Background(), trades))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {", "indented output")

	var got []map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "BTC-USDT", got[0]["pair"])
	assert.Equal(t, "kraken", got[0]["buy_exchange"])
	assert.InDelta(t, 0.402, got[0]["fees"], 1e-9)
	assert.InDelta(t, 1700000000.5, got[0]["timestamp"], 1e-6)
	assert.Equal(t, "ETH-USDT", got[1]["pair"])

	// overwrite with an empty history
	require.NoError(t, exp.Export(context.Background(), nil))
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file cleaned up")
}
