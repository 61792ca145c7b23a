package redis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb/internal/domain/model"
)

func TestNewDefaults(t *testing.T) {
	r := New(nil, "", 0, "", "", 0)
	assert.Equal(t, "spotarb:latest", r.keyLatest)
	assert.Equal(t, "spotarb:events", r.stream)
	assert.Equal(t, "spotarb:events:pub", r.channel)
	assert.EqualValues(t, DefaultStreamMaxLen, r.maxLen)

	r = New(nil, "arb", time.Minute, "s", "c", 500)
	assert.Equal(t, "arb:latest", r.keyLatest)
	assert.Equal(t, "s", r.stream)
	assert.Equal(t, "c", r.channel)
	assert.EqualValues(t, 500, r.maxLen)
}

func TestXAddArgsCapStream(t *testing.T) {
	r := New(nil, "arb", 0, "", "", 2000)
	args := r.xaddArgs(Event{Kind: "live_trade", TsMs: 42, Data: json.RawMessage(`{}`)})

	assert.Equal(t, "arb:events", args.Stream)
	assert.EqualValues(t, 2000, args.MaxLen)
	assert.True(t, args.Approx)
	assert.Equal(t, map[string]any{"kind": "live_trade", "ts_ms": int64(42), "data": "{}"}, args.Values)
}

func TestQuoteField(t *testing.T) {
	q := model.VenueQuote{Venue: "okx", Pair: model.MustPair("ETH-USDT"), Bid: 1}
	assert.Equal(t, "okx:ETH-USDT", quoteField(q))
}

func TestNewEvent(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	opp := model.Opportunity{Pair: model.MustPair("BTC-USDT"), BuyVenue: "kraken", SellVenue: "binance", NetProfitPct: 0.42}

	ev, err := newEvent("opportunity", at, opp)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), ev.TsMs)

	var back model.Opportunity
	require.NoError(t, json.Unmarshal(ev.Data, &back))
	assert.Equal(t, "kraken", back.BuyVenue)
	assert.Equal(t, 0.42, back.NetProfitPct)
}
