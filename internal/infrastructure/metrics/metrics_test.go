package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors(t *testing.T) {
	m := New()
	m.ObserveScan(1500*time.Millisecond, 3)
	m.VenueFailed("kraken")
	m.VenueFailed("kraken")
	m.LiveTrade("SETTLED")
	m.PaperBalance(1001.25)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Opportunities))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.VenueFailures.WithLabelValues("kraken")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LiveTrades.WithLabelValues("SETTLED")))
	assert.Equal(t, 1001.25, testutil.ToFloat64(m.PaperBalanceGa))

	n, err := testutil.GatherAndCount(m.Gatherer(), "spotarb_scan_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewTwice(t *testing.T) {
	// separate registries, no duplicate registration panic
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
