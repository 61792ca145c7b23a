package composite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb/internal/domain/model"
)

type stubRepo struct {
	err     error
	paper   int
	closed  bool
	pnl     float64
	withPnL bool
}

func (s *stubRepo) SaveQuotes(context.Context, []model.VenueQuote) error         { return s.err }
func (s *stubRepo) SaveOpportunities(context.Context, []model.Opportunity) error { return s.err }
func (s *stubRepo) SavePaperTrade(context.Context, model.PaperTrade) error {
	s.paper++
	return s.err
}
func (s *stubRepo) SaveLiveTrade(context.Context, model.LiveTrade) error { return s.err }
func (s *stubRepo) Close() error {
	s.closed = true
	return s.err
}

type pnlRepo struct{ *stubRepo }

func (p pnlRepo) LivePnLSince(context.Context, time.Time) (float64, error) { return p.pnl, nil }

func TestFanOutFirstErrorWins(t *testing.T) {
	e1, e2 := errors.New("first"), errors.New("second")
	a, b, c := &stubRepo{err: e1}, &stubRepo{}, &stubRepo{err: e2}
	repo := New(a, nil, b, c)
	assert.Equal(t, 3, repo.Len())

	err := repo.SavePaperTrade(context.Background(), model.PaperTrade{ID: "x"})
	assert.ErrorIs(t, err, e1)
	assert.Equal(t, 1, a.paper)
	assert.Equal(t, 1, b.paper)
	assert.Equal(t, 1, c.paper)

	assert.ErrorIs(t, repo.Close(), e1)
	assert.True(t, a.closed && b.closed && c.closed)
}

func TestLivePnLFromFirstCapable(t *testing.T) {
	repo := New(&stubRepo{}, pnlRepo{&stubRepo{pnl: -3.5}}, pnlRepo{&stubRepo{pnl: 99}})
	pnl, err := repo.LivePnLSince(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, -3.5, pnl)

	_, err = New(&stubRepo{}).LivePnLSince(context.Background(), time.Now())
	assert.ErrorIs(t, err, ErrNoPnLSource)
}
