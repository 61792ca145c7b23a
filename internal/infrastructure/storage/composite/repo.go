package composite

import (
	"context"
	"errors"
	"time"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// ErrNoPnLSource 没有任何后端支持盈亏查询
var ErrNoPnLSource = errors.New("no repository supports pnl history")

type Repo struct {
	repos []port.TradeRepository
}

func New(repos ...port.TradeRepository) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.TradeRepository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

// Len 后端数量
func (r *Repo) Len() int { return len(r.repos) }

func (r *Repo) each(fn func(port.TradeRepository) error) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := fn(repo); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) SaveQuotes(ctx context.Context, quotes []model.VenueQuote) error {
	return r.each(func(repo port.TradeRepository) error { return repo.SaveQuotes(ctx, quotes) })
}

func (r *Repo) SaveOpportunities(ctx context.Context, opps []model.Opportunity) error {
	return r.each(func(repo port.TradeRepository) error { return repo.SaveOpportunities(ctx, opps) })
}

func (r *Repo) SavePaperTrade(ctx context.Context, t model.PaperTrade) error {
	return r.each(func(repo port.TradeRepository) error { return repo.SavePaperTrade(ctx, t) })
}

func (r *Repo) SaveLiveTrade(ctx context.Context, t model.LiveTrade) error {
	return r.each(func(repo port.TradeRepository) error { return repo.SaveLiveTrade(ctx, t) })
}

// LivePnLSince 使用第一个支持查询的后端
func (r *Repo) LivePnLSince(ctx context.Context, since time.Time) (float64, error) {
	for _, repo := range r.repos {
		if src, ok := repo.(port.PnLSource); ok {
			return src.LivePnLSince(ctx, since)
		}
	}
	return 0, ErrNoPnLSource
}

func (r *Repo) Close() error {
	return r.each(func(repo port.TradeRepository) error { return repo.Close() })
}

var (
	_ port.TradeRepository = (*Repo)(nil)
	_ port.PnLSource       = (*Repo)(nil)
)
