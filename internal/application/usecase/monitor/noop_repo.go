package monitor

import (
	"context"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

type noopRepo struct{}

func NewNoopRepo() port.TradeRepository { return &noopRepo{} }

func (n *noopRepo) SaveQuotes(ctx context.Context, quotes []model.VenueQuote) error {
	return nil
}
func (n *noopRepo) SaveOpportunities(ctx context.Context, opps []model.Opportunity) error {
	return nil
}
func (n *noopRepo) SavePaperTrade(ctx context.Context, t model.PaperTrade) error {
	return nil
}
func (n *noopRepo) SaveLiveTrade(ctx context.Context, t model.LiveTrade) error {
	return nil
}
func (n *noopRepo) Close() error { return nil }
