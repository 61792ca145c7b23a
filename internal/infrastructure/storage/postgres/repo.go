package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS prices (
  venue TEXT NOT NULL,
  pair TEXT NOT NULL,
  bid DOUBLE PRECISION NOT NULL,
  ts_ms BIGINT NOT NULL,
  PRIMARY KEY (venue, pair)
);

CREATE TABLE IF NOT EXISTS opportunities (
  id BIGSERIAL PRIMARY KEY,
  pair TEXT NOT NULL,
  buy_venue TEXT NOT NULL,
  sell_venue TEXT NOT NULL,
  buy_price DOUBLE PRECISION NOT NULL,
  sell_price DOUBLE PRECISION NOT NULL,
  spread_pct DOUBLE PRECISION NOT NULL,
  net_profit_pct DOUBLE PRECISION NOT NULL,
  ts_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_opps_ts ON opportunities(ts_ms);

CREATE TABLE IF NOT EXISTS paper_trades (
  id TEXT PRIMARY KEY,
  pair TEXT NOT NULL,
  buy_venue TEXT NOT NULL,
  sell_venue TEXT NOT NULL,
  buy_price DOUBLE PRECISION NOT NULL,
  sell_price DOUBLE PRECISION NOT NULL,
  amount DOUBLE PRECISION NOT NULL,
  quantity DOUBLE PRECISION NOT NULL,
  net_profit DOUBLE PRECISION NOT NULL,
  net_profit_pct DOUBLE PRECISION NOT NULL,
  balance_after DOUBLE PRECISION NOT NULL,
  ts_ms BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS live_trades (
  id TEXT PRIMARY KEY,
  pair TEXT NOT NULL,
  buy_venue TEXT NOT NULL,
  sell_venue TEXT NOT NULL,
  buy_price DOUBLE PRECISION NOT NULL,
  sell_price DOUBLE PRECISION NOT NULL,
  size DOUBLE PRECISION NOT NULL,
  quantity DOUBLE PRECISION NOT NULL,
  expected_profit DOUBLE PRECISION NOT NULL,
  buy_order_id TEXT NOT NULL DEFAULT '',
  sell_order_id TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL,
  reason TEXT NOT NULL DEFAULT '',
  started_ms BIGINT NOT NULL,
  finished_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_live_finished ON live_trades(finished_ms);
`)
	return err
}

func (r *Repo) SaveQuotes(ctx context.Context, quotes []model.VenueQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range quotes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO prices(venue, pair, bid, ts_ms) VALUES($1, $2, $3, $4)
			ON CONFLICT (venue, pair) DO UPDATE SET bid = EXCLUDED.bid, ts_ms = EXCLUDED.ts_ms
		`, q.Venue, q.Pair.String(), q.Bid, q.ObservedAt.UnixMilli())
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) SaveOpportunities(ctx context.Context, opps []model.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, o := range opps {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO opportunities(pair, buy_venue, sell_venue, buy_price, sell_price, spread_pct, net_profit_pct, ts_ms)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		`, o.Pair.String(), o.BuyVenue, o.SellVenue, o.BuyPrice, o.SellPrice, o.SpreadPct, o.NetProfitPct, o.DetectedAt.UnixMilli())
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) SavePaperTrade(ctx context.Context, t model.PaperTrade) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO paper_trades(id, pair, buy_venue, sell_venue, buy_price, sell_price, amount, quantity,
			net_profit, net_profit_pct, balance_after, ts_ms)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, t.ID, t.Pair.String(), t.BuyVenue, t.SellVenue, t.BuyPrice, t.SellPrice, t.Amount, t.Quantity,
		t.NetProfit, t.NetProfitPct, t.BalanceAfter, t.ExecutedAt.UnixMilli())
	return err
}

func (r *Repo) SaveLiveTrade(ctx context.Context, t model.LiveTrade) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO live_trades(id, pair, buy_venue, sell_venue, buy_price, sell_price, size, quantity,
			expected_profit, buy_order_id, sell_order_id, state, reason, started_ms, finished_ms)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
		quantity = EXCLUDED.quantity, buy_order_id = EXCLUDED.buy_order_id, sell_order_id = EXCLUDED.sell_order_id,
		state = EXCLUDED.state, reason = EXCLUDED.reason, finished_ms = EXCLUDED.finished_ms
	`, t.ID, t.Pair.String(), t.BuyVenue, t.SellVenue, t.BuyPrice, t.SellPrice, t.Size, t.Quantity,
		t.ExpectedProfit, t.BuyOrderID, t.SellOrderID, string(t.State), t.Reason,
		t.StartedAt.UnixMilli(), t.FinishedAt.UnixMilli())
	return err
}

func (r *Repo) LivePnLSince(ctx context.Context, since time.Time) (float64, error) {
	var pnl sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(expected_profit) FROM live_trades WHERE state = $1 AND finished_ms >= $2`,
		string(model.StateSettled), since.UnixMilli()).Scan(&pnl)
	if err != nil {
		return 0, err
	}
	return pnl.Float64, nil
}

var (
	_ port.TradeRepository = (*Repo)(nil)
	_ port.PnLSource       = (*Repo)(nil)
)
