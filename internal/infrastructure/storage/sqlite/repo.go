package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS prices (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  venue TEXT NOT NULL,
  pair TEXT NOT NULL,
  bid REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  UNIQUE(venue, pair)
);
CREATE INDEX IF NOT EXISTS idx_prices_pair ON prices(pair);

CREATE TABLE IF NOT EXISTS opportunities (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  pair TEXT NOT NULL,
  buy_venue TEXT NOT NULL,
  sell_venue TEXT NOT NULL,
  buy_price REAL NOT NULL,
  sell_price REAL NOT NULL,
  spread_pct REAL NOT NULL,
  net_profit_pct REAL NOT NULL,
  ts_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_opps_pair ON opportunities(pair);
CREATE INDEX IF NOT EXISTS idx_opps_ts ON opportunities(ts_ms);

CREATE TABLE IF NOT EXISTS paper_trades (
  id TEXT PRIMARY KEY,
  pair TEXT NOT NULL,
  buy_venue TEXT NOT NULL,
  sell_venue TEXT NOT NULL,
  buy_price REAL NOT NULL,
  sell_price REAL NOT NULL,
  amount REAL NOT NULL,
  quantity REAL NOT NULL,
  net_profit REAL NOT NULL,
  net_profit_pct REAL NOT NULL,
  balance_after REAL NOT NULL,
  ts_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_paper_ts ON paper_trades(ts_ms);

CREATE TABLE IF NOT EXISTS live_trades (
  id TEXT PRIMARY KEY,
  pair TEXT NOT NULL,
  buy_venue TEXT NOT NULL,
  sell_venue TEXT NOT NULL,
  buy_price REAL NOT NULL,
  sell_price REAL NOT NULL,
  size REAL NOT NULL,
  quantity REAL NOT NULL,
  expected_profit REAL NOT NULL,
  buy_order_id TEXT NOT NULL DEFAULT '',
  sell_order_id TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL,
  reason TEXT NOT NULL DEFAULT '',
  started_ms INTEGER NOT NULL,
  finished_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_live_finished ON live_trades(finished_ms);
CREATE INDEX IF NOT EXISTS idx_live_state ON live_trades(state);
`)
	return err
}

// SaveQuotes 覆盖每个交易所/交易对的最新买一价
func (r *Repo) SaveQuotes(ctx context.Context, quotes []model.VenueQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prices(venue, pair, bid, ts_ms) VALUES(?, ?, ?, ?)
		ON CONFLICT(venue, pair) DO UPDATE SET bid=excluded.bid, ts_ms=excluded.ts_ms
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range quotes {
		if _, err := stmt.ExecContext(ctx, q.Venue, q.Pair.String(), q.Bid, q.ObservedAt.UnixMilli()); err != nil {
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

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO opportunities(pair, buy_venue, sell_venue, buy_price, sell_price, spread_pct, net_profit_pct, ts_ms)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range opps {
		if _, err := stmt.ExecContext(ctx, o.Pair.String(), o.BuyVenue, o.SellVenue, o.BuyPrice, o.SellPrice,
			o.SpreadPct, o.NetProfitPct, o.DetectedAt.UnixMilli()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) SavePaperTrade(ctx context.Context, t model.PaperTrade) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO paper_trades(id, pair, buy_venue, sell_venue, buy_price, sell_price, amount, quantity,
			net_profit, net_profit_pct, balance_after, ts_ms)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Pair.String(), t.BuyVenue, t.SellVenue, t.BuyPrice, t.SellPrice, t.Amount, t.Quantity,
		t.NetProfit, t.NetProfitPct, t.BalanceAfter, t.ExecutedAt.UnixMilli())
	return err
}

// SaveLiveTrade 按 id 覆盖，同一笔交易只保留最终状态
func (r *Repo) SaveLiveTrade(ctx context.Context, t model.LiveTrade) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO live_trades(id, pair, buy_venue, sell_venue, buy_price, sell_price, size, quantity,
			expected_profit, buy_order_id, sell_order_id, state, reason, started_ms, finished_ms)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		quantity=excluded.quantity, buy_order_id=excluded.buy_order_id, sell_order_id=excluded.sell_order_id,
		state=excluded.state, reason=excluded.reason, finished_ms=excluded.finished_ms
	`, t.ID, t.Pair.String(), t.BuyVenue, t.SellVenue, t.BuyPrice, t.SellPrice, t.Size, t.Quantity,
		t.ExpectedProfit, t.BuyOrderID, t.SellOrderID, string(t.State), t.Reason,
		t.StartedAt.UnixMilli(), t.FinishedAt.UnixMilli())
	return err
}

// LivePnLSince 已结算实盘交易的累计盈亏
func (r *Repo) LivePnLSince(ctx context.Context, since time.Time) (float64, error) {
	var pnl sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(expected_profit) FROM live_trades WHERE state = ? AND finished_ms >= ?`,
		string(model.StateSettled), since.UnixMilli()).Scan(&pnl)
	if err != nil {
		return 0, err
	}
	return pnl.Float64, nil
}

// LatestBids 最新买一价，key 为 venue
func (r *Repo) LatestBids(ctx context.Context, pair model.TradingPair) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT venue, bid FROM prices WHERE pair = ?`, pair.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var venue string
		var bid float64
		if err := rows.Scan(&venue, &bid); err != nil {
			return nil, err
		}
		out[venue] = bid
	}
	return out, rows.Err()
}

// CountOpportunities 某个时间之后记录的机会数
func (r *Repo) CountOpportunities(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM opportunities WHERE ts_ms >= ?`, since.UnixMilli()).Scan(&n)
	return n, err
}

var (
	_ port.TradeRepository = (*Repo)(nil)
	_ port.PnLSource       = (*Repo)(nil)
)
