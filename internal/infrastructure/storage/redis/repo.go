package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// Repo 最新报价写入 Hash，机会和实盘记录写入 Stream 并 PUBLISH
type Repo struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	keyLatest string // prefix + ":latest"
	stream    string
	maxLen    int64  // XADD MAXLEN ~
	channel   string
}

// DefaultStreamMaxLen 事件流保留的近似条数
const DefaultStreamMaxLen = 100000

// Event 推送到 stream / channel 的消息体
type Event struct {
	Kind string          `json:"kind"` // opportunity | paper_trade | live_trade
	TsMs int64           `json:"ts_ms"`
	Data json.RawMessage `json:"data"`
}

// New maxLen <= 0 时使用 DefaultStreamMaxLen
func New(rdb *redis.Client, prefix string, ttl time.Duration, stream, channel string, maxLen int64) *Repo {
	if strings.TrimSpace(prefix) == "" {
		prefix = "spotarb"
	}
	if strings.TrimSpace(stream) == "" {
		stream = prefix + ":events"
	}
	if strings.TrimSpace(channel) == "" {
		channel = prefix + ":events:pub"
	}
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &Repo{
		rdb:       rdb,
		prefix:    prefix,
		ttl:       ttl,
		keyLatest: prefix + ":latest",
		stream:    stream,
		maxLen:    maxLen,
		channel:   channel,
	}
}

// Dial 连接并 PING
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func (r *Repo) Close() error { return r.rdb.Close() }

func quoteField(q model.VenueQuote) string {
	// field = "binance:BTC-USDT"
	return q.Venue + ":" + q.Pair.String()
}

func (r *Repo) SaveQuotes(ctx context.Context, quotes []model.VenueQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	pipe := r.rdb.Pipeline()
	for _, q := range quotes {
		if q.Bid <= 0 {
			continue
		}
		b, err := json.Marshal(q)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, r.keyLatest, quoteField(q), string(b))
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) SaveOpportunities(ctx context.Context, opps []model.Opportunity) error {
	for _, o := range opps {
		if err := r.emit(ctx, "opportunity", o.DetectedAt, o); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) SavePaperTrade(ctx context.Context, t model.PaperTrade) error {
	return r.emit(ctx, "paper_trade", t.ExecutedAt, t)
}

func (r *Repo) SaveLiveTrade(ctx context.Context, t model.LiveTrade) error {
	return r.emit(ctx, "live_trade", t.FinishedAt, t)
}

func newEvent(kind string, at time.Time, v any) (Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, err
	}
	return Event{Kind: kind, TsMs: at.UnixMilli(), Data: data}, nil
}

func (r *Repo) emit(ctx context.Context, kind string, at time.Time, v any) error {
	ev, err := newEvent(kind, at, v)
	if err != nil {
		return err
	}

	// 1) Stream: XADD <stream> MAXLEN ~ n * kind ts_ms data
	if err := r.rdb.XAdd(ctx, r.xaddArgs(ev)).Err(); err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.channel, msg).Err()
}

func (r *Repo) xaddArgs(ev Event) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]any{
			"kind":  ev.Kind,
			"ts_ms": ev.TsMs,
			"data":  string(ev.Data),
		},
	}
}

var _ port.TradeRepository = (*Repo)(nil)
