package svc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"spotarb/internal/application/port"
	"spotarb/internal/application/service"
	"spotarb/internal/application/usecase/monitor"
	"spotarb/internal/domain/model"
	dsvc "spotarb/internal/domain/service"
	"spotarb/internal/infrastructure/config"
	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/metrics"
	"spotarb/internal/infrastructure/pricefeed"
	"spotarb/internal/infrastructure/storage/composite"
	"spotarb/internal/infrastructure/storage/jsonfile"
	pgrepo "spotarb/internal/infrastructure/storage/postgres"
	redisrepo "spotarb/internal/infrastructure/storage/redis"
	s3export "spotarb/internal/infrastructure/storage/s3"
	sqliterepo "spotarb/internal/infrastructure/storage/sqlite"
	"spotarb/internal/interfaces/console"

	// 交易所适配器通过 init() 注册
	_ "spotarb/internal/infrastructure/exchange/binance"
	_ "spotarb/internal/infrastructure/exchange/bybit"
	_ "spotarb/internal/infrastructure/exchange/coinbase"
	_ "spotarb/internal/infrastructure/exchange/gateio"
	_ "spotarb/internal/infrastructure/exchange/kraken"
	_ "spotarb/internal/infrastructure/exchange/kucoin"
	_ "spotarb/internal/infrastructure/exchange/okx"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config
	Mode   monitor.Mode

	// 输出端口
	Sink     port.Sink
	Approver port.Approver
	Alerter  port.Alerter
	Metrics  *metrics.Metrics

	// 基础设施层
	repo      *composite.Repo
	history   *sqliterepo.Repo // 本地查询，sqlite 未启用时为 nil
	feeds     []port.PriceFeed
	executors map[string]dsvc.OrderExecutor
	exporters []port.HistoryExporter

	// 应用业务组件
	fees    *dsvc.FeeSchedule
	scanner *service.Scanner
	ledger  *dsvc.PaperLedger
	risk    *dsvc.RiskManager
	live    *service.LiveTrader

	// 资源管理
	closerChain []func() error
}

// New 创建并初始化 ServiceContext
// 这是应用启动的唯一入口点，所有依赖初始化都在这里完成
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	mode := monitor.ModeMonitor
	if cfg.App.Mode != "probe" {
		m, err := monitor.ParseMode(cfg.App.Mode)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		Mode:        mode,
		Sink:        console.NewSink(),
		Approver:    console.NewApprover(),
		Alerter:     console.NewLogAlerter(),
		Metrics:     metrics.New(),
		executors:   make(map[string]dsvc.OrderExecutor),
		closerChain: make([]func() error, 0),
	}

	// 初始化所有组件，按依赖顺序
	if err := sc.initializeComponents(); err != nil {
		// 清理已初始化的资源
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

// initializeComponents 按依赖关系有序初始化
func (sc *ServiceContext) initializeComponents() error {
	// 0. 存储层
	if err := sc.initializeStorage(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInitFailed, err)
	}

	// 1. 交易所适配器
	if err := sc.initializeExchanges(); err != nil {
		return err
	}

	// 2. 业务组件
	cfg := sc.Config
	sc.fees = dsvc.NewFeeSchedule(cfg.FeeOverrides(), cfg.Arbitrage.DefaultFeeRate)
	sc.scanner = service.NewScanner(sc.feeds, sc.fees, service.ScannerConfig{
		Pairs:            cfg.TradingPairs(),
		MinNetProfitPct:  cfg.Arbitrage.MinNetProfitPct,
		MaxOpportunities: cfg.Arbitrage.MaxOpportunities,
		FetchTimeout:     sc.fetchTimeout(),
	}, sc.Metrics)
	sc.ledger = dsvc.NewPaperLedger(cfg.Paper.InitialBalance)
	sc.Metrics.PaperBalance(cfg.Paper.InitialBalance)

	sc.risk = dsvc.NewRiskManager(cfg.Live.Enabled, cfg.Live.MinProfitPct, cfg.Live.MaxTradeSize, cfg.Live.DailyLossLimit)
	if sc.Mode == monitor.ModeLive {
		sc.restorePnL()
	}

	feedByVenue := make(map[string]port.PriceFeed, len(sc.feeds))
	for _, f := range sc.feeds {
		feedByVenue[f.Name()] = f
	}
	probePair, _ := model.ParsePair(cfg.Live.HealthProbePair)
	sc.live = service.NewLiveTrader(service.LiveTraderDeps{
		Risk:      sc.risk,
		Executors: sc.executors,
		Feeds:     feedByVenue,
		Approver:  sc.Approver,
		Alerter:   sc.Alerter,
		Metrics:   sc.Metrics,
		ProbePair: probePair,
	})

	// 3. 历史导出
	sc.initializeExporters()

	log.Info().
		Str("mode", string(sc.Mode)).
		Int("feeds", len(sc.feeds)).
		Int("executors", len(sc.executors)).
		Int("repos", sc.repo.Len()).
		Msg("✓ All components initialized")
	return nil
}

func (sc *ServiceContext) fetchTimeout() time.Duration {
	return time.Duration(sc.Config.Arbitrage.FetchTimeoutSec) * time.Second
}

// initializeStorage 按配置启用 SQLite / Postgres / Redis，汇总到 composite
func (sc *ServiceContext) initializeStorage() error {
	var repos []port.TradeRepository

	// SQLite 放在最前面，盈亏恢复优先使用本地库
	if sc.Config.SQLite.Enabled {
		repo, err := sqliterepo.New(sc.Config.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		repos = append(repos, repo)
		sc.history = repo
		sc.closerChain = append(sc.closerChain, func() error {
			log.Info().Msg("closing sqlite connection")
			return repo.Close()
		})
		log.Info().Str("path", sc.Config.SQLite.Path).Msg("✓ SQLite initialized")
	}

	if sc.Config.Postgres.Enabled {
		repo, err := pgrepo.New(sc.Config.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		repos = append(repos, repo)
		sc.closerChain = append(sc.closerChain, func() error {
			log.Info().Msg("closing postgres connection")
			return repo.Close()
		})
		log.Info().Msg("✓ Postgres initialized")
	}

	if sc.Config.Redis.Enabled {
		if err := sc.initRedis(&repos); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}

	sc.repo = composite.New(repos...)
	return nil
}

// initRedis 初始化 Redis 连接
func (sc *ServiceContext) initRedis(repos *[]port.TradeRepository) error {
	rc := sc.Config.Redis

	// 测试连接
	ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
	defer cancel()
	rdb, err := redisrepo.Dial(ctx, rc.Addr, rc.Password, rc.DB)
	if err != nil {
		return err
	}

	repo := redisrepo.New(rdb, rc.Prefix, time.Duration(rc.TTLSeconds)*time.Second, rc.Stream, rc.Channel, rc.StreamMaxLen)
	*repos = append(*repos, repo)
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return repo.Close()
	})

	log.Info().Str("addr", rc.Addr).Int("db", rc.DB).Msg("✓ Redis initialized")
	return nil
}

// initializeExchanges 为每个启用的交易所创建价格源；live 模式下有凭证的再创建下单客户端
func (sc *ServiceContext) initializeExchanges() error {
	for _, name := range sc.Config.EnabledExchanges() {
		exCfg, _ := sc.Config.Exchange(name)
		factory, ok := pricefeed.Get(name)
		if !ok {
			return fmt.Errorf("%w: %s (known: %v)", ErrUnknownExchange, name, pricefeed.Names())
		}

		opts := pricefeed.Options{
			BaseURL:    exCfg.BaseURL,
			APIKey:     exCfg.APIKey,
			APISecret:  exCfg.APISecret,
			Passphrase: exCfg.APIPassphrase,
			Timeout:    sc.fetchTimeout(),
			Symbols:    exCfg.Symbols,
		}

		feed := factory(opts)
		sc.feeds = append(sc.feeds, feed)
		if c, ok := feed.(exchange.Closer); ok {
			sc.closerChain = append(sc.closerChain, c.Close)
		}

		if sc.Mode != monitor.ModeLive {
			continue
		}
		if !exCfg.HasCredentials() {
			log.Warn().Str("exchange", name).Msg("no api credentials, live orders disabled for venue")
			continue
		}
		execFactory, ok := pricefeed.GetExecutor(name)
		if !ok {
			log.Warn().Str("exchange", name).Msg("live orders not supported for venue")
			continue
		}
		ex, err := execFactory(opts)
		if err != nil {
			log.Warn().Err(err).Str("exchange", name).Msg("order client unavailable")
			continue
		}
		sc.executors[name] = ex
		if c, ok := ex.(exchange.Closer); ok {
			sc.closerChain = append(sc.closerChain, c.Close)
		}
		log.Info().Str("exchange", name).Msg("✓ Order client initialized")
	}

	if len(sc.feeds) == 0 {
		return ErrNoFeedsEnabled
	}
	return nil
}

// restorePnL 从当天（UTC）的实盘记录恢复累计盈亏，重启后日亏损上限依然有效
func (sc *ServiceContext) restorePnL() {
	since := StartOfUTCDay(time.Now())
	ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
	defer cancel()

	pnl, err := sc.repo.LivePnLSince(ctx, since)
	if err != nil {
		if errors.Is(err, composite.ErrNoPnLSource) {
			log.Warn().Msg("no persistent storage, live pnl starts at zero")
		} else {
			log.Error().Err(err).Msg("restore live pnl failed, starting at zero")
		}
		return
	}
	sc.risk.RestorePnL(pnl)
	log.Info().Float64("pnl", pnl).Time("since", since).Msg("✓ Live pnl restored")
}

// StartOfUTCDay 当天 00:00 UTC
func StartOfUTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (sc *ServiceContext) initializeExporters() {
	if sc.Mode != monitor.ModePaper {
		return
	}
	sc.exporters = append(sc.exporters, jsonfile.New(sc.Config.Paper.HistoryFile))

	if s3c := sc.Config.S3; s3c.Enabled {
		exp, err := s3export.New(sc.Ctx, s3export.Config{
			Bucket:    s3c.Bucket,
			Region:    s3c.Region,
			Endpoint:  s3c.Endpoint,
			AccessKey: s3c.AccessKey,
			SecretKey: s3c.SecretKey,
			Prefix:    s3c.Prefix,
		})
		if err != nil {
			log.Error().Err(err).Msg("s3 exporter unavailable")
			return
		}
		sc.exporters = append(sc.exporters, exp)
		log.Info().Str("bucket", s3c.Bucket).Msg("✓ S3 exporter initialized")
	}
}

// BuildMonitorServiceDeps 构建调度器所需的所有依赖
func (sc *ServiceContext) BuildMonitorServiceDeps() monitor.ServiceDeps {
	cfg := sc.Config
	return monitor.ServiceDeps{
		Scanner:         sc.scanner,
		Paper:           sc.ledger,
		Live:            sc.live,
		Mode:            sc.Mode,
		Pairs:           cfg.TradingPairs(),
		Interval:        time.Duration(cfg.App.UpdateIntervalSec) * time.Second,
		TradesPerCycle:  cfg.Arbitrage.TradesPerCycle,
		TradeAmount:     cfg.Paper.TradeAmount,
		ManualApproval:  cfg.Live.ManualApproval,
		MinNetProfitPct: cfg.Arbitrage.MinNetProfitPct,
		Sink:            sc.Sink,
		Repo:            sc.repo,
		Metrics:         sc.Metrics,
	}
}

// Probe 每个交易所拉取一次价格并输出
func (sc *ServiceContext) Probe(ctx context.Context) []monitor.ProbeResult {
	pairs := sc.Config.TradingPairs()
	res := monitor.Probe(ctx, sc.feeds, pairs, sc.fetchTimeout())
	_ = sc.Sink.WriteSnapshot(time.Now(), "probe\n"+monitor.RenderProbe(res, pairs))
	return res
}

// ExportHistory 导出模拟盘成交历史；任一导出失败都会记录，返回第一个错误
func (sc *ServiceContext) ExportHistory(ctx context.Context) error {
	if len(sc.exporters) == 0 {
		return nil
	}
	trades := sc.ledger.History()
	var firstErr error
	for _, exp := range sc.exporters {
		if err := exp.Export(ctx, trades); err != nil {
			log.Error().Err(err).Msg("export paper history failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr == nil {
		log.Info().Int("trades", len(trades)).Msg("paper history exported")
	}
	return firstErr
}

// PriceFeeds 已初始化的价格源
func (sc *ServiceContext) PriceFeeds() []port.PriceFeed {
	return sc.feeds
}

// Executors 已初始化的下单客户端
func (sc *ServiceContext) Executors() map[string]dsvc.OrderExecutor {
	return sc.executors
}

// Risk 实盘风控
// History 本地 sqlite 历史查询；未启用时返回 nil
func (sc *ServiceContext) History() *sqliterepo.Repo {
	return sc.history
}

func (sc *ServiceContext) Risk() *dsvc.RiskManager {
	return sc.risk
}

// Close 按照相反的顺序关闭所有资源
func (sc *ServiceContext) Close() error {
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	sc.closerChain = nil
	return nil
}
