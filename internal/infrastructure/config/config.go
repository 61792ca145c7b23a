package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"spotarb/internal/domain/model"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "SPOTARB_"

type Config struct {
	App struct {
		Mode              string `toml:"mode" env:"MODE"`
		UpdateIntervalSec int    `toml:"update_interval_sec" env:"UPDATE_INTERVAL_SEC"`
		LogLevel          string `toml:"log_level" env:"LOG_LEVEL"`
		LogJSON           bool   `toml:"log_json" env:"LOG_JSON"`
		HTTPAddr          string `toml:"http_addr" env:"HTTP_ADDR"`
	} `toml:"app"`

	Pairs struct {
		List []string `toml:"list" env:"PAIRS" envSeparator:","`
	} `toml:"pairs"`

	Arbitrage struct {
		MinNetProfitPct  float64 `toml:"min_net_profit_pct" env:"MIN_NET_PROFIT_PCT"`
		MaxOpportunities int     `toml:"max_opportunities" env:"MAX_OPPORTUNITIES"`
		TradesPerCycle   int     `toml:"trades_per_cycle" env:"TRADES_PER_CYCLE"`
		DefaultFeeRate   float64 `toml:"default_fee_rate"`
		FetchTimeoutSec  int     `toml:"fetch_timeout_sec" env:"FETCH_TIMEOUT_SEC"`
	} `toml:"arbitrage"`

	Paper struct {
		InitialBalance float64 `toml:"initial_balance" env:"PAPER_INITIAL_BALANCE"`
		TradeAmount    float64 `toml:"trade_amount" env:"PAPER_TRADE_AMOUNT"`
		HistoryFile    string  `toml:"history_file" env:"PAPER_HISTORY_FILE"`
	} `toml:"paper"`

	Live struct {
		Enabled         bool    `toml:"enabled" env:"LIVE_ENABLED"`
		MaxTradeSize    float64 `toml:"max_trade_size" env:"LIVE_MAX_TRADE_SIZE"`
		DailyLossLimit  float64 `toml:"daily_loss_limit" env:"LIVE_DAILY_LOSS_LIMIT"`
		ManualApproval  bool    `toml:"manual_approval" env:"LIVE_MANUAL_APPROVAL"`
		MinProfitPct    float64 `toml:"min_profit_pct" env:"LIVE_MIN_PROFIT_PCT"`
		HealthProbePair string  `toml:"health_probe_pair"`
	} `toml:"live"`

	Exchanges map[string]ExchangeConfig `toml:"exchanges"`

	SQLite struct {
		Enabled bool   `toml:"enabled" env:"SQLITE_ENABLED"`
		Path    string `toml:"path" env:"SQLITE_PATH"`
	} `toml:"sqlite"`

	Postgres struct {
		Enabled bool   `toml:"enabled" env:"POSTGRES_ENABLED"`
		DSN     string `toml:"dsn" env:"POSTGRES_DSN"`
	} `toml:"postgres"`

	Redis struct {
		Enabled      bool   `toml:"enabled" env:"REDIS_ENABLED"`
		Addr         string `toml:"addr" env:"REDIS_ADDR"`
		Password     string `toml:"password" env:"REDIS_PASSWORD"`
		DB           int    `toml:"db"`
		Prefix       string `toml:"prefix"`
		TTLSeconds   int    `toml:"ttl_seconds"`
		Stream       string `toml:"stream"`
		Channel      string `toml:"channel"`
		StreamMaxLen int64  `toml:"stream_max_len"` // XADD MAXLEN ~，<= 0 使用默认值
	} `toml:"redis"`

	S3 struct {
		Enabled   bool   `toml:"enabled" env:"S3_ENABLED"`
		Bucket    string `toml:"bucket" env:"S3_BUCKET"`
		Region    string `toml:"region" env:"S3_REGION"`
		Endpoint  string `toml:"endpoint" env:"S3_ENDPOINT"`
		AccessKey string `toml:"access_key" env:"S3_ACCESS_KEY"`
		SecretKey string `toml:"secret_key" env:"S3_SECRET_KEY"`
		Prefix    string `toml:"prefix"`
	} `toml:"s3"`
}

type ExchangeConfig struct {
	Enabled       bool              `toml:"enabled"`
	BaseURL       string            `toml:"base_url"`
	FeeRate       float64           `toml:"fee_rate"`
	APIKey        string            `toml:"api_key"`
	APISecret     string            `toml:"api_secret"`
	APIPassphrase string            `toml:"api_passphrase"`
	Symbols       map[string]string `toml:"symbols"` // BTC-USDT -> venue symbol

	// FeeRateSet fee_rate 在文件中出现过（包括 0）
	FeeRateSet bool `toml:"-"`
}

// HasCredentials 是否配置了下单凭证
func (e ExchangeConfig) HasCredentials() bool {
	return e.APIKey != "" && e.APISecret != ""
}

// Load 读取配置文件；.env 和 SPOTARB_* 环境变量覆盖文件中的值
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for name, ex := range cfg.Exchanges {
		ex.FeeRateSet = md.IsDefined("exchanges", name, "fee_rate")
		cfg.Exchanges[name] = ex
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg, md)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	// 凭证只从环境变量读取时使用 SPOTARB_<VENUE>_API_KEY 形式
	for name, ex := range cfg.Exchanges {
		up := EnvPrefix + strings.ToUpper(name) + "_"
		setStr(&ex.APIKey, up+"API_KEY")
		setStr(&ex.APISecret, up+"API_SECRET")
		setStr(&ex.APIPassphrase, up+"API_PASSPHRASE")
		cfg.Exchanges[name] = ex
	}
	return nil
}

func setStr(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// explicit 键在文件或环境变量中显式给出时，0 也是有效值
func explicit(md toml.MetaData, envKey string, key ...string) bool {
	if _, ok := os.LookupEnv(EnvPrefix + envKey); ok {
		return true
	}
	return md.IsDefined(key...)
}

func applyDefaults(cfg *Config, md toml.MetaData) {
	if cfg.App.Mode == "" {
		cfg.App.Mode = "monitor"
	}
	if cfg.App.UpdateIntervalSec <= 0 {
		cfg.App.UpdateIntervalSec = 30
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Arbitrage.MinNetProfitPct <= 0 && !explicit(md, "MIN_NET_PROFIT_PCT", "arbitrage", "min_net_profit_pct") {
		cfg.Arbitrage.MinNetProfitPct = 0.1
	}
	if cfg.Arbitrage.MaxOpportunities < 0 {
		cfg.Arbitrage.MaxOpportunities = 0
	}
	if cfg.Arbitrage.TradesPerCycle <= 0 {
		cfg.Arbitrage.TradesPerCycle = 1
	}
	if cfg.Arbitrage.DefaultFeeRate <= 0 {
		cfg.Arbitrage.DefaultFeeRate = 0.002
	}
	if cfg.Arbitrage.FetchTimeoutSec <= 0 {
		cfg.Arbitrage.FetchTimeoutSec = 10
	}
	if cfg.Paper.InitialBalance <= 0 {
		cfg.Paper.InitialBalance = 1000
	}
	if cfg.Paper.TradeAmount <= 0 {
		cfg.Paper.TradeAmount = 100
	}
	if cfg.Paper.HistoryFile == "" {
		cfg.Paper.HistoryFile = "paper_trades.json"
	}
	if cfg.Live.MaxTradeSize <= 0 {
		cfg.Live.MaxTradeSize = 100
	}
	if cfg.Live.DailyLossLimit <= 0 {
		cfg.Live.DailyLossLimit = 50
	}
	if cfg.Live.MinProfitPct <= 0 {
		cfg.Live.MinProfitPct = 0.2
	}
	if cfg.Live.HealthProbePair == "" {
		cfg.Live.HealthProbePair = "BTC-USDT"
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "data/spotarb.db"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "spotarb"
	}
	if cfg.S3.Prefix == "" {
		cfg.S3.Prefix = "paper-trades"
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
}

func validate(cfg *Config) error {
	pairs, err := normalizePairs(cfg.Pairs.List)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return errors.New("pairs.list is empty")
	}
	cfg.Pairs.List = pairs

	cfg.App.Mode = strings.ToLower(strings.TrimSpace(cfg.App.Mode))
	switch cfg.App.Mode {
	case "monitor", "paper", "live", "probe":
	default:
		return fmt.Errorf("app.mode %q unknown", cfg.App.Mode)
	}

	if len(cfg.EnabledExchanges()) == 0 {
		return errors.New("no exchange enabled")
	}
	if cfg.Arbitrage.MinNetProfitPct < 0 {
		return fmt.Errorf("arbitrage.min_net_profit_pct %.4f is negative", cfg.Arbitrage.MinNetProfitPct)
	}
	for name, ex := range cfg.Exchanges {
		if ex.FeeRate < 0 || ex.FeeRate >= 1 {
			return fmt.Errorf("exchanges.%s.fee_rate %v out of range [0, 1)", name, ex.FeeRate)
		}
	}
	if cfg.Live.MinProfitPct < cfg.Arbitrage.MinNetProfitPct {
		return fmt.Errorf("live.min_profit_pct %.4f below arbitrage.min_net_profit_pct %.4f",
			cfg.Live.MinProfitPct, cfg.Arbitrage.MinNetProfitPct)
	}
	if _, err := model.ParsePair(cfg.Live.HealthProbePair); err != nil {
		return fmt.Errorf("live.health_probe_pair: %w", err)
	}
	if cfg.Postgres.Enabled && strings.TrimSpace(cfg.Postgres.DSN) == "" {
		return errors.New("postgres.dsn empty but enabled")
	}
	if cfg.S3.Enabled && strings.TrimSpace(cfg.S3.Bucket) == "" {
		return errors.New("s3.bucket empty but enabled")
	}
	return nil
}

func normalizePairs(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		p, err := model.ParsePair(s)
		if err != nil {
			return nil, fmt.Errorf("pairs.list: %w", err)
		}
		u := p.String()
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out, nil
}

// TradingPairs 解析后的交易对
func (c *Config) TradingPairs() []model.TradingPair {
	out := make([]model.TradingPair, 0, len(c.Pairs.List))
	for _, s := range c.Pairs.List {
		if p, err := model.ParsePair(s); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// EnabledExchanges 返回启用的交易所名称（小写，排序）
func (c *Config) EnabledExchanges() []string {
	var out []string
	for name, ex := range c.Exchanges {
		if ex.Enabled {
			out = append(out, strings.ToLower(name))
		}
	}
	sort.Strings(out)
	return out
}

// Exchange 按名称查找交易所配置
func (c *Config) Exchange(name string) (ExchangeConfig, bool) {
	for k, v := range c.Exchanges {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return ExchangeConfig{}, false
}

// FeeOverrides 配置中显式设置的手续费，fee_rate = 0 表示免手续费
func (c *Config) FeeOverrides() map[string]float64 {
	out := make(map[string]float64)
	for name, ex := range c.Exchanges {
		if ex.FeeRateSet || ex.FeeRate > 0 {
			out[strings.ToLower(name)] = ex.FeeRate
		}
	}
	return out
}
