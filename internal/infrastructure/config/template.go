package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrConfigExists -init 不覆盖已有配置
var ErrConfigExists = errors.New("config file already exists")

const template = `[app]
mode = "monitor"          # monitor | paper | live | probe
update_interval_sec = 30
log_level = "info"
log_json = false
http_addr = ""             # e.g. ":9090" for /metrics /healthz /stats

[pairs]
list = ["BTC-USDT", "ETH-USDT", "SOL-USDT", "XRP-USDT", "ADA-USDT"]

[arbitrage]
min_net_profit_pct = 0.1
max_opportunities = 10
trades_per_cycle = 1
default_fee_rate = 0.002
fetch_timeout_sec = 10

[paper]
initial_balance = 1000.0
trade_amount = 100.0
history_file = "paper_trades.json"

[live]
enabled = false
max_trade_size = 100.0
daily_loss_limit = 50.0
manual_approval = true
min_profit_pct = 0.2
health_probe_pair = "BTC-USDT"

# credentials may also come from SPOTARB_<VENUE>_API_KEY / _API_SECRET / _API_PASSPHRASE
[exchanges.binance]
enabled = true

[exchanges.bybit]
enabled = true

[exchanges.okx]
enabled = true

[exchanges.kucoin]
enabled = true

[exchanges.gateio]
enabled = true

[exchanges.kraken]
enabled = true

[exchanges.coinbase]
enabled = false

[sqlite]
enabled = true
path = "data/spotarb.db"

[postgres]
enabled = false
dsn = ""

[redis]
enabled = false
addr = "127.0.0.1:6379"
db = 0
prefix = "spotarb"
ttl_seconds = 3600
stream_max_len = 100000

[s3]
enabled = false
bucket = ""
region = "us-east-1"
endpoint = ""
prefix = "paper-trades"
`

// WriteTemplate 写入默认配置模板
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(template), 0o644)
}
