package pricefeed

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"spotarb/internal/application/port"
	dsvc "spotarb/internal/domain/service"
)

// ErrNoCredentials 交易所未配置下单凭证
var ErrNoCredentials = errors.New("exchange credentials missing")

// Options 构建单个交易所适配器的参数
type Options struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	Passphrase string
	Timeout    time.Duration
	Symbols    map[string]string // "BTC-USDT" -> venue symbol
}

// Factory 价格源工厂函数
type Factory func(opts Options) port.PriceFeed

// ExecutorFactory 下单器工厂函数；没有凭证时返回 ErrNoCredentials
type ExecutorFactory func(opts Options) (dsvc.OrderExecutor, error)

var (
	mu        sync.RWMutex
	registry  = make(map[string]Factory)
	executors = make(map[string]ExecutorFactory)
)

// Register 注册一个price feed factory
// 这是由各个交易所包的init()函数调用来自注册的
func Register(exchangeName string, factory Factory) {
	name := strings.ToLower(exchangeName)
	if factory == nil {
		log.Warn().Str("exchange", name).Msg("invalid price feed factory")
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		log.Warn().Str("exchange", name).Msg("price feed factory already registered, overwriting")
	}
	registry[name] = factory
}

// RegisterExecutor 注册下单器工厂（只有支持实盘的交易所）
func RegisterExecutor(exchangeName string, factory ExecutorFactory) {
	name := strings.ToLower(exchangeName)
	if factory == nil {
		log.Warn().Str("exchange", name).Msg("invalid executor factory")
		return
	}
	mu.Lock()
	defer mu.Unlock()
	executors[name] = factory
}

// Get 获取已注册的price feed factory
func Get(exchangeName string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := registry[strings.ToLower(exchangeName)]
	return factory, ok
}

// GetExecutor 获取已注册的下单器工厂
func GetExecutor(exchangeName string) (ExecutorFactory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := executors[strings.ToLower(exchangeName)]
	return factory, ok
}

// Names 已注册的交易所，排序
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
