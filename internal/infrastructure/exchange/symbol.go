package exchange

import (
	"strings"

	"spotarb/internal/domain/model"
)

// PairMapper 规范交易对 <-> 交易所符号
// 默认按分隔符拼接，overrides 优先（来自内置数据或配置）
type PairMapper struct {
	delimiter string
	overrides map[model.TradingPair]string
	reverse   map[string]model.TradingPair
	only      bool // 只允许 overrides 中的交易对
}

// NewPairMapper 例: "" -> BTCUSDT, "-" -> BTC-USDT, "_" -> BTC_USDT
func NewPairMapper(delimiter string) *PairMapper {
	return &PairMapper{
		delimiter: delimiter,
		overrides: make(map[model.TradingPair]string),
		reverse:   make(map[string]model.TradingPair),
	}
}

// NewFixedPairMapper 只支持给定映射的交易所（例如 kraken）
func NewFixedPairMapper(table map[string]string) *PairMapper {
	m := NewPairMapper("")
	m.only = true
	m.WithOverrides(table)
	return m
}

// WithOverrides 叠加 "BTC-USDT" -> venue symbol 映射；无法解析的键忽略
func (m *PairMapper) WithOverrides(table map[string]string) *PairMapper {
	for k, v := range table {
		p, err := model.ParsePair(k)
		if err != nil {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(v))
		if sym == "" {
			continue
		}
		if old, ok := m.overrides[p]; ok {
			delete(m.reverse, old)
		}
		m.overrides[p] = sym
		m.reverse[sym] = p
	}
	return m
}

// Symbol 返回交易所符号；不支持时 ok=false
func (m *PairMapper) Symbol(p model.TradingPair) (string, bool) {
	if s, ok := m.overrides[p]; ok {
		return s, true
	}
	if m.only || p.IsZero() {
		return "", false
	}
	return p.Base + m.delimiter + p.Quote, true
}

// Index 为一次请求建立 venue symbol -> pair 索引
func (m *PairMapper) Index(pairs []model.TradingPair) map[string]model.TradingPair {
	out := make(map[string]model.TradingPair, len(pairs))
	for _, p := range pairs {
		if s, ok := m.Symbol(p); ok {
			out[s] = p
		}
	}
	return out
}

// Pair 反查；只认识 overrides 和分隔符格式
func (m *PairMapper) Pair(symbol string) (model.TradingPair, bool) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if p, ok := m.reverse[sym]; ok {
		return p, true
	}
	if m.only || m.delimiter == "" {
		return model.TradingPair{}, false
	}
	p, err := model.ParsePair(strings.ReplaceAll(sym, m.delimiter, model.PairDelimiter))
	if err != nil {
		return model.TradingPair{}, false
	}
	return p, true
}
