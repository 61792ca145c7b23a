package service

import "strings"

// DefaultFeeRate 未知交易所使用的保守费率 (0.2%)
const DefaultFeeRate = 0.002

// DefaultTakerFees 各交易所现货吃单费率（小数形式）
// 可在配置中按交易所覆盖
var DefaultTakerFees = map[string]float64{
	"binance":  0.0010,
	"coinbase": 0.0050,
	"kraken":   0.0026,
	"kucoin":   0.0010,
	"bybit":    0.0010,
	"okx":      0.0008,
	"gateio":   0.0020,
}

// FeeSchedule 费率表
type FeeSchedule struct {
	rates    map[string]float64
	fallback float64
}

// NewFeeSchedule 以默认费率为基础，叠加 overrides
// fallback <= 0 时使用 DefaultFeeRate
func NewFeeSchedule(overrides map[string]float64, fallback float64) *FeeSchedule {
	if fallback <= 0 {
		fallback = DefaultFeeRate
	}
	rates := make(map[string]float64, len(DefaultTakerFees)+len(overrides))
	for venue, r := range DefaultTakerFees {
		rates[venue] = r
	}
	for venue, r := range overrides {
		if r < 0 {
			continue
		}
		rates[normalizeVenue(venue)] = r
	}
	return &FeeSchedule{rates: rates, fallback: fallback}
}

// FeeRate returns the taker fee fraction for venue; never fails.
func (f *FeeSchedule) FeeRate(venue string) float64 {
	if r, ok := f.rates[normalizeVenue(venue)]; ok {
		return r
	}
	return f.fallback
}

// NetProfitPct 价差百分比扣除双边手续费
func NetProfitPct(spreadPct, buyFeeRate, sellFeeRate float64) float64 {
	return spreadPct - (buyFeeRate+sellFeeRate)*100
}

func normalizeVenue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
