package service

// Spread returns the absolute and percentage spread of selling at sell
// after buying at buy. buy must be positive.
func Spread(buy, sell float64) (abs, pct float64) {
	abs = sell - buy
	return abs, abs / buy * 100
}

func ProfitBand(netPct, threshold float64) int {
	// -1 red, 0 yellow, +1 green (pure decision)
	if netPct >= threshold*2 {
		return +1
	}
	if netPct < threshold {
		return -1
	}
	return 0
}
