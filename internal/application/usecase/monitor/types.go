package monitor

import (
	"fmt"
	"strings"

	"spotarb/internal/application/port"
)

type PriceFeed = port.PriceFeed

type Repository = port.TradeRepository

// Mode 运行模式
type Mode string

const (
	ModeMonitor Mode = "monitor" // 只扫描和展示
	ModePaper   Mode = "paper"
	ModeLive    Mode = "live"
)

// ParseMode 解析运行模式
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeMonitor, ModePaper, ModeLive:
		return m, nil
	case "":
		return ModeMonitor, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}
