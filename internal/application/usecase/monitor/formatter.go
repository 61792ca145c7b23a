package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"spotarb/internal/application/service"
	"spotarb/internal/domain/model"
	dsvc "spotarb/internal/domain/service"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiBold     = "\033[1m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Formatter struct {
	Threshold float64 // 最低净利润 %
	venues    []string
}

func NewFormatter(threshold float64, venues []string) *Formatter {
	return &Formatter{Threshold: threshold, venues: venues}
}

// CycleView 一轮需要展示的内容
type CycleView struct {
	Cycle   int
	Mode    Mode
	State   *State
	Result  *service.ScanResult
	Paper   *model.PaperStats
	LivePnL *float64
}

// RenderStatus 扫描进行中的单行状态
func (f *Formatter) RenderStatus(cycle int, venues int) string {
	var sb strings.Builder
	sb.WriteString("\r")
	sb.WriteString(colorize("[SPOTARB] ", ansiDim))
	sb.WriteString(fmt.Sprintf("cycle %d: scanning %d venues...", cycle, venues))
	sb.WriteString(ansiClearEOL)
	return sb.String()
}

func (f *Formatter) RenderCycle(v CycleView) string {
	var sb strings.Builder
	res := v.Result

	ok := len(f.venues) - len(res.FailedVenues)
	sb.WriteString(colorize("[SPOTARB] ", ansiDim))
	sb.WriteString(fmt.Sprintf("cycle %d  mode %s  venues %d/%d  scan %s  opportunities %d",
		v.Cycle, v.Mode, ok, len(f.venues), res.Duration.Round(1e6), len(res.Opportunities)))
	if len(res.FailedVenues) > 0 {
		sb.WriteString(colorize("  failed: "+strings.Join(res.FailedVenues, ","), ansiRed))
	}
	sb.WriteString("\n")

	if v.State != nil {
		for _, pair := range v.State.Pairs() {
			f.renderPair(&sb, pair, v.State.Snapshot(pair))
		}
	}

	if len(res.Opportunities) == 0 {
		sb.WriteString(colorize(fmt.Sprintf("  no opportunity above %.2f%% net", f.Threshold), ansiDim))
		sb.WriteString("\n")
	}
	for i, o := range res.Opportunities {
		col := ansiYellow
		switch dsvc.ProfitBand(o.NetProfitPct, f.Threshold) {
		case +1:
			col = ansiGreen
		case -1:
			col = ansiRed
		}
		line := fmt.Sprintf("  #%-2d %-10s buy %-8s @ %-14s sell %-8s @ %-14s spread %.4f%%  net %.4f%%",
			i+1, o.Pair, o.BuyVenue, formatPrice(o.BuyPrice), o.SellVenue, formatPrice(o.SellPrice),
			o.SpreadPct, o.NetProfitPct)
		sb.WriteString(colorize(line, col))
		sb.WriteString("\n")
	}

	if v.Paper != nil {
		p := v.Paper
		sb.WriteString(fmt.Sprintf("  paper: balance %.2f  trades %d  win %.1f%%  net %+.4f  return %+.4f%%\n",
			p.CurrentBalance, p.TotalTrades, p.WinRate, p.TotalNetProfit, p.ReturnPct))
	}
	if v.LivePnL != nil {
		col := ansiGreen
		if *v.LivePnL < 0 {
			col = ansiRed
		}
		sb.WriteString(colorize(fmt.Sprintf("  live pnl: %+.4f", *v.LivePnL), col))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *Formatter) renderPair(sb *strings.Builder, pair model.TradingPair, snap map[string]pxState) {
	sb.WriteString("  ")
	sb.WriteString(colorize(fmt.Sprintf("%-10s", pair), ansiBold))
	for _, venue := range f.venues {
		px, ok := snap[venue]
		text := venue + ":--"
		col := ansiDim
		if ok && px.seen {
			text = venue + ":" + formatPrice(px.price)
			switch px.dir {
			case DirUp:
				col = ansiGreen
			case DirDown:
				col = ansiRed
			default:
				col = ansiYellow
			}
		}
		sb.WriteString(" ")
		sb.WriteString(colorize(text, col))
	}
	sb.WriteString("\n")
}

// RenderLiveResult 实盘结果单行
func (f *Formatter) RenderLiveResult(res model.LiveTradeResult, opp model.Opportunity) string {
	head := fmt.Sprintf("live %s %s->%s", opp.Pair, opp.BuyVenue, opp.SellVenue)
	switch res.State {
	case model.StateSettled:
		return colorize(head+": SETTLED", ansiGreen)
	case model.StatePartiallyFilled:
		return colorize(ansiBold+head+": PARTIALLY FILLED - MANUAL INTERVENTION REQUIRED: "+res.Reason, ansiRed)
	default:
		return colorize(fmt.Sprintf("%s: %s (%s)", head, res.State, res.Reason), ansiYellow)
	}
}

func formatPrice(p float64) string {
	switch {
	case p >= 1000:
		return strconv.FormatFloat(p, 'f', 2, 64)
	case p >= 1:
		return strconv.FormatFloat(p, 'f', 4, 64)
	default:
		return strconv.FormatFloat(p, 'f', 8, 64)
	}
}
