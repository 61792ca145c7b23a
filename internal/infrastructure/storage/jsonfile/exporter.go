package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// Record 导出文件中的单条模拟成交
type Record struct {
	Timestamp           float64 `json:"timestamp"` // unix seconds
	Pair                string  `json:"pair"`
	BuyExchange         string  `json:"buy_exchange"`
	SellExchange        string  `json:"sell_exchange"`
	BuyPrice            float64 `json:"buy_price"`
	SellPrice           float64 `json:"sell_price"`
	Quantity            float64 `json:"quantity"`
	TradeAmount         float64 `json:"trade_amount"`
	GrossProfit         float64 `json:"gross_profit"`
	Fees                float64 `json:"fees"`
	NetProfit           float64 `json:"net_profit"`
	NetProfitPercentage float64 `json:"net_profit_percentage"`
	BalanceAfter        float64 `json:"balance_after"`
}

func toRecord(t model.PaperTrade) Record {
	return Record{
		Timestamp:           float64(t.ExecutedAt.UnixMicro()) / 1e6,
		Pair:                t.Pair.String(),
		BuyExchange:         t.BuyVenue,
		SellExchange:        t.SellVenue,
		BuyPrice:            t.BuyPrice,
		SellPrice:           t.SellPrice,
		Quantity:            t.Quantity,
		TradeAmount:         t.Amount,
		GrossProfit:         t.GrossProfit,
		Fees:                t.BuyFee + t.SellFee,
		NetProfit:           t.NetProfit,
		NetProfitPercentage: t.NetProfitPct,
		BalanceAfter:        t.BalanceAfter,
	}
}

// Encode 按成交顺序输出缩进 JSON 数组
func Encode(trades []model.PaperTrade) ([]byte, error) {
	records := make([]Record, 0, len(trades))
	for _, t := range trades {
		records = append(records, toRecord(t))
	}
	return json.MarshalIndent(records, "", "  ")
}

// Exporter 写本地文件
type Exporter struct {
	path string
}

func New(path string) *Exporter {
	return &Exporter{path: path}
}

func (e *Exporter) Path() string { return e.path }

// Export 先写临时文件再 rename，避免中途退出留下半个文件
func (e *Exporter) Export(_ context.Context, trades []model.PaperTrade) error {
	data, err := Encode(trades)
	if err != nil {
		return fmt.Errorf("encode paper trades: %w", err)
	}

	dir := filepath.Dir(e.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, ".paper-trades-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), e.path)
}

var _ port.HistoryExporter = (*Exporter)(nil)
