package port

import (
	"context"

	"spotarb/internal/domain/model"
)

// Approver 实盘下单前的人工确认
type Approver interface {
	Approve(ctx context.Context, p model.TradeProposal) (bool, error)
}

// Alerter 高优先级告警（单边持仓等）
type Alerter interface {
	Alert(ctx context.Context, title, body string) error
}
