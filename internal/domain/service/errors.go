package service

import "errors"

// 实盘拒绝 / 失败原因
var (
	ErrTradingDisabled   = errors.New("live trading disabled")
	ErrProfitTooLow      = errors.New("profit below live threshold")
	ErrNoExecutor        = errors.New("no order executor for venue")
	ErrVenueUnhealthy    = errors.New("venue health check failed")
	ErrDailyLossLimit    = errors.New("daily loss limit reached")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrBuyFailed         = errors.New("buy order failed")
	ErrSellFailed        = errors.New("sell order failed")
	ErrFillUnknown       = errors.New("buy fill quantity unknown")
	ErrUserAborted       = errors.New("trade declined by operator")
)
