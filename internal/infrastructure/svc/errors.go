package svc

import "errors"

var (
	// ErrNoFeedsEnabled 没有可用的交易所行情源，扫描无法进行
	ErrNoFeedsEnabled = errors.New("no exchange feeds enabled")
	// ErrStorageInitFailed 任一已启用的存储后端初始化失败
	ErrStorageInitFailed = errors.New("storage initialization failed")
	// ErrUnknownExchange 配置了没有适配器的交易所
	ErrUnknownExchange = errors.New("no adapter registered for exchange")
)
