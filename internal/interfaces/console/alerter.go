package console

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"spotarb/internal/application/port"
)

// LogAlerter 告警写入日志（不退出进程）
type LogAlerter struct{}

func NewLogAlerter() LogAlerter { return LogAlerter{} }

func (LogAlerter) Alert(_ context.Context, title, body string) error {
	log.WithLevel(zerolog.FatalLevel).Str("alert", title).Msg(body)
	return nil
}

var _ port.Alerter = LogAlerter{}
