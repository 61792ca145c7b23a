package port

import "time"

// Sink 控制台输出
type Sink interface {
	// WriteLive overwrites the status line in place.
	WriteLive(line string) error
	// WriteSnapshot appends a timestamped cycle report.
	WriteSnapshot(ts time.Time, block string) error
	NewLine() error
}
