package console

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"spotarb/internal/application/port"
)

type Sink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewSink() port.Sink { return NewWriterSink(os.Stdout) }

func NewWriterSink(w io.Writer) *Sink { return &Sink{out: w} }

// WriteLive 覆盖当前行
func (s *Sink) WriteLive(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "\r\033[K%s", line) // no newline
	return err
}

// 打印快照块后留一个空行占位；不立刻重画 live，等下一轮刷新
func (s *Sink) WriteSnapshot(ts time.Time, block string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "\n%s %s\n\n", ts.Format("2006-01-02 15:04:05"), block)
	return err
}

func (s *Sink) NewLine() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprint(s.out, "\n")
	return err
}
