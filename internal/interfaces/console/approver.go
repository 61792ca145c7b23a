package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// Approver 在终端打印交易参数并等待 y/yes
type Approver struct {
	in  *bufio.Reader
	out io.Writer
}

func NewApprover() *Approver { return NewIOApprover(os.Stdin, os.Stdout) }

func NewIOApprover(in io.Reader, out io.Writer) *Approver {
	return &Approver{in: bufio.NewReader(in), out: out}
}

// Approve 只有 y / yes（不区分大小写）算同意；ctx 取消视为拒绝
func (a *Approver) Approve(ctx context.Context, p model.TradeProposal) (bool, error) {
	fmt.Fprintf(a.out, "\n=== LIVE TRADE APPROVAL ===\n")
	fmt.Fprintf(a.out, "  pair:     %s\n", p.Pair)
	fmt.Fprintf(a.out, "  buy:      %s @ %.8f\n", p.BuyVenue, p.BuyPrice)
	fmt.Fprintf(a.out, "  sell:     %s @ %.8f\n", p.SellVenue, p.SellPrice)
	fmt.Fprintf(a.out, "  net:      %.4f%%\n", p.NetProfitPct)
	fmt.Fprintf(a.out, "  size:     %.2f %s\n", p.Size, p.Pair.Quote)
	fmt.Fprintf(a.out, "  expected: %+.4f %s\n", p.ExpectedProfit, p.Pair.Quote)
	fmt.Fprint(a.out, "Execute this trade? (y/N): ")

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := a.in.ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case ans := <-ch:
		if ans.err != nil && ans.err != io.EOF {
			return false, ans.err
		}
		return accepted(ans.line), nil
	}
}

func accepted(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

var _ port.Approver = (*Approver)(nil)
