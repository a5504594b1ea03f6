package sweep

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// ProgressFunc is called after every completed invocation: (1, 602), (2, 602), ...
type ProgressFunc func(completed, total int)

// progress renders the completion percentage on a single terminal line.
// It is owned by the collecting goroutine and is not safe for concurrent use.
type progress struct {
	total   int
	out     io.Writer
	fn      ProgressFunc
	printed bool
}

func newProgress(total int, out io.Writer, fn ProgressFunc) *progress {
	return &progress{total: total, out: out, fn: fn}
}

func (p *progress) Update(completed int) {
	if p.fn != nil {
		p.fn(completed, p.total)
	}
	if p.out == nil || p.total == 0 {
		return
	}

	_, _ = fmt.Fprintf(p.out, "\rProgress: %d%% (%s/%s)",
		completed*100/p.total,
		humanize.Comma(int64(completed)),
		humanize.Comma(int64(p.total)))
	p.printed = true
}

// Finish terminates the progress line.
func (p *progress) Finish() {
	if p.out != nil && p.printed {
		_, _ = fmt.Fprintln(p.out)
	}
}
