// Package progress renders per-phase progress bars on an interactive terminal.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/forPelevin/autosub/internal/ports"
)

// Factory returns bars writing to w. When w is not a terminal, or enabled is
// false, bars are no-ops so logs and pipes stay clean.
func Factory(w io.Writer, enabled bool) ports.ProgressFactory {
	if !enabled || !IsTerminal(w) {
		return Nop
	}
	return func(description string, total int) ports.Progress {
		return &bar{pb: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		)}
	}
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type bar struct{ pb *progressbar.ProgressBar }

func (b *bar) Add(n int) { _ = b.pb.Add(n) }
func (b *bar) Finish()   { _ = b.pb.Finish() }

// Nop discards progress.
func Nop(string, int) ports.Progress { return nop{} }

type nop struct{}

func (nop) Add(int) {}
func (nop) Finish() {}
