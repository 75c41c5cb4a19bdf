// Package progress decouples run-wide progress accounting from any specific
// terminal rendering. The archiver core only talks to Reporter; the bar
// implementation wraps schollz/progressbar.
package progress

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives run-level progress events from the pagination walker and
// the content dispatcher.
type Reporter interface {
	// AddTotal grows (or, for skipped posts, shrinks) the expected post total.
	AddTotal(n int)
	// Advance marks n posts as completed.
	Advance(n int)
	// Describe replaces the short status line next to the bar.
	Describe(status string)
	// Printf reports a line of status to the operator above the bar.
	Printf(format string, args ...any)
}

// BarReporter renders progress with a progressbar below inline status lines.
type BarReporter struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	total int
}

func NewBarReporter(description string) *BarReporter {
	bar := progressbar.NewOptions(0,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
	return &BarReporter{bar: bar}
}

func (r *BarReporter) AddTotal(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total += n
	r.bar.ChangeMax(r.total)
}

func (r *BarReporter) Advance(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bar.Add(n)
}

func (r *BarReporter) Describe(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bar.Describe(status)
}

func (r *BarReporter) Printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bar.Clear()
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	r.bar.RenderBlank()
}

// Finish completes and clears the bar.
func (r *BarReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bar.Finish()
	r.bar.Clear()
}

// Nop is a Reporter that swallows every event, for tests and quiet mode.
type Nop struct{}

func (Nop) AddTotal(int)          {}
func (Nop) Advance(int)           {}
func (Nop) Describe(string)       {}
func (Nop) Printf(string, ...any) {}
