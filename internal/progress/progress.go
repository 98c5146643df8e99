// Package progress implements the Progress Reporter (§4.H): a bounded,
// cancellable terminal reporter backing the non-MP4 export paths. Grounded
// on livepeer-catalyst-api/progress's ticker-driven ProgressReporter
// (monotonic-progress assertion, periodic tick loop), simplified to a
// synchronous terminal spinner/bar since this pipeline has no callback
// client to report to — only a human watching a CLI or a log stream.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

const tickInterval = 200 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Reporter ticks a spinner and an optional bounded bar to an io.Writer.
// Total is the number of pages for deterministic formats (PDF/PNG/PPTX/MD);
// MP4's indeterminate duration is represented by Total=0.
type Reporter struct {
	mu      sync.Mutex
	w       io.Writer
	label   string
	total   int
	current int

	stop   chan struct{}
	done   chan struct{}
	frame  int
	quiet  bool
}

// New starts a reporter that ticks every 200ms (§4.H) until Stop is called.
// total is the number of pages; pass 0 for an indeterminate run (MP4).
func New(w io.Writer, label string, total int) *Reporter {
	r := &Reporter{
		w:     w,
		label: label,
		total: total,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		quiet: w == nil,
	}
	if !r.quiet {
		go r.loop()
	} else {
		close(r.done)
	}
	return r
}

// Advance reports n additional units of completed work (monotonic; callers
// never decrease progress, mirroring the teacher's non-monotonic-progress
// guard).
func (r *Reporter) Advance(n int) {
	r.mu.Lock()
	r.current += n
	r.mu.Unlock()
}

// Stop halts the tick loop and clears the line.
func (r *Reporter) Stop() {
	if r.quiet {
		return
	}
	close(r.stop)
	<-r.done
	fmt.Fprint(r.w, "\r\033[K")
}

func (r *Reporter) loop() {
	defer close(r.done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.render()
		}
	}
}

func (r *Reporter) render() {
	r.mu.Lock()
	frame := spinnerFrames[r.frame%len(spinnerFrames)]
	r.frame++
	current, total, label := r.current, r.total, r.label
	r.mu.Unlock()

	spin := color.New(color.FgCyan).Sprint(frame)
	if total <= 0 {
		fmt.Fprintf(r.w, "\r\033[K%s %s (%d)", spin, label, current)
		return
	}
	pct := 0
	if total > 0 {
		pct = current * 100 / total
	}
	fmt.Fprintf(r.w, "\r\033[K%s %s %d/%d (%d%%)", spin, label, current, total, pct)
}
