// Package progress reports completion of long frame-by-frame pipelines.
package progress

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Callback receives progress updates. total == 0 marks an informational
// message rather than a completion update.
type Callback func(completed, total int, message string)

// Tracker counts completed units across goroutines and forwards each update
// to a Callback. Updates are delivered one at a time. With a nil Callback it
// prints a progress bar to stdout; with Quiet set it prints nothing.
type Tracker struct {
	mu        sync.Mutex
	callback  Callback
	total     int
	completed int
	start     time.Time
	Quiet     bool
}

// NewTracker creates a tracker for total units of work.
func NewTracker(cb Callback, total int) *Tracker {
	return &Tracker{callback: cb, total: total, start: time.Now()}
}

// Info reports an informational message.
func (t *Tracker) Info(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emit(0, 0, message)
}

// Done marks one more unit complete.
func (t *Tracker) Done(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	t.emit(t.completed, t.total, message)
}

// Completed returns the number of units marked done.
func (t *Tracker) Completed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

func (t *Tracker) emit(completed, total int, message string) {
	if t.callback != nil {
		t.callback(completed, total, message)
		return
	}
	if t.Quiet {
		return
	}
	if total == 0 {
		if message != "" {
			fmt.Println(message)
		}
		return
	}

	elapsed := time.Since(t.start)
	remaining := "0s"
	if completed > 0 && completed < total {
		perUnit := elapsed.Seconds() / float64(completed)
		remaining = formatSeconds(perUnit * float64(total-completed))
	}
	fmt.Printf("\r%s %d/%d | elapsed %s | remaining %s %s",
		Bar(completed, total, 40), completed, total,
		formatSeconds(elapsed.Seconds()), remaining, message)
	if completed >= total {
		fmt.Println()
	}
}

// Bar renders a fixed-width text progress bar.
func Bar(completed, total, width int) string {
	if total <= 0 || width <= 0 {
		return "[]"
	}
	filled := completed * width / total
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func formatSeconds(s float64) string {
	switch {
	case s < 60:
		return fmt.Sprintf("%.1fs", s)
	case s < 3600:
		return fmt.Sprintf("%.1fm", s/60)
	default:
		return fmt.Sprintf("%.1fh", s/3600)
	}
}
