// Package cli wires the wcry vault operations to a cobra-based command
// line.
package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Reporter implements vault.ProgressReporter for terminal output. It
// displays status and progress on a single line that gets overwritten
// in place, matching the convention of writing progress to stderr so
// stdout stays clean for redirection.
type Reporter struct {
	mu       sync.Mutex
	status   string
	progress float32
	info     string
	quiet    bool
	lastLine int
}

// NewReporter creates a reporter. If quiet is true, only errors are
// printed; progress and the final success line are suppressed.
func NewReporter(quiet bool) *Reporter {
	return &Reporter{quiet: quiet}
}

// SetStatus updates the status text and redraws the progress line.
func (r *Reporter) SetStatus(text string) {
	r.mu.Lock()
	r.status = text
	r.mu.Unlock()
	r.draw()
}

// SetProgress updates the progress fraction and redraws the line.
func (r *Reporter) SetProgress(fraction float32, info string) {
	r.mu.Lock()
	r.progress = fraction
	r.info = info
	r.mu.Unlock()
	r.draw()
}

func (r *Reporter) draw() {
	if r.quiet {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	barWidth := 30
	filled := min(int(r.progress*float32(barWidth)), barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	line := fmt.Sprintf("\r[%s] %s %s", bar, r.info, r.status)
	if len(line) < r.lastLine {
		line += strings.Repeat(" ", r.lastLine-len(line))
	}
	r.lastLine = len(line)

	fmt.Fprint(os.Stderr, line)
}

// Finish moves the terminal past the progress line.
func (r *Reporter) Finish() {
	if !r.quiet {
		fmt.Fprintln(os.Stderr)
	}
}

// PrintError reports a fatal error.
func (r *Reporter) PrintError(format string, args ...any) {
	r.mu.Lock()
	drew := r.lastLine > 0
	r.mu.Unlock()
	if !r.quiet && drew {
		fmt.Fprintln(os.Stderr)
	}
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

// PrintSuccess reports a completed operation.
func (r *Reporter) PrintSuccess(format string, args ...any) {
	if r.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
