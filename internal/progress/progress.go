// Package progress wraps terminal progress display for long-running scans.
//
// A scan has no known total upfront (the walk discovers its own size), so the
// display is a spinner whose description carries the live counters.
package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

const updateInterval = 50 * time.Millisecond

// Spinner wraps progressbar in spinner mode with enabled/disabled handling.
// All methods are no-ops when disabled.
type Spinner struct {
	bar *progressbar.ProgressBar
}

// New creates a spinner. If enabled=false, returns a Spinner where all
// methods are no-ops.
func New(enabled bool) *Spinner {
	if !enabled {
		return &Spinner{}
	}

	return &Spinner{bar: progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(updateInterval),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(false),
	)}
}

// Describe updates the spinner description.
func (s *Spinner) Describe(str fmt.Stringer) {
	if s.bar != nil {
		s.bar.Describe(str.String())
	}
}

// Finish clears the spinner and prints a final message.
func (s *Spinner) Finish(str fmt.Stringer) {
	if s.bar != nil {
		_ = s.bar.Finish()
		fmt.Fprintln(os.Stderr, "✔ "+str.String())
	}
}
