package scan

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// State is the shared, concurrency-safe object threaded through one scan. It
// carries the cooperative cancellation flag, the progress counters, and the
// append-only error log. Create one per scan with NewState; every concurrent
// worker of that scan shares it.
//
// The counters are atomic and individually monotonic; reads across counters
// may be mutually inconsistent, which is acceptable for progress display. The
// cancellation flag only ever goes false→true.
type State struct {
	canceled atomic.Bool
	bytes    atomic.Uint64
	dirs     atomic.Uint64
	files    atomic.Uint64

	mu     sync.Mutex
	errLog []string

	startTime time.Time
}

// NewState creates the state for a single scan operation.
func NewState() *State {
	return &State{startTime: time.Now()}
}

// Cancel requests cooperative cancellation. Safe to call at any time, from
// any goroutine, any number of times; a scan that already produced a result
// is unaffected.
func (s *State) Cancel() {
	s.canceled.Store(true)
}

// Canceled reports whether cancellation has been requested.
func (s *State) Canceled() bool {
	return s.canceled.Load()
}

// Bytes returns the number of file bytes hashed so far.
func (s *State) Bytes() uint64 { return s.bytes.Load() }

// Dirs returns the number of directories fully scanned so far.
func (s *State) Dirs() uint64 { return s.dirs.Load() }

// Files returns the number of files fully hashed so far.
func (s *State) Files() uint64 { return s.files.Load() }

// LastError returns the most recent log message and how many earlier messages
// the log holds. ok is false while the log is empty.
func (s *State) LastError() (msg string, extra int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errLog) == 0 {
		return "", 0, false
	}
	return s.errLog[len(s.errLog)-1], len(s.errLog) - 1, true
}

// Errors returns a snapshot of the full error log in append order.
func (s *State) Errors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]string, len(s.errLog))
	copy(snapshot, s.errLog)
	return snapshot
}

// String implements fmt.Stringer for progress display.
func (s *State) String() string {
	return fmt.Sprintf("%d dirs, %d files, %s hashed in %.1fs",
		s.Dirs(), s.Files(), humanize.IBytes(s.Bytes()),
		time.Since(s.startTime).Seconds())
}

func (s *State) addBytes(n uint64) { s.bytes.Add(n) }
func (s *State) incDirs()          { s.dirs.Add(1) }
func (s *State) incFiles()         { s.files.Add(1) }

func (s *State) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.mu.Lock()
	s.errLog = append(s.errLog, msg)
	s.mu.Unlock()
}
