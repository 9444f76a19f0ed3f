// Package scan builds content-addressed entry trees from filesystem walks.
//
// # Concurrency Model
//
// Directory fan-out is the parallelism unit: every directory's children are
// scanned by their own goroutines, so many directories' worth of file hashing
// proceeds simultaneously. A counting semaphore bounds the I/O actually in
// flight (directory listings and file hashing); goroutines waiting on their
// children hold no semaphore slot, so the recursion can never deadlock against
// the pool limit. One Scanner's pool is shared by every scan started through
// it, including scans running concurrently.
//
// # Cancellation
//
// Cancellation is cooperative: the shared State flag is polled at the entry of
// every recursive call and between read chunks while hashing a file. A
// canceled scan yields nil at the top, never a truncated tree - a partial
// content-addressed tree could not be meaningfully compared for duplicates.
//
// # Error Handling
//
// Per-entry errors (stat, open, read, list) are absorbed locally: they are
// appended to the scan state's log and the affected entry is omitted from its
// parent. Only a failure on the root itself makes the whole scan yield nil.
package scan

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/Possseidon/ssdedupe/internal/entry"
	"github.com/Possseidon/ssdedupe/internal/fingerprint"
)

const (
	// blockSize is the read buffer size for file hashing (64KB).
	blockSize = 64 * 1024
	// batchSize bounds memory when listing very large directories.
	batchSize = 1000
)

// DefaultWorkers returns the default worker pool size: one unit per CPU minus
// one reserved for the caller's control loop, and never less than one.
func DefaultWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// Scanner walks filesystem trees into entry trees. One Scanner may serve many
// scans, sequentially or concurrently; they compete for the same worker pool.
type Scanner struct {
	sem semaphore
}

// New creates a Scanner whose pool admits up to workers concurrent I/O units.
func New(workers int) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{sem: newSemaphore(workers)}
}

// Scan walks root and returns its content-addressed entry tree.
//
// It blocks for the duration of the walk; callers wanting progress or
// cancellation run it on their own goroutine and poll or cancel through
// state. Scan returns nil if the scan was canceled or if root itself could
// not be read (the cause is then in the state's error log).
func (s *Scanner) Scan(root string, state *State) *entry.Entry {
	e := s.scan(root, state)
	if state.Canceled() {
		// Sibling branches may have completed after the flag was raised;
		// their work is discarded with the whole scan.
		return nil
	}
	return e
}

// scan dispatches one path by kind. Returns nil for anything that should be
// omitted from the parent: errors, cancellation, unsupported entry kinds.
func (s *Scanner) scan(path string, state *State) *entry.Entry {
	if state.Canceled() {
		return nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		state.logf("failed to read metadata of %s: %v", path, err)
		return nil
	}

	switch {
	case info.Mode().IsRegular():
		return s.scanFile(path, state)
	case info.IsDir():
		return s.scanDir(path, state)
	default:
		// Symlinks, devices, sockets and the like carry no content to
		// fingerprint; skipping symlinks also keeps trees acyclic.
		state.logf("skipped (neither file nor directory): %s", path)
		return nil
	}
}

// scanFile streams a file's bytes through a digest in fixed-size chunks,
// checking for cancellation between chunks. Holds a pool slot for the whole
// read.
func (s *Scanner) scanFile(path string, state *State) *entry.Entry {
	s.sem.acquire()
	defer s.sem.release()

	f, err := os.Open(path)
	if err != nil {
		state.logf("failed to open %s: %v", path, err)
		return nil
	}
	defer func() { _ = f.Close() }()

	digest := fingerprint.New()
	buf := make([]byte, blockSize)
	var bytes uint64
	for {
		if state.Canceled() {
			return nil
		}
		n, err := f.Read(buf)
		if n > 0 {
			_, _ = digest.Write(buf[:n]) // never fails
			bytes += uint64(n)
			state.addBytes(uint64(n))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			state.logf("failed to read %s: %v", path, err)
			return nil
		}
	}

	state.incFiles()
	return entry.NewFile(bytes, digest.Sum64())
}

// scanDir lists a directory, fans out over its children concurrently, and
// assembles the resulting directory node. Children that come back nil (error,
// cancellation, unsupported kind) are omitted.
func (s *Scanner) scanDir(path string, state *State) *entry.Entry {
	names, err := s.listDir(path, state)
	if err != nil {
		state.logf("failed to read dir %s: %v", path, err)
		return nil
	}

	// Each child goroutine owns its subtree result exclusively until it lands
	// in the children map; the map is the only shared assembly point.
	var (
		mu       sync.Mutex
		children = make(map[string]*entry.Entry, len(names))
		wg       sync.WaitGroup
	)
	for _, name := range names {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			if child := s.scan(filepath.Join(path, name), state); child != nil {
				mu.Lock()
				children[name] = child
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if state.Canceled() {
		return nil
	}
	state.incDirs()
	return entry.NewDir(children)
}

// listDir reads a directory's child names in batches while holding a pool
// slot. A read error mid-listing loses the remainder of the listing, not the
// names already read; the error lands in the scan log.
func (s *Scanner) listDir(path string, state *State) ([]string, error) {
	s.sem.acquire()
	defer s.sem.release()

	dir, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dir.Close() }()

	var names []string
	for {
		batch, err := dir.ReadDir(batchSize)
		for _, ent := range batch {
			names = append(names, ent.Name())
		}
		if err == io.EOF || (err == nil && len(batch) == 0) {
			break
		}
		if err != nil {
			state.logf("failed to read dir entries in %s: %v", path, err)
			break
		}
	}
	return names, nil
}

// semaphore limits concurrent I/O using a buffered channel.
type semaphore chan struct{}

func newSemaphore(n int) semaphore { return make(chan struct{}, n) }

func (s semaphore) acquire() { s <- struct{}{} }
func (s semaphore) release() { <-s }
