package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Possseidon/ssdedupe/internal/drive"
	"github.com/Possseidon/ssdedupe/internal/entry"
	"github.com/Possseidon/ssdedupe/internal/progress"
	"github.com/Possseidon/ssdedupe/internal/scan"
)

// scanOptions holds CLI flags for the scan command.
type scanOptions struct {
	storePath  string
	name       string
	workers    int
	noProgress bool
}

// newScanCmd creates the scan subcommand.
func newScanCmd() *cobra.Command {
	opts := &scanOptions{
		storePath: defaultStorePath(),
		workers:   scan.DefaultWorkers(),
	}

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan paths into content-addressed drives",
		Long: `Walks each path, fingerprinting every file and directory, and saves the
resulting tree as a named drive for later duplicate detection (see "dupes").

Multiple paths are scanned concurrently, sharing one worker pool. Each drive
defaults to its path's base name; a taken name gets a " (N)" suffix.
Interrupting with Ctrl-C cancels all in-flight scans cleanly; a canceled scan
saves nothing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runScan(args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.storePath, "store", opts.storePath, "Path to the drive database")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Drive name (single path only; default: path base name)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", opts.workers, "Number of parallel workers")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable progress output")

	return cmd
}

// combinedProgress sums the counters of several concurrent scans into one
// spinner line.
type combinedProgress []*scan.State

func (c combinedProgress) String() string {
	var bytes, dirs, files uint64
	for _, st := range c {
		bytes += st.Bytes()
		dirs += st.Dirs()
		files += st.Files()
	}
	return fmt.Sprintf("%d dirs, %d files, %s hashed", dirs, files, fmtBytes(bytes))
}

// runScan executes the scan pipeline: walk each path concurrently, then save
// each completed tree as a drive.
func runScan(paths []string, opts *scanOptions) error {
	if opts.name != "" && len(paths) > 1 {
		return fmt.Errorf("--name requires exactly one path")
	}

	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		abs[i] = a
	}

	store, err := drive.Open(opts.storePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	scanner := scan.New(opts.workers)
	states := make([]*scan.State, len(paths))
	for i := range states {
		states[i] = scan.NewState()
	}

	// Ctrl-C cancels every in-flight scan cooperatively.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigCh:
			for _, st := range states {
				st.Cancel()
			}
		case <-done:
		}
	}()

	// Spinner refresh loop, fed by the shared scan states.
	bar := progress.New(!opts.noProgress)
	bar.Describe(combinedProgress(states))
	stopProgress := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				bar.Describe(combinedProgress(states))
			case <-stopProgress:
				return
			}
		}
	}()

	results := make([]*entry.Entry, len(paths))
	var g errgroup.Group
	for i := range abs {
		i := i
		g.Go(func() error {
			results[i] = scanner.Scan(abs[i], states[i])
			return nil
		})
	}
	_ = g.Wait()
	close(stopProgress)
	bar.Finish(combinedProgress(states))

	canceled := false
	var failed error
	for i := range abs {
		st := states[i]
		for _, msg := range st.Errors() {
			fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		}

		e := results[i]
		if e == nil {
			if st.Canceled() {
				canceled = true
				continue
			}
			// A failed root loses only its own drive, never a sibling's.
			if failed == nil {
				failed = fmt.Errorf("scanning %s failed", paths[i])
			}
			continue
		}

		name := opts.name
		if name == "" {
			name = filepath.Base(abs[i])
		}
		saved, err := store.SaveUnique(name, e)
		if err != nil {
			// The scan itself succeeded; only its durability is lost.
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("saved drive %q: %d dirs, %d files, %s\n",
			saved, e.DirCount, e.FileCount, fmtBytes(e.Info.Bytes))
	}

	if canceled {
		fmt.Println("scan canceled")
	}
	return failed
}
