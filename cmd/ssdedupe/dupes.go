package main

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Possseidon/ssdedupe/internal/drive"
	"github.com/Possseidon/ssdedupe/internal/entry"
)

// dupesOptions holds CLI flags for the dupes command.
type dupesOptions struct {
	storePath  string
	unfiltered bool
}

// newDupesCmd creates the dupes subcommand.
func newDupesCmd() *cobra.Command {
	opts := &dupesOptions{storePath: defaultStorePath()}

	cmd := &cobra.Command{
		Use:   "dupes [drives...]",
		Short: "Report duplicates across saved drives",
		Long: `Combines the named drives (default: all saved drives) under one synthetic
root and reports every set of paths with identical content, largest
reclaimable size first.

Groups already implied by a duplicated ancestor directory are omitted: when
two whole directories match, their matching contents are not listed again.
Use --unfiltered to see the raw nested groups.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return runDupes(args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.storePath, "store", opts.storePath, "Path to the drive database")
	cmd.Flags().BoolVar(&opts.unfiltered, "unfiltered", false, "Skip the prefix-redundancy filter")

	return cmd
}

// runDupes loads the selected drives, mounts them under a synthetic root, and
// prints the duplicate report.
func runDupes(names []string, opts *dupesOptions) error {
	store, err := drive.Open(opts.storePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if len(names) == 0 {
		if names, err = store.List(); err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("no drives scanned yet")
			return nil
		}
	}

	trees := make(map[string]*entry.Entry, len(names))
	for _, name := range names {
		e, err := store.Load(name)
		if err != nil {
			return err
		}
		trees[name] = e
	}

	// Synthetic root: each drive mounted under its name, so reported paths
	// read "drive/sub/file".
	root := entry.NewDir(trees)

	unfiltered := root.UnfilteredDuplicates()
	redundant := entry.RedundantBytes(unfiltered)

	dups := unfiltered
	if !opts.unfiltered {
		dups = entry.FilterByPrefix(unfiltered)
	}

	fmt.Printf("Duplicates (%s redundant)\n", fmtBytes(redundant))
	for _, g := range sortGroups(dups) {
		kind := "files"
		if g.info.Kind == entry.KindDir {
			kind = "directories"
		}
		fmt.Printf("%s redundant across %d %s (%s each)\n",
			fmtBytes(g.redundant), len(g.paths), kind, fmtBytes(g.info.Bytes))
		for _, p := range g.paths {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}

// group pairs one duplicate set with its reclaimable size for reporting.
type group struct {
	redundant uint64
	info      entry.Info
	paths     []string
}

// sortGroups orders groups by reclaimable size, largest first. Ties order
// files before directories and larger groups before smaller ones, with the
// Info order as the final tie-break for full determinism.
func sortGroups(dups entry.Duplicates) []group {
	groups := make([]group, 0, len(dups))
	for info, paths := range dups {
		groups = append(groups, group{
			redundant: info.Bytes * uint64(len(paths)-1),
			info:      info,
			paths:     paths,
		})
	}
	slices.SortFunc(groups, func(a, b group) int {
		if c := cmp.Compare(b.redundant, a.redundant); c != 0 {
			return c
		}
		if c := cmp.Compare(b.info.Kind, a.info.Kind); c != 0 {
			return c
		}
		if c := cmp.Compare(len(b.paths), len(a.paths)); c != 0 {
			return c
		}
		return b.info.Compare(a.info)
	})
	return groups
}
