package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Possseidon/ssdedupe/internal/drive"
)

// drivesOptions holds flags shared by the drive management subcommands.
type drivesOptions struct {
	storePath string
}

// newDrivesCmd creates the drives subcommand group.
func newDrivesCmd() *cobra.Command {
	opts := &drivesOptions{storePath: defaultStorePath()}

	cmd := &cobra.Command{
		Use:   "drives",
		Short: "Manage saved drives",
	}
	cmd.PersistentFlags().StringVar(&opts.storePath, "store", opts.storePath, "Path to the drive database")

	cmd.AddCommand(newDrivesListCmd(opts))
	cmd.AddCommand(newDrivesRenameCmd(opts))
	cmd.AddCommand(newDrivesRmCmd(opts))

	return cmd
}

func newDrivesListCmd(opts *drivesOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved drives with their sizes",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := drive.Open(opts.storePath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			names, err := store.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("no drives scanned yet")
				return nil
			}

			for _, name := range names {
				e, err := store.Load(name)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				fmt.Printf("%s: %d dirs, %d files, %s\n",
					name, e.DirCount, e.FileCount, fmtBytes(e.Info.Bytes))
			}
			return nil
		},
	}
}

func newDrivesRenameCmd(opts *drivesOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a saved drive",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := drive.Open(opts.storePath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return store.Rename(args[0], args[1])
		},
	}
}

func newDrivesRmCmd(opts *drivesOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>...",
		Short: "Delete saved drives",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := drive.Open(opts.storePath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for _, name := range args {
				if err := store.Delete(name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
