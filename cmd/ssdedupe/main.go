package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:     "ssdedupe",
		Short:   "Find redundant files and directories across scanned drives",
		Version: version + " (" + commit + ")",
	}

	root.AddCommand(newScanCmd())
	root.AddCommand(newDupesCmd())
	root.AddCommand(newDrivesCmd())

	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
