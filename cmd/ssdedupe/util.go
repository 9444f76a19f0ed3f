package main

import (
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// fmtBytes is a shorthand for humanize.IBytes (human-readable byte sizes).
var fmtBytes = humanize.IBytes

// defaultStorePath returns the default drive database location under the
// user's config directory.
func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "ssdedupe-drives.db"
	}
	return filepath.Join(dir, "ssdedupe", "drives.db")
}
