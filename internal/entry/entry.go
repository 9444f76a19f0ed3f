// Package entry models a scanned filesystem tree as a content-addressed
// recursive structure and implements duplicate detection over it.
//
// An Entry is either a file leaf or a directory with named children. Every
// entry carries an Info summary (size, kind, fingerprint); two entries with
// equal Info are treated as having identical content. Trees are built
// bottom-up by the scanner and never mutated afterward.
package entry

import (
	"cmp"

	"github.com/Possseidon/ssdedupe/internal/fingerprint"
)

// Kind discriminates directories from files.
type Kind uint8

const (
	KindDir Kind = iota
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	}
	return "unknown"
}

// Info is the comparable summary of one entry. Equality of all three fields is
// the sole criterion for "identical content".
type Info struct {
	Bytes uint64
	Kind  Kind
	Hash  uint64
}

// Compare orders by Bytes, then Kind, then Hash, giving Info a deterministic
// total order for sorted output.
func (i Info) Compare(other Info) int {
	if c := cmp.Compare(i.Bytes, other.Bytes); c != 0 {
		return c
	}
	if c := cmp.Compare(i.Kind, other.Kind); c != 0 {
		return c
	}
	return cmp.Compare(i.Hash, other.Hash)
}

// Entry is one node of a scanned tree. Children is nil for files and maps
// child name to subtree for directories. Entries are immutable once built;
// construct them with NewFile and NewDir only.
type Entry struct {
	Info      Info
	DirCount  uint64 // directories in this subtree, including the entry itself
	FileCount uint64 // files in this subtree
	Children  map[string]*Entry
}

// NewFile returns a file leaf with the given size and content fingerprint.
func NewFile(bytes, hash uint64) *Entry {
	return &Entry{
		Info:      Info{Bytes: bytes, Kind: KindFile, Hash: hash},
		FileCount: 1,
	}
}

// NewDir builds a directory node from already-built children, aggregating
// their sizes and counts and deriving the order-independent directory
// fingerprint. The children map is owned by the new entry afterward.
//
// NewDir is also how multiple scanned trees are combined for cross-drive
// duplicate detection: pass each tree under a synthetic per-drive name.
func NewDir(children map[string]*Entry) *Entry {
	e := &Entry{
		Info:     Info{Kind: KindDir},
		DirCount: 1,
		Children: children,
	}

	hashes := make([]uint64, 0, len(children))
	for _, child := range children {
		e.Info.Bytes += child.Info.Bytes
		e.DirCount += child.DirCount
		e.FileCount += child.FileCount
		hashes = append(hashes, child.Info.Hash)
	}
	e.Info.Hash = fingerprint.Dir(hashes)

	return e
}
