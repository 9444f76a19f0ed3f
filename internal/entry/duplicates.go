package entry

import (
	"slices"
	"strings"
)

// Duplicates maps an Info to the relative paths of all entries sharing it.
// Paths use "/" separators regardless of host OS and are sorted and unique;
// the tree root's path is "". Every group has at least two members.
type Duplicates map[Info][]string

// UnfilteredDuplicates enumerates every entry in the tree (the root itself,
// every directory, every file) and groups them by Info, keeping only groups
// with more than one member.
//
// Groups nest: two duplicate directories also produce groups for every pair
// of corresponding descendants, since equal directory fingerprints imply equal
// descendant fingerprints. FilterByPrefix removes that redundancy for
// reporting.
func (e *Entry) UnfilteredDuplicates() Duplicates {
	byInfo := make(map[Info][]string)

	var walk func(e *Entry, path string)
	walk = func(e *Entry, path string) {
		byInfo[e.Info] = append(byInfo[e.Info], path)
		for name, child := range e.Children {
			walk(child, joinPath(path, name))
		}
	}
	walk(e, "")

	dups := make(Duplicates)
	for info, paths := range byInfo {
		if len(paths) < 2 {
			continue
		}
		slices.Sort(paths)
		dups[info] = paths
	}
	return dups
}

// RedundantBytes returns the total storage reclaimable by keeping one copy of
// each duplicate file: Σ bytes × (members − 1) over File-kind groups.
// Directory groups are excluded; their bytes are already counted through
// their duplicate file descendants.
func RedundantBytes(dups Duplicates) uint64 {
	var total uint64
	for info, paths := range dups {
		if info.Kind != KindFile {
			continue
		}
		total += info.Bytes * uint64(len(paths)-1)
	}
	return total
}

// FilterByPrefix removes every group whose membership is already implied by an
// ancestor directory group.
//
// A group is dropped only when, at some ancestor depth, the set of its
// members' parent paths is itself one of the input's path sets. Merely having
// some duplicated ancestor is not enough: the group `a/x.txt; b/y.txt; z.txt`
// survives a `a; b` group because `z.txt` adds information no ancestor set
// covers. A group is kept as soon as any of its paths runs out of parent
// components before an implying set is found.
func FilterByPrefix(dups Duplicates) Duplicates {
	prefixes := make(map[string]struct{}, len(dups))
	for _, paths := range dups {
		prefixes[pathSetKey(paths)] = struct{}{}
	}

	kept := make(Duplicates, len(dups))
	for info, paths := range dups {
		if !impliedByAncestor(paths, prefixes) {
			kept[info] = paths
		}
	}
	return kept
}

// impliedByAncestor climbs the members of one group in lockstep, one path
// component per iteration, until it either finds the parent set among the
// known duplicate sets (implied) or some path reaches the tree root (not
// implied). Converges because path depth strictly decreases.
func impliedByAncestor(paths []string, prefixes map[string]struct{}) bool {
	current := paths
	for {
		parentSet := make(map[string]struct{}, len(current))
		for _, p := range current {
			parent, ok := parentPath(p)
			if !ok {
				return false
			}
			parentSet[parent] = struct{}{}
		}

		// Siblings collapse into one parent here, exactly as they do in the
		// ancestor's own duplicate set.
		parents := make([]string, 0, len(parentSet))
		for p := range parentSet {
			parents = append(parents, p)
		}

		if _, ok := prefixes[pathSetKey(parents)]; ok {
			return true
		}
		current = parents
	}
}

// parentPath drops the last component of a "/"-joined relative path. A
// single-component path has no usable parent: the tree root is not a
// candidate prefix.
func parentPath(p string) (string, bool) {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return "", false
	}
	return p[:i], true
}

// pathSetKey canonicalizes a set of paths for set-of-sets membership tests.
// NUL cannot occur in path components, so the join is unambiguous.
func pathSetKey(paths []string) string {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)
	return strings.Join(sorted, "\x00")
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
