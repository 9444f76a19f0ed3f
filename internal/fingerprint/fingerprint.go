// Package fingerprint computes the 64-bit content fingerprints used to decide
// entry identity.
//
// All fingerprints are produced by xxHash with its fixed default seed, so the
// same content yields the same fingerprint in every run and on every machine.
// That stability is load-bearing: fingerprints are persisted with scanned
// trees and later compared against freshly computed ones. xxHash is not
// collision resistant against an adversary; equal fingerprints are treated as
// equal content, and a collision shows up as a false duplicate report.
package fingerprint

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// dirMarker is mixed into every directory fingerprint. It keeps an empty
// directory from fingerprinting like a zero-byte file, and directory
// fingerprints in general from colliding with file content that happens to
// encode the same child hashes.
const dirMarker uint64 = 0xBEEE38829F9F8197

// New returns a streaming digest for file contents. Feed it the file's bytes
// in order; Sum64 is then the file's fingerprint.
func New() *xxhash.Digest {
	return xxhash.New()
}

// Bytes returns the fingerprint of a complete byte sequence. Equivalent to
// streaming the same bytes through a digest from New.
func Bytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// Dir combines child fingerprints into a directory fingerprint.
//
// The hashes are sorted before combining, so the fingerprint does not depend
// on the order in which the filesystem enumerated the children. The caller's
// slice is not modified.
func Dir(hashes []uint64) uint64 {
	sorted := slices.Clone(hashes)
	slices.Sort(sorted)

	digest := xxhash.New()
	var buf [8]byte
	for _, h := range sorted {
		binary.LittleEndian.PutUint64(buf[:], h)
		_, _ = digest.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], dirMarker)
	_, _ = digest.Write(buf[:])
	return digest.Sum64()
}
