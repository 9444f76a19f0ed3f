package entry

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Encode serializes the tree to an opaque binary blob. Decoding the blob
// reproduces the tree losslessly: identical Info values throughout and
// identical shape.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(data []byte) (*Entry, error) {
	var e Entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	return &e, nil
}
