package fsutil

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Digest hashes a sequence of fields. Every field is prefixed with its
// 8-byte big-endian length, so ("ab","c") and ("a","bc") differ.
type Digest struct {
	h hash.Hash
}

// NewDigest returns an empty sha256 Digest.
func NewDigest() *Digest {
	return &Digest{h: sha256.New()}
}

// Add adds one field.
func (d *Digest) Add(b []byte) *Digest {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	_, _ = d.h.Write(n[:])
	_, _ = d.h.Write(b)
	return d
}

// AddString adds one field.
func (d *Digest) AddString(s string) *Digest {
	return d.Add([]byte(s))
}

// Sum returns the lowercase hex digest of the fields added so far.
func (d *Digest) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
