// Package idgen generates the randomised 32-bit node identifiers the
// graph package renders as 8-character uppercase hex strings.
//
// The source uses a seeded TinyMT-style generator; xorshift32 is its
// closest idiomatic Go analogue for this purpose (small, fast, non-
// cryptographic, 32-bit state) and is seeded once from crypto/rand so
// two processes don't produce the same sequence.
package idgen

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"
)

// Generator produces a stream of pseudo-random 32-bit identifiers.
// Next is guarded by a mutex, so it is safe for concurrent use; each
// graph.Store owns one.
type Generator struct {
	mu    sync.Mutex
	state uint32
}

// New returns a Generator seeded from crypto/rand. A zero seed (or a
// crypto/rand failure) is replaced by a fixed non-zero constant, since
// xorshift32 is degenerate at state 0.
func New() *Generator {
	g := &Generator{}
	g.state = seedFromCrypto()
	return g
}

// NewSeeded returns a Generator with an explicit seed, for deterministic
// tests. A zero seed is replaced with 1 for the same reason as New.
func NewSeeded(seed uint32) *Generator {
	if seed == 0 {
		seed = 1
	}
	return &Generator{state: seed}
}

func seedFromCrypto() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0x9E3779B9 // golden-ratio fallback constant, never zero
	}
	v := binary.LittleEndian.Uint32(buf[:])
	if v == 0 {
		return 0x9E3779B9
	}
	return v
}

// Next returns the next pseudo-random 32-bit value in the stream.
func (g *Generator) Next() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	x := g.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	g.state = x
	return x
}

// NextHex8 returns the next value rendered as an 8-character, uppercase,
// left-padded hexadecimal string with no "0x" prefix — the on-disk id
// format spec.md §4.4.2 mandates.
func (g *Generator) NextHex8() string {
	return RenderHex8(g.Next())
}

// RenderHex8 renders v as an 8-character uppercase hex string.
func RenderHex8(v uint32) string {
	return fmt.Sprintf("%08X", v)
}

// ParseHex8 parses an 8-character hex string back to its uint32 value.
// Returns an error if s is not exactly 8 hex digits.
func ParseHex8(s string) (uint32, error) {
	if len(s) != 8 {
		return 0, fmt.Errorf("idgen: id %q is not 8 characters", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("idgen: id %q is not valid hex: %w", s, err)
	}
	return uint32(v), nil
}
