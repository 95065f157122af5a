package id

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"
)

// ID is a 128-bit identifier: [8 bytes µs_timestamp][8 bytes sequence].
type ID [16]byte

// Bytes returns a copy of the raw 16-byte representation.
func (i ID) Bytes() []byte { b := make([]byte, 16); copy(b, i[:]); return b }

// String returns a hex string.
func (i ID) String() string { return hex.EncodeToString(i[:]) }

// Micros returns the embedded timestamp.
func (i ID) Micros() int64 { return int64(binary.BigEndian.Uint64(i[0:8])) }

// Compare returns -1, 0, 1 based on lexical comparison.
func (i ID) Compare(other ID) int { return bytes.Compare(i[:], other[:]) }

// Generator produces monotonically increasing IDs per process.
type Generator struct {
	mu       sync.Mutex
	lastUs   int64
	sequence uint64
}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator { return &Generator{} }

// NowMicros returns current time in microseconds since Unix epoch.
var NowMicros = func() int64 { return time.Now().UnixMicro() }

// Next returns a new ID. A regressing clock is pinned to the last seen
// microsecond and the sequence keeps increasing.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	us := NowMicros()
	if us <= g.lastUs {
		us = g.lastUs
		g.sequence++
	} else {
		g.sequence = 0
	}
	g.lastUs = us

	var out ID
	binary.BigEndian.PutUint64(out[0:8], uint64(us))
	binary.BigEndian.PutUint64(out[8:16], g.sequence)
	return out
}
