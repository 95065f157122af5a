package eventlog

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/rhurkes/wx-storage/internal/namespace"
)

// KeyLen is the size of an event key: timestamp_be8 | disambiguator_be8.
const KeyLen = 16

// Key is the engine-level identity of a stored event. Byte-wise comparison of
// two keys equals numeric comparison of (timestamp, disambiguator).
type Key [KeyLen]byte

// EncodeKey builds the big-endian key for ts and seq.
func EncodeKey(ts, seq uint64) Key {
	var k Key
	binary.BigEndian.PutUint64(k[0:8], ts)
	binary.BigEndian.PutUint64(k[8:16], seq)
	return k
}

// DecodeKey is the inverse of EncodeKey.
func DecodeKey(b []byte) (ts, seq uint64, err error) {
	if len(b) != KeyLen {
		return 0, 0, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, KeyLen, len(b))
	}
	return binary.BigEndian.Uint64(b[0:8]), binary.BigEndian.Uint64(b[8:16]), nil
}

// ParseKey copies b into a Key after validating its length.
func ParseKey(b []byte) (Key, error) {
	var k Key
	if len(b) != KeyLen {
		return k, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, KeyLen, len(b))
	}
	copy(k[:], b)
	return k, nil
}

func (k Key) Timestamp() uint64 { return binary.BigEndian.Uint64(k[0:8]) }
func (k Key) Seq() uint64       { return binary.BigEndian.Uint64(k[8:16]) }

// Successor returns the smallest key strictly greater than k. ok is false
// when k is the largest possible key.
func (k Key) Successor() (next Key, ok bool) {
	ts, seq := k.Timestamp(), k.Seq()
	switch {
	case seq != ^uint64(0):
		return EncodeKey(ts, seq+1), true
	case ts != ^uint64(0):
		return EncodeKey(ts+1, 0), true
	default:
		return Key{}, false
	}
}

func (k Key) String() string {
	return strconv.FormatUint(k.Timestamp(), 10) + "-" + strconv.FormatUint(k.Seq(), 10)
}

var entryPrefix = namespace.Prefix(namespace.Events)

// entryKeyLen is the engine key length: namespace prefix plus event key.
var entryKeyLen = len(entryPrefix) + KeyLen

// appendEntryKey appends the engine key for k to dst.
func appendEntryKey(dst []byte, k Key) []byte {
	dst = append(dst, entryPrefix...)
	return append(dst, k[:]...)
}

// entryKey returns the engine key for k.
func entryKey(k Key) []byte {
	return appendEntryKey(make([]byte, 0, entryKeyLen), k)
}

// keyFromEntry extracts the event key from an engine key.
func keyFromEntry(ek []byte) (Key, error) {
	if len(ek) != entryKeyLen {
		return Key{}, fmt.Errorf("%w: engine key of %d bytes", ErrInvalidKey, len(ek))
	}
	return ParseKey(ek[len(entryPrefix):])
}

// Decimal keys are the legacy textual layout: the timestamp rendered as a
// zero-padded 20 digit decimal (enough for any uint64), '/', then the
// disambiguator in the same form. Lexicographic order equals numeric order
// only because the width is fixed; keys written with a narrower width sort
// incorrectly once timestamps gain a digit. Used only to migrate old keys.
const (
	decimalWidth  = 20
	DecimalKeyLen = 2*decimalWidth + 1
)

// EncodeDecimalKey renders ts and seq in the fixed-width decimal layout.
func EncodeDecimalKey(ts, seq uint64) []byte {
	out := make([]byte, 0, DecimalKeyLen)
	out = appendPadded(out, ts)
	out = append(out, '/')
	return appendPadded(out, seq)
}

func appendPadded(dst []byte, v uint64) []byte {
	var digits [decimalWidth]byte
	s := strconv.AppendUint(digits[:0], v, 10)
	for i := len(s); i < decimalWidth; i++ {
		dst = append(dst, '0')
	}
	return append(dst, s...)
}

// DecodeDecimalKey parses a key produced by EncodeDecimalKey.
func DecodeDecimalKey(b []byte) (ts, seq uint64, err error) {
	if len(b) != DecimalKeyLen || b[decimalWidth] != '/' {
		return 0, 0, fmt.Errorf("%w: not a %d byte decimal key", ErrInvalidKey, DecimalKeyLen)
	}
	ts, err = parseDigits(b[:decimalWidth])
	if err != nil {
		return 0, 0, err
	}
	seq, err = parseDigits(b[decimalWidth+1:])
	if err != nil {
		return 0, 0, err
	}
	return ts, seq, nil
}

func parseDigits(b []byte) (uint64, error) {
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: non-digit %q", ErrInvalidKey, c)
		}
	}
	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return v, nil
}

// MigrateDecimalKey converts a legacy decimal key to the big-endian layout.
func MigrateDecimalKey(b []byte) (Key, error) {
	ts, seq, err := DecodeDecimalKey(b)
	if err != nil {
		return Key{}, err
	}
	return EncodeKey(ts, seq), nil
}
