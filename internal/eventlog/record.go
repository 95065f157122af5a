package eventlog

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Record layout (big-endian, fixed offsets):
//
//	[0:8)   timestamp_micros
//	[8:10)  kind
//	[10:14) payload length
//	[14:)   payload
//
// New fields must be new fixed-offset regions guarded by a namespace
// FormatVersion bump, never a variable schema.
const (
	offTimestamp = 0
	offKind      = 8
	offLen       = 10
	HeaderLen    = 14

	// FormatVersion is recorded once in the events namespace metadata.
	FormatVersion = 1

	// MaxPayloadLen is the largest payload the 32-bit length field can describe.
	MaxPayloadLen = math.MaxUint32
)

// Record is one event occurrence. Timestamps are assigned by the producer.
type Record struct {
	TimestampMicros uint64
	Kind            uint16
	Payload         []byte
}

// EncodedLen returns the encoded size of r.
func (r Record) EncodedLen() int { return HeaderLen + len(r.Payload) }

// EncodeRecord returns the encoded form of r in a freshly allocated buffer.
func EncodeRecord(r Record) ([]byte, error) {
	return AppendRecord(make([]byte, 0, r.EncodedLen()), r)
}

// AppendRecord appends the encoded form of r to dst.
func AppendRecord(dst []byte, r Record) ([]byte, error) {
	return appendRecordLimit(dst, r, MaxPayloadLen)
}

// appendRecordLimit is AppendRecord with the payload limit as a parameter.
func appendRecordLimit(dst []byte, r Record, limit uint64) ([]byte, error) {
	if uint64(len(r.Payload)) > limit {
		return dst, fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrEncodingConstraint, len(r.Payload), limit)
	}
	dst = binary.BigEndian.AppendUint64(dst, r.TimestampMicros)
	dst = binary.BigEndian.AppendUint16(dst, r.Kind)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(r.Payload)))
	return append(dst, r.Payload...), nil
}

// RecordLen returns the total encoded size declared by the header at the
// start of b, checking that b holds at least that many bytes.
func RecordLen(b []byte) (int, error) {
	if len(b) < HeaderLen {
		return 0, fmt.Errorf("%w: %d bytes is shorter than the %d byte header", ErrMalformedRecord, len(b), HeaderLen)
	}
	n := uint64(binary.BigEndian.Uint32(b[offLen:]))
	if n > uint64(len(b)-HeaderLen) {
		return 0, fmt.Errorf("%w: declared payload %d exceeds remaining %d bytes", ErrMalformedRecord, n, len(b)-HeaderLen)
	}
	return HeaderLen + int(n), nil
}

// ValidateRecord checks that b holds exactly one record.
func ValidateRecord(b []byte) error {
	n, err := RecordLen(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformedRecord, len(b)-n)
	}
	return nil
}

// RecordTimestamp reads the timestamp field without decoding the record.
func RecordTimestamp(b []byte) (uint64, error) {
	if len(b) < HeaderLen {
		return 0, fmt.Errorf("%w: short header", ErrMalformedRecord)
	}
	return binary.BigEndian.Uint64(b[offTimestamp:]), nil
}

// DecodeRecordView decodes the record at the start of b without copying:
// the returned Payload aliases b.
func DecodeRecordView(b []byte) (Record, error) {
	n, err := RecordLen(b)
	if err != nil {
		return Record{}, err
	}
	return Record{
		TimestampMicros: binary.BigEndian.Uint64(b[offTimestamp:]),
		Kind:            binary.BigEndian.Uint16(b[offKind:]),
		Payload:         b[HeaderLen:n:n],
	}, nil
}

// DecodeRecord decodes the record at the start of b. The payload is copied
// into a single new buffer so the result outlives b.
func DecodeRecord(b []byte) (Record, error) {
	r, err := DecodeRecordView(b)
	if err != nil {
		return Record{}, err
	}
	r.Payload = append(make([]byte, 0, len(r.Payload)), r.Payload...)
	return r, nil
}
