package eventlog

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRecordRoundtripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(r)) == r", prop.ForAll(
		func(ts uint64, kind uint16, payload []byte) bool {
			b, err := EncodeRecord(Record{TimestampMicros: ts, Kind: kind, Payload: payload})
			if err != nil {
				return false
			}
			r, err := DecodeRecord(b)
			if err != nil {
				return false
			}
			return r.TimestampMicros == ts && r.Kind == kind && bytes.Equal(r.Payload, payload)
		},
		gen.UInt64(),
		gen.UInt16(),
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}

func TestKeyOrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("byte order equals (ts, seq) order", prop.ForAll(
		func(t1, s1, t2, s2 uint64) bool {
			a, b := EncodeKey(t1, s1), EncodeKey(t2, s2)
			want := 0
			switch {
			case t1 < t2 || (t1 == t2 && s1 < s2):
				want = -1
			case t1 > t2 || (t1 == t2 && s1 > s2):
				want = 1
			}
			return bytes.Compare(a[:], b[:]) == want
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(),
	))

	properties.Property("decimal and big-endian keys sort alike", prop.ForAll(
		func(t1, t2 uint64) bool {
			a, b := EncodeKey(t1, 0), EncodeKey(t2, 0)
			return sign(bytes.Compare(a[:], b[:])) == sign(bytes.Compare(EncodeDecimalKey(t1, 0), EncodeDecimalKey(t2, 0)))
		},
		gen.UInt64(), gen.UInt64(),
	))

	properties.TestingRun(t)
}
