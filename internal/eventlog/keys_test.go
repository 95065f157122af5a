package eventlog

import (
	"bytes"
	"errors"
	"testing"
)

func TestKeyRoundtrip(t *testing.T) {
	k := EncodeKey(1234, 56)
	ts, seq, err := DecodeKey(k[:])
	if err != nil || ts != 1234 || seq != 56 {
		t.Fatalf("decode: %d %d %v", ts, seq, err)
	}
	if k.Timestamp() != 1234 || k.Seq() != 56 {
		t.Fatalf("accessors: %s", k)
	}
	if _, _, err := DecodeKey(k[:15]); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("want ErrInvalidKey, got %v", err)
	}
}

func TestKeyOrdering(t *testing.T) {
	pairs := [][2][2]uint64{
		{{9, 0}, {10, 0}},
		{{99, 5}, {100, 0}},
		{{255, 0}, {256, 0}},
		{{1000, 1}, {1000, 2}},
		{{1<<32 - 1, 0}, {1 << 32, 0}},
		{{1000, ^uint64(0)}, {1001, 0}},
	}
	for _, p := range pairs {
		a := EncodeKey(p[0][0], p[0][1])
		b := EncodeKey(p[1][0], p[1][1])
		if bytes.Compare(a[:], b[:]) >= 0 {
			t.Fatalf("%s should sort before %s", a, b)
		}
	}
}

func TestKeySuccessor(t *testing.T) {
	k := EncodeKey(10, 3)
	if s, ok := k.Successor(); !ok || s.Timestamp() != 10 || s.Seq() != 4 {
		t.Fatalf("successor: %s %v", s, ok)
	}
	k = EncodeKey(10, ^uint64(0))
	if s, ok := k.Successor(); !ok || s.Timestamp() != 11 || s.Seq() != 0 {
		t.Fatalf("successor at seq max: %s %v", s, ok)
	}
	k = EncodeKey(^uint64(0), ^uint64(0))
	if s, ok := k.Successor(); ok {
		t.Fatalf("largest key has no successor, got %s", s)
	}
}

func TestDecimalKeyMatchesBigEndianOrder(t *testing.T) {
	values := []uint64{0, 1, 9, 10, 99, 100, 999, 1000, 1<<32 - 1, 1 << 32, 9_999_999_999_999_999, 10_000_000_000_000_000, ^uint64(0)}
	for i := range values {
		for j := range values {
			da := EncodeDecimalKey(values[i], 1)
			db := EncodeDecimalKey(values[j], 0)
			ba := EncodeKey(values[i], 1)
			bb := EncodeKey(values[j], 0)
			if sign(bytes.Compare(da, db)) != sign(bytes.Compare(ba[:], bb[:])) {
				t.Fatalf("order differs for %d vs %d", values[i], values[j])
			}
		}
	}
}

func TestDecimalKeyMigrate(t *testing.T) {
	d := EncodeDecimalKey(1000, 42)
	if len(d) != DecimalKeyLen {
		t.Fatalf("decimal key len %d", len(d))
	}
	if string(d) != "00000000000000001000/00000000000000000042" {
		t.Fatalf("decimal layout %q", d)
	}
	k, err := MigrateDecimalKey(d)
	if err != nil || k != EncodeKey(1000, 42) {
		t.Fatalf("migrate: %s %v", k, err)
	}
	bad := append([]byte{}, d...)
	bad[3] = 'x'
	if _, err := MigrateDecimalKey(bad); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("want ErrInvalidKey, got %v", err)
	}
	if _, err := MigrateDecimalKey(d[:10]); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("want ErrInvalidKey for short key, got %v", err)
	}
}

func TestEntryKeyRoundtrip(t *testing.T) {
	k := EncodeKey(7, 8)
	ek := entryKey(k)
	if len(ek) != entryKeyLen || !bytes.HasPrefix(ek, entryPrefix) {
		t.Fatalf("entry key %x", ek)
	}
	got, err := keyFromEntry(ek)
	if err != nil || got != k {
		t.Fatalf("keyFromEntry: %s %v", got, err)
	}
}

func sign(c int) int {
	switch {
	case c < 0:
		return -1
	case c > 0:
		return 1
	}
	return 0
}
