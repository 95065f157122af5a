package namespace

import (
	"bytes"
	"errors"
	"testing"

	pebblestore "github.com/rhurkes/wx-storage/internal/storage/pebble"
)

func openDB(t *testing.T) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEnsureNamespaceIdempotent(t *testing.T) {
	db := openDB(t)

	m1, err := EnsureNamespace(db, Events, 1)
	if err != nil {
		t.Fatalf("ensure1: %v", err)
	}
	m2, err := EnsureNamespace(db, Events, 1)
	if err != nil {
		t.Fatalf("ensure2: %v", err)
	}
	if m1.Name != m2.Name || m1.CreatedAtMs != m2.CreatedAtMs {
		t.Fatalf("not idempotent: %+v vs %+v", m1, m2)
	}
}

func TestEnsureNamespaceVersionMismatch(t *testing.T) {
	db := openDB(t)
	if _, err := EnsureNamespace(db, Events, 1); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := EnsureNamespace(db, Events, 2); !errors.Is(err, ErrFormatVersion) {
		t.Fatalf("expected format version error, got %v", err)
	}
}

func TestNamespacesAreDisjoint(t *testing.T) {
	elo, ehi := Bounds(Events)
	glo, ghi := Bounds(General)
	ek := Key(Events, []byte{0xff, 0xff})
	gk := Key(General, []byte("zzz"))
	if bytes.Compare(ek, elo) < 0 || bytes.Compare(ek, ehi) >= 0 {
		t.Fatalf("events key outside bounds")
	}
	if bytes.Compare(gk, glo) < 0 || bytes.Compare(gk, ghi) >= 0 {
		t.Fatalf("general key outside bounds")
	}
	if bytes.Compare(ek, glo) >= 0 && bytes.Compare(ek, ghi) < 0 {
		t.Fatalf("events key leaks into general")
	}
	if bytes.HasPrefix(MetaKey(Events), elo) || bytes.HasPrefix(MetaKey(General), glo) {
		t.Fatalf("meta keys must not fall inside data ranges")
	}
}

func TestMetaKeyLayout(t *testing.T) {
	if got := string(MetaKey(Events, "seq")); got != "meta/events/seq" {
		t.Fatalf("unexpected meta key %q", got)
	}
}
