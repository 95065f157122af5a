package eventlog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rhurkes/wx-storage/internal/namespace"
	pebblestore "github.com/rhurkes/wx-storage/internal/storage/pebble"
)

func openTestDB(t *testing.T, dir string) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	return db
}

func newTestLog(t *testing.T, opts Options) (*Log, *pebblestore.DB) {
	t.Helper()
	db := openTestDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	l, err := OpenLog(db, opts)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	return l, db
}

func mustPut(t *testing.T, l *Log, ts uint64, payload string) Key {
	t.Helper()
	k, err := l.Put(context.Background(), Record{TimestampMicros: ts, Kind: 1, Payload: []byte(payload)})
	if err != nil {
		t.Fatalf("put %d: %v", ts, err)
	}
	return k
}

func TestPutAssignsKeyFromTimestamp(t *testing.T) {
	l, _ := newTestLog(t, Options{})
	k := mustPut(t, l, 1000, "x")
	if k.Timestamp() != 1000 {
		t.Fatalf("key timestamp %d", k.Timestamp())
	}
	k2 := mustPut(t, l, 1000, "y")
	if k2.Seq() <= k.Seq() {
		t.Fatalf("disambiguator not increasing: %s then %s", k, k2)
	}
}

func TestPutRejectsOversizedPayload(t *testing.T) {
	l, _ := newTestLog(t, Options{})
	l.maxPayload = 8
	_, err := l.Put(context.Background(), Record{TimestampMicros: 1, Payload: make([]byte, 9)})
	if !errors.Is(err, ErrEncodingConstraint) {
		t.Fatalf("want ErrEncodingConstraint, got %v", err)
	}
	evs, err := l.Get(context.Background(), ReadOptions{Start: 1})
	if err != nil || len(evs) != 0 {
		t.Fatalf("nothing should be stored: %v %v", evs, err)
	}
}

func TestSequencerSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)
	l, err := OpenLog(db, Options{SequenceBlock: 2})
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	var last Key
	for i := 0; i < 5; i++ {
		last = mustPut(t, l, 1000, "before")
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db = openTestDB(t, dir)
	t.Cleanup(func() { _ = db.Close() })
	l, err = OpenLog(db, Options{SequenceBlock: 2})
	if err != nil {
		t.Fatalf("reopen log: %v", err)
	}
	k := mustPut(t, l, 1000, "after")
	if k.Seq() <= last.Seq() {
		t.Fatalf("disambiguator reused after restart: %s <= %s", k, last)
	}
	evs, err := l.Get(context.Background(), ReadOptions{Start: 1000})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(evs) != 6 || string(evs[5].Record.Payload) != "after" {
		t.Fatalf("want 6 events ending with the new one, got %d", len(evs))
	}
}

func TestConcurrentPutsUniqueKeys(t *testing.T) {
	l, _ := newTestLog(t, Options{SequenceBlock: 16})
	const writers, per = 8, 50
	keys := make(chan Key, writers*per)
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				k, err := l.Put(context.Background(), Record{TimestampMicros: 42})
				if err != nil {
					t.Errorf("put: %v", err)
					return
				}
				keys <- k
			}
		}()
	}
	wg.Wait()
	close(keys)
	seen := map[Key]bool{}
	for k := range keys {
		if seen[k] {
			t.Fatalf("duplicate key %s", k)
		}
		seen[k] = true
	}
	if len(seen) != writers*per {
		t.Fatalf("want %d keys, got %d", writers*per, len(seen))
	}
}

func TestOpenLogIdempotent(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	if _, err := OpenLog(db, Options{}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := OpenLog(db, Options{Now: func() time.Time { return time.Unix(0, 0) }}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
}

func TestOpenLogRejectsFormatMismatch(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	if _, err := namespace.EnsureNamespace(db, namespace.Events, FormatVersion+1); err != nil {
		t.Fatalf("seed meta: %v", err)
	}
	if _, err := OpenLog(db, Options{}); !errors.Is(err, namespace.ErrFormatVersion) {
		t.Fatalf("want ErrFormatVersion, got %v", err)
	}
}

func TestParseCorruptionPolicy(t *testing.T) {
	for in, want := range map[string]CorruptionPolicy{"": AbortOnCorruption, "abort": AbortOnCorruption, "skip": SkipOnCorruption} {
		got, err := ParseCorruptionPolicy(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %v %v", in, got, err)
		}
	}
	if _, err := ParseCorruptionPolicy("ignore"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestAppendStoresBatchInOrder(t *testing.T) {
	l, _ := newTestLog(t, Options{})
	recs := []Record{
		{TimestampMicros: 50, Kind: 1, Payload: []byte("a")},
		{TimestampMicros: 50, Kind: 2, Payload: []byte("b")},
		{TimestampMicros: 10, Kind: 3, Payload: []byte("c")},
	}
	keys, err := l.Append(context.Background(), recs)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(keys) != 3 || keys[0].Seq() >= keys[1].Seq() {
		t.Fatalf("keys not assigned in batch order: %v", keys)
	}
	evs, err := l.Get(context.Background(), ReadOptions{Start: 1})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var kinds []uint16
	for _, e := range evs {
		kinds = append(kinds, e.Record.Kind)
	}
	if len(kinds) != 3 || kinds[0] != 3 || kinds[1] != 1 || kinds[2] != 2 {
		t.Fatalf("unexpected read order %v", kinds)
	}
}

func TestAppendIsAllOrNothing(t *testing.T) {
	l, _ := newTestLog(t, Options{})
	l.maxPayload = 8
	_, err := l.Append(context.Background(), []Record{
		{TimestampMicros: 1, Payload: []byte("ok")},
		{TimestampMicros: 2, Payload: make([]byte, 9)},
	})
	if !errors.Is(err, ErrEncodingConstraint) {
		t.Fatalf("want ErrEncodingConstraint, got %v", err)
	}
	evs, err := l.Get(context.Background(), ReadOptions{Start: 1})
	if err != nil || len(evs) != 0 {
		t.Fatalf("partial batch stored: %v %v", evs, err)
	}
}

func TestPutDoesNotPoolLargeBuffers(t *testing.T) {
	l, _ := newTestLog(t, Options{})
	mustPut(t, l, 1, string(make([]byte, 2*maxPooledBuf)))

	big := make([]byte, 0, 2*maxPooledBuf)
	l.putBuf(&big)
	bp := l.bufPool.Get().(*[]byte)
	if cap(*bp) > maxPooledBuf {
		t.Fatalf("pool retained a %d byte buffer", cap(*bp))
	}
}
