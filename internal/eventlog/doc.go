// Package eventlog implements the time-ordered event store.
//
// # Overview
//
// Events live in the "events" namespace of the shared Pebble instance. Keys
// are 16 bytes, timestamp_be8 | disambiguator_be8, so Pebble's byte-wise
// ordering equals chronological ordering, with same-timestamp events ordered
// by the order their disambiguator was assigned:
//   - e/{ts_be8}{seq_be8}   (entries)
//   - meta/events           (namespace metadata, format version)
//   - meta/events/seq       (durable disambiguator reservation)
//
// Records are stored as a fixed-offset layout with no per-record schema:
//
//	ts(8 BE) | kind(2 BE) | payloadLen(4 BE) | payload
//
// API surface (internal)
//
//	l, _ := OpenLog(db, Options{DefaultLookback: time.Hour})
//	key, _ := l.Put(ctx, Record{TimestampMicros: ts, Payload: p})
//
//	// Ascending read from a timestamp (inclusive) to the end of the namespace.
//	evs, _ := l.Get(ctx, ReadOptions{Start: ts})
//
//	// Resume strictly after a previously returned key.
//	evs, _ = l.Get(ctx, ReadOptions{After: &key})
//
//	// Wire-ready bytes without decode/re-encode: count_be8 | (key | record)*
//	buf, n, _ := l.AppendWire(ctx, nil, ReadOptions{})
//
//	// Drop everything older than a timestamp with one range tombstone.
//	_ = l.DeleteBefore(ctx, cutoff)
//
//	// Block until the next Put or a timeout.
//	woke := l.WaitForAppend(ctx, 5*time.Second)
//
// # Corruption
//
// By default a read aborts with ErrMalformedRecord on the first value that
// fails validation. SkipOnCorruption logs and skips instead; it must be
// selected explicitly.
package eventlog
