package eventlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/rhurkes/wx-storage/internal/namespace"
	logpkg "github.com/rhurkes/wx-storage/pkg/log"
)

// ErrStopScan may be returned by a Scan callback to end iteration early
// without error.
var ErrStopScan = errors.New("stop scan")

// ReadOptions selects the starting point of a range read.
//
// When After is set the read resumes strictly after that key and Start is
// ignored. Otherwise Start is an inclusive timestamp; zero means the
// configured default lookback window.
type ReadOptions struct {
	Start uint64
	After *Key
	// Limit caps the number of events returned; zero is unlimited.
	Limit int
}

// Event is a stored record paired with its key.
type Event struct {
	Key    Key
	Record Record
}

// lowerBound resolves opts into the first engine key to visit. Resuming
// after the largest key yields the namespace upper bound, an empty range.
func (l *Log) lowerBound(opts ReadOptions) []byte {
	if opts.After != nil {
		next, ok := opts.After.Successor()
		if !ok {
			_, upper := namespace.Bounds(namespace.Events)
			return upper
		}
		return entryKey(next)
	}
	start := opts.Start
	if start == 0 {
		start = l.defaultStart()
	}
	return entryKey(EncodeKey(start, 0))
}

func (l *Log) defaultStart() uint64 {
	lookback := l.DefaultLookback()
	if lookback <= 0 {
		return 0
	}
	now := l.now().UnixMicro()
	from := now - lookback.Microseconds()
	if from < 0 {
		return 0
	}
	return uint64(from)
}

// scanRaw walks the events namespace from opts' start over a snapshot,
// handing fn the event key and the validated record bytes. Both slices are
// only valid for the duration of the call.
func (l *Log) scanRaw(ctx context.Context, opts ReadOptions, fn func(k Key, value []byte) error) error {
	_, upper := namespace.Bounds(namespace.Events)
	snap := l.db.NewSnapshot()
	defer snap.Close()

	iter, err := snap.NewIter(&pebble.IterOptions{LowerBound: l.lowerBound(opts), UpperBound: upper})
	if err != nil {
		return err
	}
	defer iter.Close()

	policy := l.corruptionPolicy()
	began := time.Now()
	bytes, n := 0, 0
	for ok := iter.First(); ok; ok = iter.Next() {
		if n&0xff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		k, err := keyFromEntry(iter.Key())
		if err != nil {
			if policy == SkipOnCorruption {
				l.logger.Warn("skipping foreign key in events namespace", logpkg.Int("len", len(iter.Key())))
				continue
			}
			return err
		}
		value := iter.Value()
		if err := ValidateRecord(value); err != nil {
			if policy == SkipOnCorruption {
				l.logger.Warn("skipping malformed event", logpkg.Str("key", k.String()), logpkg.Err(err))
				continue
			}
			return fmt.Errorf("event %s: %w", k, err)
		}
		if err := fn(k, value); err != nil {
			if errors.Is(err, ErrStopScan) {
				break
			}
			return err
		}
		bytes += len(value)
		n++
		if opts.Limit > 0 && n >= opts.Limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return err
	}
	l.db.ObserveScan(time.Since(began), bytes)
	return nil
}

// Scan calls fn for each event in ascending key order. The Record payload
// aliases engine memory and must be copied if retained past fn.
func (l *Log) Scan(ctx context.Context, opts ReadOptions, fn func(Event) error) error {
	return l.scanRaw(ctx, opts, func(k Key, value []byte) error {
		r, err := DecodeRecordView(value)
		if err != nil {
			return err
		}
		return fn(Event{Key: k, Record: r})
	})
}

// Get returns the events selected by opts with owned payloads.
func (l *Log) Get(ctx context.Context, opts ReadOptions) ([]Event, error) {
	var out []Event
	err := l.scanRaw(ctx, opts, func(k Key, value []byte) error {
		r, err := DecodeRecord(value)
		if err != nil {
			return err
		}
		out = append(out, Event{Key: k, Record: r})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AppendWire appends the GetEvents response body for opts to dst:
//
//	count u64 BE | count x (key16 | record)
//
// Record bytes are copied verbatim after validation. It returns the extended
// buffer and the number of events written. On error dst is returned
// truncated to its original length.
func (l *Log) AppendWire(ctx context.Context, dst []byte, opts ReadOptions) ([]byte, int, error) {
	base := len(dst)
	dst = append(dst, 0, 0, 0, 0, 0, 0, 0, 0)
	n := 0
	err := l.scanRaw(ctx, opts, func(k Key, value []byte) error {
		dst = append(dst, k[:]...)
		dst = append(dst, value...)
		n++
		return nil
	})
	if err != nil {
		return dst[:base], 0, err
	}
	binary.BigEndian.PutUint64(dst[base:], uint64(n))
	return dst, n, nil
}

// DecodeWire parses a body produced by AppendWire. Payloads alias b.
func DecodeWire(b []byte) ([]Event, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("%w: missing event count", ErrMalformedRecord)
	}
	count := binary.BigEndian.Uint64(b)
	b = b[8:]
	// Every event needs at least a key and a header.
	if count > uint64(len(b)/(KeyLen+HeaderLen)) {
		return nil, fmt.Errorf("%w: count %d exceeds body", ErrMalformedRecord, count)
	}
	out := make([]Event, 0, count)
	for i := uint64(0); i < count; i++ {
		if len(b) < KeyLen {
			return nil, fmt.Errorf("%w: truncated key at event %d", ErrMalformedRecord, i)
		}
		k, _ := ParseKey(b[:KeyLen])
		b = b[KeyLen:]
		r, err := DecodeRecordView(b)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		b = b[r.EncodedLen():]
		out = append(out, Event{Key: k, Record: r})
	}
	if len(b) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedRecord, len(b))
	}
	return out, nil
}

// Stats summarizes the events namespace.
type Stats struct {
	Count       uint64 `json:"count"`
	Bytes       uint64 `json:"bytes"`
	Malformed   uint64 `json:"malformed"`
	FirstMicros uint64 `json:"firstMicros"`
	LastMicros  uint64 `json:"lastMicros"`
}

// Stats walks the whole namespace. Malformed values are counted, not fatal.
func (l *Log) Stats(ctx context.Context) (Stats, error) {
	lower, upper := namespace.Bounds(namespace.Events)
	snap := l.db.NewSnapshot()
	defer snap.Close()
	iter, err := snap.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return Stats{}, err
	}
	defer iter.Close()

	var s Stats
	for ok := iter.First(); ok; ok = iter.Next() {
		if s.Count&0xff == 0 {
			if err := ctx.Err(); err != nil {
				return Stats{}, err
			}
		}
		k, err := keyFromEntry(iter.Key())
		if err != nil || ValidateRecord(iter.Value()) != nil {
			s.Malformed++
			continue
		}
		if s.Count == 0 {
			s.FirstMicros = k.Timestamp()
		}
		s.LastMicros = k.Timestamp()
		s.Count++
		s.Bytes += uint64(len(iter.Value()))
	}
	return s, iter.Error()
}
