package eventlog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rhurkes/wx-storage/internal/namespace"
	pebblestore "github.com/rhurkes/wx-storage/internal/storage/pebble"
	logpkg "github.com/rhurkes/wx-storage/pkg/log"
)

// CorruptionPolicy decides what a range read does with an undecodable value.
type CorruptionPolicy int32

const (
	// AbortOnCorruption fails the whole read on the first bad value.
	AbortOnCorruption CorruptionPolicy = iota
	// SkipOnCorruption logs the bad key and continues.
	SkipOnCorruption
)

// ParseCorruptionPolicy maps abort|skip to a policy.
func ParseCorruptionPolicy(s string) (CorruptionPolicy, error) {
	switch s {
	case "abort", "":
		return AbortOnCorruption, nil
	case "skip":
		return SkipOnCorruption, nil
	default:
		return AbortOnCorruption, fmt.Errorf("unknown corruption policy %q; use abort|skip", s)
	}
}

func (p CorruptionPolicy) String() string {
	if p == SkipOnCorruption {
		return "skip"
	}
	return "abort"
}

// Options configures a Log.
type Options struct {
	// DefaultLookback is substituted when a read has no starting point.
	// Zero means "from the beginning of the namespace".
	DefaultLookback time.Duration
	Corruption      CorruptionPolicy
	// SequenceBlock sizes durable disambiguator reservations.
	SequenceBlock uint64
	Logger        logpkg.Logger
	// Now is overridable in tests.
	Now func() time.Time
}

// Log is the event store over the events namespace.
type Log struct {
	db     *pebblestore.DB
	seq    *Sequencer
	logger logpkg.Logger
	now    func() time.Time
	// maxPayload caps record payloads; MaxPayloadLen outside tests.
	maxPayload uint64

	lookback atomic.Int64 // nanoseconds
	policy   atomic.Int32

	bufPool sync.Pool

	notifyMu sync.Mutex
	notifyCh chan struct{}
}

// OpenLog verifies the namespace format and loads the disambiguator reservation.
func OpenLog(db *pebblestore.DB, opts Options) (*Log, error) {
	if _, err := namespace.EnsureNamespace(db, namespace.Events, FormatVersion); err != nil {
		return nil, err
	}
	seq, err := OpenSequencer(db, opts.SequenceBlock)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	l := &Log{db: db, seq: seq, logger: logger.WithComponent("eventlog"), now: now, notifyCh: make(chan struct{})}
	l.lookback.Store(int64(opts.DefaultLookback))
	l.policy.Store(int32(opts.Corruption))
	l.maxPayload = MaxPayloadLen
	l.bufPool.New = func() any { b := make([]byte, 0, 256); return &b }
	return l, nil
}

// SetDefaultLookback changes the window used when a read has no start.
func (l *Log) SetDefaultLookback(d time.Duration) { l.lookback.Store(int64(d)) }

// DefaultLookback returns the current default window.
func (l *Log) DefaultLookback() time.Duration { return time.Duration(l.lookback.Load()) }

// SetCorruptionPolicy switches between abort and skip for subsequent reads.
func (l *Log) SetCorruptionPolicy(p CorruptionPolicy) { l.policy.Store(int32(p)) }

func (l *Log) corruptionPolicy() CorruptionPolicy { return CorruptionPolicy(l.policy.Load()) }

// maxPooledBuf is the largest encode buffer returned to the pool.
const maxPooledBuf = 64 << 10

func (l *Log) putBuf(bp *[]byte) {
	if cap(*bp) > maxPooledBuf {
		return
	}
	l.bufPool.Put(bp)
}

// Put assigns a disambiguator and durably stores r. The returned key can be
// passed back as ReadOptions.After to resume after this event.
func (l *Log) Put(ctx context.Context, r Record) (Key, error) {
	bp := l.bufPool.Get().(*[]byte)
	defer l.putBuf(bp)

	body, err := appendRecordLimit((*bp)[:0], r, l.maxPayload)
	if err != nil {
		return Key{}, err
	}
	*bp = body

	if err := ctx.Err(); err != nil {
		return Key{}, err
	}
	seq, err := l.seq.Next()
	if err != nil {
		return Key{}, err
	}
	key := EncodeKey(r.TimestampMicros, seq)

	var ekBuf [32]byte
	ek := appendEntryKey(ekBuf[:0], key)
	if err := l.db.Set(ek, body); err != nil {
		return Key{}, fmt.Errorf("%w: put event %s: %v", ErrWriteFailed, key, err)
	}
	l.notifyAppend()
	return key, nil
}

// Append stores recs as one atomic batch and returns their keys in order.
// Either every record is stored or none is.
func (l *Log) Append(ctx context.Context, recs []Record) ([]Key, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	b := l.db.NewBatch()
	defer b.Close()

	keys := make([]Key, len(recs))
	var buf []byte
	for i, r := range recs {
		var err error
		if buf, err = appendRecordLimit(buf[:0], r, l.maxPayload); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		seq, err := l.seq.Next()
		if err != nil {
			return nil, err
		}
		keys[i] = EncodeKey(r.TimestampMicros, seq)
		if err := b.Set(entryKey(keys[i]), buf, nil); err != nil {
			return nil, fmt.Errorf("%w: batch event %s: %v", ErrWriteFailed, keys[i], err)
		}
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: commit batch: %v", ErrWriteFailed, err)
	}
	l.notifyAppend()
	return keys, nil
}
