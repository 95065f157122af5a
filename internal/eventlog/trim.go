package eventlog

import (
	"context"
	"time"

	"github.com/rhurkes/wx-storage/internal/namespace"
	logpkg "github.com/rhurkes/wx-storage/pkg/log"
)

// DeleteBefore removes every event with a timestamp strictly below ts using
// a single range tombstone.
func (l *Log) DeleteBefore(ctx context.Context, ts uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ts == 0 {
		return nil
	}
	lower, _ := namespace.Bounds(namespace.Events)
	if err := l.db.DeleteRange(lower, entryKey(EncodeKey(ts, 0))); err != nil {
		return err
	}
	return nil
}

// RunRetention deletes events older than retention every interval until ctx
// is cancelled. A non-positive retention disables it.
func (l *Log) RunRetention(ctx context.Context, retention, interval time.Duration) {
	if retention <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := l.retainOnce(ctx, retention); err != nil && ctx.Err() == nil {
				l.logger.Error("retention pass failed", logpkg.Err(err))
			}
		}
	}
}

func (l *Log) retainOnce(ctx context.Context, retention time.Duration) error {
	cutoff := l.now().Add(-retention).UnixMicro()
	if cutoff <= 0 {
		return nil
	}
	if err := l.DeleteBefore(ctx, uint64(cutoff)); err != nil {
		return err
	}
	// Reclaim space behind the tombstone.
	lower, _ := namespace.Bounds(namespace.Events)
	if err := l.db.CompactRange(lower, entryKey(EncodeKey(uint64(cutoff), 0))); err != nil {
		l.logger.Warn("retention compaction failed", logpkg.Err(err))
	}
	l.logger.Debug("retention pass", logpkg.Int64("cutoff_micros", cutoff))
	return nil
}
