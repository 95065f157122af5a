package eventlog

import (
	"context"
	"time"
)

// Appended returns a channel closed by the next successful Put. Take it
// before reading so an append racing the read is not missed.
func (l *Log) Appended() <-chan struct{} {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()
	return l.notifyCh
}

func (l *Log) notifyAppend() {
	l.notifyMu.Lock()
	close(l.notifyCh)
	l.notifyCh = make(chan struct{})
	l.notifyMu.Unlock()
}

// WaitForAppend blocks until a new append occurs, the timeout elapses or
// ctx is done. It returns true only if woken by an append.
func (l *Log) WaitForAppend(ctx context.Context, timeout time.Duration) bool {
	return WaitOn(ctx, l.Appended(), timeout)
}

// WaitOn waits for a channel taken from Appended. A non-positive timeout
// waits on ctx alone.
func WaitOn(ctx context.Context, ch <-chan struct{}, timeout time.Duration) bool {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	}
}

