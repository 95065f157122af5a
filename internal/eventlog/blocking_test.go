package eventlog

import (
	"context"
	"testing"
	"time"
)

func TestWaitForAppendWakesOnPut(t *testing.T) {
	l, _ := newTestLog(t, Options{})
	woke := make(chan bool, 1)
	ch := l.Appended()
	go func() { woke <- WaitOn(context.Background(), ch, 2*time.Second) }()
	mustPut(t, l, 100, "x")
	if !<-woke {
		t.Fatalf("waiter timed out despite append")
	}
}

func TestWaitForAppendTimeout(t *testing.T) {
	l, _ := newTestLog(t, Options{})
	start := time.Now()
	if l.WaitForAppend(context.Background(), 20*time.Millisecond) {
		t.Fatalf("woke without append")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatalf("returned before timeout")
	}
}

func TestWaitForAppendContextCancel(t *testing.T) {
	l, _ := newTestLog(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if l.WaitForAppend(ctx, 0) {
		t.Fatalf("woke without append")
	}
}
