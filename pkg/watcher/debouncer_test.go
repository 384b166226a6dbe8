package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func next(t *testing.T, ch <-chan ChangeEvent, within time.Duration) ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return ev
	case <-time.After(within):
		t.Fatal("Timeout waiting for event")
	}
	return ChangeEvent{}
}

func TestDebouncerBatchesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)
	d.Start(ctx)

	input <- ChangeEvent{Paths: []string{"/w/pom.xml"}}
	input <- ChangeEvent{Paths: []string{"/w/pom.xml", "/w/parent.xml"}}
	input <- ChangeEvent{Paths: []string{"/w/pom.xml"}}

	ev := next(t, d.Output(), time.Second)
	if diff := cmp.Diff([]string{"/w/pom.xml", "/w/parent.xml"}, ev.Paths); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}

	select {
	case ev := <-d.Output():
		t.Errorf("Unexpected second batch: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerMaxWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 80*time.Millisecond, 150*time.Millisecond)
	d.Start(ctx)

	// Keep the input busy for longer than maxWait without a quiet period
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case input <- ChangeEvent{Paths: []string{"/w/pom.xml"}}:
				case <-stop:
					return
				}
			}
		}
	}()
	defer close(stop)

	start := time.Now()
	next(t, d.Output(), time.Second)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("batch emitted after %v, expected near maxWait", elapsed)
	}
}

func TestDebouncerFlushesOnInputClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)
	d.Start(ctx)

	input <- ChangeEvent{Paths: []string{"/w/pom.xml"}}
	close(input)

	ev := next(t, d.Output(), time.Second)
	if len(ev.Paths) != 1 {
		t.Errorf("Paths = %v", ev.Paths)
	}
	if _, ok := <-d.Output(); ok {
		t.Error("Expected output to be closed")
	}
}

func TestDebouncerClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDebouncer(make(chan ChangeEvent), time.Hour, time.Hour)
	d.Start(ctx)
	cancel()

	select {
	case _, ok := <-d.Output():
		if ok {
			t.Error("Expected closed output")
		}
	case <-time.After(time.Second):
		t.Fatal("output not closed after cancel")
	}
}
