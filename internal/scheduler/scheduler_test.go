package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"turbine-monitor/internal/aggregation"
)

type fakeProcessor struct {
	mu      sync.Mutex
	windows []time.Time
	onCall  func(int)
}

func (f *fakeProcessor) AggregateWindow(ctx context.Context, windowStart time.Time) (aggregation.WindowResult, error) {
	f.mu.Lock()
	f.windows = append(f.windows, windowStart)
	n := len(f.windows)
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall(n)
	}
	return aggregation.WindowResult{WindowStart: windowStart, AggregatesCreated: 1}, nil
}

func (f *fakeProcessor) seen() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.windows...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBackfillProcessesWindowsInIncreasingOrder(t *testing.T) {
	proc := &fakeProcessor{}
	s := New(proc, time.Hour, 3, discardLogger())
	now := time.Date(2026, 1, 2, 13, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.runBackfill(context.Background())

	windows := proc.seen()
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	want := []time.Time{
		time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC),
	}
	for i, w := range want {
		if !windows[i].Equal(w) {
			t.Fatalf("window %d: expected %v, got %v", i, w, windows[i])
		}
	}
}

func TestBackfillStopsBetweenWindowsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	proc := &fakeProcessor{}
	proc.onCall = func(n int) {
		if n == 1 {
			cancel()
		}
	}
	s := New(proc, time.Hour, 5, discardLogger())
	s.now = func() time.Time { return time.Date(2026, 1, 2, 13, 0, 0, 0, time.UTC) }

	s.runBackfill(ctx)

	if got := len(proc.seen()); got != 1 {
		t.Fatalf("expected cancellation after the in-flight window, got %d windows", got)
	}
}

func TestRunTriggersCompletedWindow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	proc := &fakeProcessor{}
	proc.onCall = func(n int) {
		if n == 1 {
			close(done)
			cancel()
		}
	}
	s := New(proc, 20*time.Millisecond, 0, discardLogger())

	go s.Run(ctx)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler never triggered")
	}

	windows := proc.seen()
	if len(windows) == 0 {
		t.Fatalf("expected at least one window")
	}
	// The trigger always targets the window before the current one.
	if !windows[0].Before(time.Now().UTC()) {
		t.Fatalf("window must be in the past, got %v", windows[0])
	}
}
