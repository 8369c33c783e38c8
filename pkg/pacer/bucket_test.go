package pacer

import (
	"testing"
	"time"
)

func TestBucketLazyRefillOnGrid(t *testing.T) {
	t.Parallel()
	start := time.Unix(1700000000, 0)
	b := newBucket(3, 100*time.Millisecond, start)

	if got := b.available(); got != 3 {
		t.Fatalf("available() = %d, want 3", got)
	}
	b.take()
	b.take()
	b.take()

	// Mid-window: no refill.
	b.refill(start.Add(50 * time.Millisecond))
	if got := b.available(); got != 0 {
		t.Fatalf("available() mid-window = %d, want 0", got)
	}
	if got := b.untilRefill(start.Add(50 * time.Millisecond)); got != 50*time.Millisecond {
		t.Fatalf("untilRefill = %v, want 50ms", got)
	}

	// 2.5 windows later: topped up, and the boundary stays on the grid
	// (start+200ms), not reset to "now".
	now := start.Add(250 * time.Millisecond)
	b.refill(now)
	if got := b.available(); got != 3 {
		t.Fatalf("available() after refill = %d, want 3", got)
	}
	if got := b.untilRefill(now); got != 50*time.Millisecond {
		t.Fatalf("untilRefill after refill = %v, want 50ms", got)
	}
}

func TestBucketRefillIdempotentWithinWindow(t *testing.T) {
	t.Parallel()
	start := time.Unix(1700000000, 0)
	b := newBucket(2, time.Second, start)
	b.take()

	// Frequent polling inside one window must not change anything.
	for i := 1; i <= 9; i++ {
		b.refill(start.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	if got := b.available(); got != 1 {
		t.Fatalf("available() = %d, want 1", got)
	}

	b.refill(start.Add(time.Second))
	if got := b.available(); got != 2 {
		t.Fatalf("available() after boundary = %d, want 2", got)
	}
}
