package pacer

import "time"

// bucket is a fixed-window token bucket. Refills are lazy and anchored to a
// grid of window boundaries starting at the bucket's creation time, so
// frequent polling never drifts the window.
//
// The bucket has a single owner (the Scheduler, under its mutex); it does no
// locking of its own.
type bucket struct {
	rate        int
	window      time.Duration
	tokens      int
	windowStart time.Time
}

func newBucket(rate int, window time.Duration, now time.Time) *bucket {
	return &bucket{rate: rate, window: window, tokens: rate, windowStart: now}
}

// refill tops the bucket up for every whole window elapsed since the last
// boundary. windowStart advances by whole windows, never to "now".
func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.windowStart)
	if elapsed < b.window {
		return
	}
	periods := elapsed / b.window
	b.windowStart = b.windowStart.Add(periods * b.window)
	// rate tokens per period, capped at rate: one whole period always fills.
	b.tokens = b.rate
}

func (b *bucket) available() int { return b.tokens }

// take consumes one token. Callers check available() first.
func (b *bucket) take() { b.tokens-- }

// untilRefill returns the delay to the next window boundary. Call refill
// first so windowStart is current.
func (b *bucket) untilRefill(now time.Time) time.Duration {
	d := b.windowStart.Add(b.window).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
