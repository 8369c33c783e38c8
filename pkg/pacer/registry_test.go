package pacer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func mustNewRegistry(t *testing.T, opts Options) *Registry {
	t.Helper()
	r, err := NewRegistry(opts)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestRegistryGetIsStable(t *testing.T) {
	t.Parallel()
	r := mustNewRegistry(t, Options{})
	if r.Get("a") != r.Get("a") {
		t.Fatal("Get must return the same scheduler for the same key")
	}
	if r.Get("a") == r.Get("b") {
		t.Fatal("distinct keys must get distinct schedulers")
	}
	if got := r.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestRegistryCrossKeyIndependence(t *testing.T) {
	t.Parallel()
	r := mustNewRegistry(t, Options{Concurrency: Bound(1)})

	fnA, startedA, releaseA := blocker()
	fnB, startedB, releaseB := blocker()
	ta := r.Call("a", fnA, SubmitOptions{})
	tb := r.Call("b", fnB, SubmitOptions{})

	// Both admitted at once: capacity is per key.
	for name, ch := range map[string]chan struct{}{"a": startedA, "b": startedB} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("key %s never admitted its operation", name)
		}
	}

	close(releaseA)
	close(releaseB)
	waitDone(t, ta)
	waitDone(t, tb)
}

func TestRegistryDeleteAbsent(t *testing.T) {
	t.Parallel()
	r := mustNewRegistry(t, Options{})
	if r.Delete("ghost") {
		t.Fatal("Delete of a nonexistent key must return false")
	}
	if got := r.Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
}

func TestRegistryDeleteDrainsQueue(t *testing.T) {
	t.Parallel()
	r := mustNewRegistry(t, Options{Concurrency: Bound(1)})

	fn, started, release := blocker()
	bt := r.Call("k", fn, SubmitOptions{})
	<-started
	queued := r.Call("k", func(ctx context.Context) (any, error) { return nil, nil }, SubmitOptions{})

	old := r.Get("k")
	if !r.Delete("k") {
		t.Fatal("Delete = false, want true")
	}
	if _, err := waitDone(t, queued); !errors.Is(err, ErrQueueCleared) {
		t.Fatalf("queued err = %v, want ErrQueueCleared", err)
	}
	if got := r.Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
	if r.Get("k") == old {
		t.Fatal("Get after Delete must create a fresh scheduler")
	}

	close(release)
	waitDone(t, bt)
}

func TestRegistryClear(t *testing.T) {
	t.Parallel()
	r := mustNewRegistry(t, Options{Concurrency: Bound(1)})

	fn, started, release := blocker()
	bt := r.Call("a", fn, SubmitOptions{})
	<-started
	queued := r.Call("a", func(ctx context.Context) (any, error) { return nil, nil }, SubmitOptions{})
	r.Get("b")

	r.Clear()
	if got := r.Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
	if _, err := waitDone(t, queued); !errors.Is(err, ErrQueueCleared) {
		t.Fatalf("queued err = %v, want ErrQueueCleared", err)
	}

	close(release)
	waitDone(t, bt)
}
