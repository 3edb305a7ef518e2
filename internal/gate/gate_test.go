package gate

import (
	"context"
	"testing"
	"time"
)

func TestAcquireReleaseBasic(t *testing.T) {
	g := New(2)
	ctx := context.Background()
	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if g.InUse() != 2 {
		t.Fatalf("InUse() = %d, want 2", g.InUse())
	}
	g.Release()
	if g.InUse() != 1 {
		t.Fatalf("InUse() = %d, want 1 after release", g.InUse())
	}
}

func TestAcquireBlocksAtCapacity(t *testing.T) {
	g := New(1)
	ctx := context.Background()
	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := g.Acquire(ctxTimeout); err == nil {
		t.Fatalf("expected Acquire to block and time out at capacity")
	}
}

func TestAcquireUnblocksAfterRelease(t *testing.T) {
	g := New(1)
	ctx := context.Background()
	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- g.Acquire(ctx) }()
	time.Sleep(10 * time.Millisecond)
	g.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("second Acquire failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second Acquire never unblocked after Release")
	}
}

func TestCapacityDefaultsWhenNonPositive(t *testing.T) {
	g := New(0)
	if g.Capacity() != 1 {
		t.Fatalf("Capacity() = %d, want 1 for non-positive input", g.Capacity())
	}
}
