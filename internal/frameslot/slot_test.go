package frameslot

import (
	"sync"
	"testing"
	"time"
)

func TestSetThenGet(t *testing.T) {
	s := New[int]()
	s.Set(7)
	v, ok := s.Get()
	if !ok || v != 7 {
		t.Fatalf("Get() = (%d, %v), want (7, true)", v, ok)
	}
}

func TestOverwriteDropsOldest(t *testing.T) {
	s := New[int]()
	s.Set(1)
	s.Set(2)
	s.Set(3)
	v, ok := s.Get()
	if !ok || v != 3 {
		t.Fatalf("Get() = (%d, %v), want (3, true): overwrite should drop older values", v, ok)
	}
}

func TestGetBlocksUntilSet(t *testing.T) {
	s := New[string]()
	done := make(chan string, 1)
	go func() {
		v, ok := s.Get()
		if ok {
			done <- v
		} else {
			done <- "<closed>"
		}
	}()
	time.Sleep(10 * time.Millisecond)
	s.Set("hello")
	select {
	case got := <-done:
		if got != "hello" {
			t.Fatalf("got %q, want hello", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Get did not unblock after Set")
	}
}

func TestCloseWakesBlockedGet(t *testing.T) {
	s := New[int]()
	var wg sync.WaitGroup
	results := make(chan bool, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := s.Get()
			results <- ok
		}()
	}
	time.Sleep(10 * time.Millisecond)
	s.Close()
	wg.Wait()
	close(results)
	for ok := range results {
		if ok {
			t.Fatalf("expected Get to report closed (false) after Close")
		}
	}
}

func TestSetAfterCloseIsNoop(t *testing.T) {
	s := New[int]()
	s.Close()
	s.Set(99)
	_, ok := s.Get()
	if ok {
		t.Fatalf("expected closed slot to stay closed after a post-close Set")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := New[int]()
	s.Close()
	s.Close()
	_, ok := s.Get()
	if ok {
		t.Fatalf("expected closed slot")
	}
}

func TestCloseDiscardsPendingValue(t *testing.T) {
	s := New[int]()
	s.Set(42)
	s.Close()
	v, ok := s.Get()
	if ok {
		t.Fatalf("Get() = (%d, %v), want (0, false): Close must discard a pending unread value", v, ok)
	}
}
