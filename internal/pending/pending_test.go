package pending

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	c := NewCoordinator[string]()
	ch := c.Start()

	if !c.Active() {
		t.Error("coordinator should be active after Start")
	}
	c.Resolve("result")

	out := <-ch
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.Value != "result" {
		t.Errorf("value = %q, want %q", out.Value, "result")
	}
	if c.Active() {
		t.Error("coordinator should be idle after resolution")
	}
}

func TestSupersede(t *testing.T) {
	c := NewCoordinator[int]()
	first := c.Start()
	second := c.Start()

	out := <-first
	if !errors.Is(out.Err, ErrSuperseded) {
		t.Errorf("first waiter error = %v, want ErrSuperseded", out.Err)
	}

	c.Resolve(42)
	out = <-second
	if out.Err != nil || out.Value != 42 {
		t.Errorf("second waiter got (%d, %v), want (42, nil)", out.Value, out.Err)
	}
}

func TestCancelCarriesReason(t *testing.T) {
	c := NewCoordinator[string]()
	ch := c.Start()

	c.Cancel("escape pressed")

	out := <-ch
	if !errors.Is(out.Err, ErrCancelled) {
		t.Fatalf("error = %v, want ErrCancelled", out.Err)
	}
	if !strings.Contains(out.Err.Error(), "escape pressed") {
		t.Errorf("error %q should carry the reason", out.Err)
	}
}

func TestResolveWithoutWaiter(t *testing.T) {
	c := NewCoordinator[string]()
	// Must not panic or block.
	c.Resolve("dropped")
	c.Cancel("dropped")

	ch := c.Start()
	c.Resolve("kept")
	out := <-ch
	if out.Value != "kept" {
		t.Errorf("value = %q, want %q", out.Value, "kept")
	}
}

func TestTimeout(t *testing.T) {
	c := NewCoordinatorTimeout[string](20 * time.Millisecond)
	ch := c.Start()

	select {
	case out := <-ch:
		if !errors.Is(out.Err, ErrTimeout) {
			t.Errorf("error = %v, want ErrTimeout", out.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout never fired")
	}
	if c.Active() {
		t.Error("coordinator should be idle after timeout")
	}
}

func TestSupersedeStopsOldTimer(t *testing.T) {
	c := NewCoordinatorTimeout[string](30 * time.Millisecond)
	c.Start()

	// Superseding restarts the timeout window for the new waiter.
	time.Sleep(20 * time.Millisecond)
	second := c.Start()
	time.Sleep(15 * time.Millisecond)
	c.Resolve("in time")

	out := <-second
	if out.Err != nil {
		t.Fatalf("second waiter should not inherit the first timer: %v", out.Err)
	}
	if out.Value != "in time" {
		t.Errorf("value = %q, want %q", out.Value, "in time")
	}
}

func TestWaitContextCancel(t *testing.T) {
	c := NewCoordinator[string]()
	ch := c.Start()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Wait(ctx, ch)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}

	// The abandoned waiter is superseded by the next request, not leaked.
	next := c.Start()
	c.Resolve("ok")
	if v, err := Wait(context.Background(), next); err != nil || v != "ok" {
		t.Errorf("next waiter got (%q, %v), want (ok, nil)", v, err)
	}
}

func TestConcurrentStartResolve(t *testing.T) {
	c := NewCoordinator[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch := c.Start()
			go func() { <-ch }()
		}()
		go func() {
			defer wg.Done()
			c.Resolve(1)
		}()
	}
	wg.Wait()
}
