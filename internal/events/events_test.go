package events

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()

	var got any
	bus.Subscribe(TopicElementInspected, func(payload any) {
		got = payload
	})

	bus.Publish(TopicElementInspected, "payload")
	if got != "payload" {
		t.Errorf("handler received %v, want payload", got)
	}
}

func TestTopicIsolation(t *testing.T) {
	bus := NewBus()

	var calls int
	bus.Subscribe(TopicInspectorCancelled, func(any) { calls++ })

	bus.Publish(TopicElementInspected, nil)
	if calls != 0 {
		t.Error("handler fired for a topic it never subscribed to")
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	var calls int
	unsub := bus.Subscribe(TopicResultReceived, func(any) { calls++ })

	bus.Publish(TopicResultReceived, nil)
	unsub()
	unsub() // second call is a no-op
	bus.Publish(TopicResultReceived, nil)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestMultipleSubscribers(t *testing.T) {
	bus := NewBus()

	var calls int
	for i := 0; i < 3; i++ {
		bus.Subscribe(TopicPlanProgress, func(any) { calls++ })
	}

	bus.Publish(TopicPlanProgress, nil)
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var count atomic.Int64
	bus.Subscribe(TopicInspectionDeleted, func(any) { count.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Publish(TopicInspectionDeleted, nil)
		}()
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe(TopicInspectionDeleted, func(any) {})
			unsub()
		}()
	}
	wg.Wait()

	if count.Load() != 20 {
		t.Errorf("count = %d, want 20", count.Load())
	}
}
