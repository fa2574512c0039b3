package eventbus

import (
	"context"
	"testing"
)

type testEvent struct{ N int }
type otherEvent struct{}

func TestPublishSubscribe(t *testing.T) {
	Use(New())
	defer Use(nil)

	var got []int
	unsub := Subscribe(func(_ context.Context, e testEvent) { got = append(got, e.N) })
	Subscribe(func(_ context.Context, _ otherEvent) {})

	Publish(context.Background(), testEvent{N: 1})
	Publish(context.Background(), testEvent{N: 2})
	unsub()
	Publish(context.Background(), testEvent{N: 3})

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2]", got)
	}
}

func TestPanickingSubscriberIsolated(t *testing.T) {
	bus := New()
	Use(bus)
	defer Use(nil)

	var reached bool
	Subscribe(func(context.Context, testEvent) { panic("bad subscriber") })
	Subscribe(func(context.Context, testEvent) { reached = true })

	Publish(context.Background(), testEvent{}) // must not panic
	if !reached {
		t.Fatalf("later subscriber not reached after panic")
	}
	if bus.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", bus.Dropped())
	}
}

func TestPublishWithoutBus(t *testing.T) {
	Use(nil)
	Publish(context.Background(), testEvent{}) // no-op
}
