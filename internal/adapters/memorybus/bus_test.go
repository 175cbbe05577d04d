package memorybus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()

	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish("session.generated", []byte(`{"id":"x"}`))

	select {
	case evt := <-ch:
		if evt.Topic != "session.generated" {
			t.Fatalf("topic = %q", evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	bus := New()
	defer bus.Close()

	ch, cancel := bus.Subscribe()
	cancel()

	bus.Publish("session.generated", nil)
	if _, ok := <-ch; ok {
		t.Fatal("cancelled subscriber still received an event")
	}
}

func TestCloseUnblocksSubscribers(t *testing.T) {
	bus := New()
	ch, _ := bus.Subscribe()
	bus.Close()

	if _, ok := <-ch; ok {
		t.Fatal("channel not closed")
	}
	// Publish after close is a no-op, not a panic.
	bus.Publish("session.generated", nil)

	ch2, cancel := bus.Subscribe()
	defer cancel()
	if _, ok := <-ch2; ok {
		t.Fatal("subscribe after close must return a closed channel")
	}
}
