package event

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func testBus() *Bus {
	return NewBus(zerolog.Nop())
}

func TestBus_PublishSubscribe(t *testing.T) {
	b := testBus()

	var received Event
	b.Subscribe("dispatch", TopicMessageCreated, func(e Event) {
		received = e
	})

	b.Publish("ledger", TopicMessageCreated, map[string]interface{}{"message_id": "123"})

	if received.Topic != TopicMessageCreated {
		t.Fatalf("expected topic %s, got %s", TopicMessageCreated, received.Topic)
	}
	if received.Source != "ledger" {
		t.Fatalf("expected source ledger, got %s", received.Source)
	}
	if received.Payload["message_id"] != "123" {
		t.Fatalf("expected message_id 123, got %v", received.Payload["message_id"])
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	b := testBus()

	var count int
	var mu sync.Mutex

	handler := func(_ Event) {
		mu.Lock()
		count++
		mu.Unlock()
	}

	b.Subscribe("a", TopicJobStatusChanged, handler)
	b.Subscribe("b", TopicJobStatusChanged, handler)
	b.Subscribe("c", TopicJobStatusChanged, handler)

	b.Publish("jobs", TopicJobStatusChanged, nil)

	if count != 3 {
		t.Fatalf("expected 3 handlers called, got %d", count)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := testBus()

	var called bool
	b.Subscribe("a", "test.event", func(_ Event) {
		called = true
	})

	b.Unsubscribe("a")
	b.Publish("source", "test.event", nil)

	if called {
		t.Fatal("expected handler NOT to be called after unsubscribe")
	}
}

func TestBus_NoSubscribers(t *testing.T) {
	b := testBus()

	// Should not panic
	b.Publish("source", "no.subscribers", nil)
}

func TestBus_HandlerPanic(t *testing.T) {
	b := testBus()

	var secondCalled bool
	b.Subscribe("bad", "test.event", func(_ Event) {
		panic("boom")
	})
	b.Subscribe("good", "test.event", func(_ Event) {
		secondCalled = true
	})

	b.Publish("source", "test.event", nil)

	if !secondCalled {
		t.Fatal("expected second handler to run despite first panicking")
	}
}
