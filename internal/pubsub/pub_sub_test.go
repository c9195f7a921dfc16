package pubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEvent EventType = 1

func TestPubSub_PublishReachesSubscriber(t *testing.T) {
	p := NewPubSub()
	defer p.GracefulShutdown()

	ch := make(chan *Event[string], 1)
	Subscribe(p, testEvent, ch, SubscriptionOptions{IsBlocking: false})

	Publish(p, NewEvent(testEvent, "hello"))

	select {
	case ev := <-ch:
		assert.Equal(t, testEvent, ev.Type)
		assert.Equal(t, "hello", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPubSub_FanOutToMultipleSubscribers(t *testing.T) {
	p := NewPubSub()
	defer p.GracefulShutdown()

	ch1 := make(chan *Event[int], 1)
	ch2 := make(chan *Event[int], 1)
	Subscribe(p, testEvent, ch1, SubscriptionOptions{IsBlocking: false})
	Subscribe(p, testEvent, ch2, SubscriptionOptions{IsBlocking: false})

	Publish(p, NewEvent(testEvent, 42))

	for _, ch := range []chan *Event[int]{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, 42, ev.Payload)
		case <-time.After(time.Second):
			t.Fatal("event not delivered to all subscribers")
		}
	}
}

func TestPubSub_EventTypesAreIsolated(t *testing.T) {
	p := NewPubSub()
	defer p.GracefulShutdown()

	const otherEvent EventType = 2

	ch := make(chan *Event[string], 1)
	Subscribe(p, testEvent, ch, SubscriptionOptions{IsBlocking: false})

	Publish(p, NewEvent(otherEvent, "not for us"))

	select {
	case <-ch:
		t.Fatal("received an event of a different type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPubSub_NonBlockingSubscriberDropsWhenFull(t *testing.T) {
	p := NewPubSub()
	defer p.GracefulShutdown()

	// Capacity one and never drained: the second event has nowhere to go.
	ch := make(chan *Event[int], 1)
	Subscribe(p, testEvent, ch, SubscriptionOptions{IsBlocking: false})

	Publish(p, NewEvent(testEvent, 1))
	Publish(p, NewEvent(testEvent, 2))

	// Give the fan-out goroutine time to process both.
	time.Sleep(100 * time.Millisecond)

	ev := <-ch
	assert.Equal(t, 1, ev.Payload)

	select {
	case ev := <-ch:
		t.Fatalf("expected the second event to be dropped, got %v", ev.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPubSub_Unsubscribe(t *testing.T) {
	p := NewPubSub()
	defer p.GracefulShutdown()

	ch := make(chan *Event[string], 1)
	id := Subscribe(p, testEvent, ch, SubscriptionOptions{IsBlocking: false})

	p.Unsubscribe(testEvent, id)

	// The channel is closed by Unsubscribe.
	_, open := <-ch
	require.False(t, open)
}

func TestPubSub_PublishAfterShutdownIsDropped(t *testing.T) {
	p := NewPubSub()

	ch := make(chan *Event[string], 1)
	Subscribe(p, testEvent, ch, SubscriptionOptions{IsBlocking: false})

	p.GracefulShutdown()

	// Must not panic on the closed publish channel.
	Publish(p, NewEvent(testEvent, "late"))

	select {
	case ev, open := <-ch:
		if open {
			t.Fatalf("unexpected delivery after shutdown: %v", ev.Payload)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPubSub_GracefulShutdownDrainsBufferedEvents(t *testing.T) {
	p := NewPubSub()

	ch := make(chan *Event[int], 10)
	Subscribe(p, testEvent, ch, SubscriptionOptions{IsBlocking: false})

	for i := 0; i < 5; i++ {
		Publish(p, NewEvent(testEvent, i))
	}

	p.GracefulShutdown()

	received := 0
	for {
		select {
		case <-ch:
			received++
			if received == 5 {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("only %d of 5 buffered events delivered", received)
		}
	}
}
