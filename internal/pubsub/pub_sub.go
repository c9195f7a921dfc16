package pubsub

import (
	"log"
	"sync"
	"sync/atomic"
)

// EventType identifies the kind of event subscribers are listening for. Packages declare their own
// event constants based on this type.
type EventType int

// SubscriptionOptions configures the delivery behavior for a single subscription.
type SubscriptionOptions struct {
	// If true, the broker blocks until the subscriber's channel accepts the event. This guarantees
	// delivery but a slow subscriber stalls the whole bus, so it should generally stay false.
	IsBlocking bool
}

// SubscriberID identifies one subscription. It is returned by Subscribe and required to Unsubscribe.
type SubscriberID uint64

var nextSubscriberID uint64

// Event is a typed event. Each instantiation of T is a distinct concrete type, so subscribers get
// compile-time safety on their payloads.
type Event[T any] struct {
	Type    EventType
	Payload T
}

func NewEvent[T any](eventType EventType, payload T) *Event[T] {
	return &Event[T]{Type: eventType, Payload: payload}
}

// subscriber is the type-erased registry entry. Channels of different Event[T] types cannot share a
// map, so the registry stores closures that capture the typed channel instead: sendFunc asserts the
// payload back to T and delivers it, closeFunc closes the captured channel on Unsubscribe.
type subscriber struct {
	sendFunc  func(eventType EventType, payload any) bool
	closeFunc func()

	Options    SubscriptionOptions
	NumDropped uint64
}

// PubSubClient is a thread-safe publish-subscribe broker. A single run() goroutine fans events out
// to every subscriber registered for the event's type.
type PubSubClient struct {
	mu sync.RWMutex
	wg sync.WaitGroup

	registry map[EventType]map[SubscriberID]*subscriber

	// publishChan decouples Publish from the fan-out loop: the buffer lets Publish return
	// immediately and lets in-flight events drain during GracefulShutdown.
	publishChan chan struct {
		eventType EventType
		payload   any
	}

	shuttingDown atomic.Bool
}

// Subscribe registers ch to receive events of the given type. The caller owns the channel and picks
// its buffer size.
//
// This is a free function because Go does not allow methods to declare their own type parameters,
// and PubSubClient itself is not generic.
func Subscribe[T any](p *PubSubClient, eventType EventType, ch chan *Event[T], opts SubscriptionOptions) SubscriberID {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := SubscriberID(atomic.AddUint64(&nextSubscriberID, 1))

	sub := &subscriber{
		Options: opts,
		sendFunc: func(evType EventType, payload any) bool {
			typedPayload, ok := payload.(T)
			if !ok {
				log.Printf("[PubSubClient] Warning: type mismatch for event %v. Expected %T, got %T",
					evType, *new(T), payload)
				return false
			}

			event := &Event[T]{Type: evType, Payload: typedPayload}

			if opts.IsBlocking {
				ch <- event
				return true
			}
			select {
			case ch <- event:
				return true
			default:
				// Full channel on a non-blocking subscriber: drop rather than stall the bus.
				return false
			}
		},
		closeFunc: func() {
			close(ch)
		},
	}

	if _, ok := p.registry[eventType]; !ok {
		p.registry[eventType] = make(map[SubscriberID]*subscriber)
	}
	p.registry[eventType][id] = sub
	return id
}

// Unsubscribe removes a subscription and closes its channel.
func (p *PubSubClient) Unsubscribe(eventType EventType, id SubscriberID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	subscribers, ok := p.registry[eventType]
	if !ok {
		return
	}
	sub, ok := subscribers[id]
	if !ok {
		return
	}

	delete(subscribers, id)
	sub.closeFunc()
	if len(subscribers) == 0 {
		delete(p.registry, eventType)
	}
}

// Publish broadcasts an event to all subscribers of its type.
//
// The RLock prevents a send on a closed channel: shutdown needs the write lock to close
// publishChan, and the write lock cannot be acquired while any reader holds an RLock, so the
// channel cannot be closed between the shuttingDown check and the send.
func Publish[T any](p *PubSubClient, event *Event[T]) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.shuttingDown.Load() {
		log.Printf("[PubSubClient] Warning: dropping event %v, broker is shutting down.", event.Type)
		return
	}

	p.publishChan <- struct {
		eventType EventType
		payload   any
	}{
		eventType: event.Type,
		payload:   event.Payload,
	}
}

// ForceShutdown stops accepting publishes and closes the publish channel immediately. It does not
// wait for buffered events to drain.
func (p *PubSubClient) ForceShutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shuttingDown.Load() {
		return
	}
	p.shuttingDown.Store(true)
	close(p.publishChan)
}

// GracefulShutdown rejects new publishes, drains the buffered events, and waits for the fan-out
// goroutine to exit.
func (p *PubSubClient) GracefulShutdown() {
	p.mu.Lock()
	if p.shuttingDown.Load() {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}

	p.shuttingDown.Store(true)
	close(p.publishChan)
	p.mu.Unlock()

	p.wg.Wait()
}

// run is the fan-out goroutine. It exits when publishChan is closed and drained.
func (p *PubSubClient) run() {
	defer p.wg.Done()

	for msg := range p.publishChan {
		p.mu.RLock()
		if subscribers, ok := p.registry[msg.eventType]; ok {
			for id, sub := range subscribers {
				sent := sub.sendFunc(msg.eventType, msg.payload)
				if !sent && !sub.Options.IsBlocking {
					atomic.AddUint64(&sub.NumDropped, 1)
					log.Printf("[PubSubClient] Dropped event %v for subscriber %d (channel full). Total dropped: %d",
						msg.eventType, id, atomic.LoadUint64(&sub.NumDropped))
				}
			}
		}
		p.mu.RUnlock()
	}
}

func NewPubSub() *PubSubClient {
	p := &PubSubClient{
		registry: make(map[EventType]map[SubscriberID]*subscriber),
		publishChan: make(chan struct {
			eventType EventType
			payload   any
		}, 100),
	}

	p.wg.Add(1)
	go p.run()

	return p
}
