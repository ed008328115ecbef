package auth

import "sync"

// EventType identifies an auth-state transition.
type EventType string

const (
	EventSignedIn         EventType = "SIGNED_IN"
	EventSignedOut        EventType = "SIGNED_OUT"
	EventPasswordRecovery EventType = "PASSWORD_RECOVERY"
)

// Event is one auth-state change pushed to subscribers. Session is nil
// for sign-outs; Token always names the session the event concerns.
type Event struct {
	Type    EventType
	Token   string
	Session *Session
}

// Subscription is a cancellable registration on the auth event stream.
// Unsubscribe must be called on teardown so no callback fires against a
// destroyed consumer.
type Subscription struct {
	broker *Broker
	id     int
}

// Unsubscribe removes the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.broker == nil {
		return
	}
	s.broker.mu.Lock()
	delete(s.broker.subs, s.id)
	s.broker.mu.Unlock()
	s.broker = nil
}

// Broker fans auth events out to subscribers in publish order. Delivery
// is synchronous, so subscribers observe transitions monotonically.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]func(Event))}
}

// Subscribe registers fn for every subsequent event.
func (b *Broker) Subscribe(fn func(Event)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	return &Subscription{broker: b, id: id}
}

// Publish delivers e to every current subscriber.
func (b *Broker) Publish(e Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
