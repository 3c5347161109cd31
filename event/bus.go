package event

// Handler receives published events.
type Handler func(Event)

// Publisher is the write side handed to producers.
type Publisher interface {
	Publish(Event)
}

type subscription struct {
	id      int
	handler Handler
}

// Bus fans events out to subscribers synchronously, in subscription order.
// Each simulation owns its own Bus; there is no process-wide dispatcher.
type Bus struct {
	nextID   int
	byType   map[Type][]subscription
	wildcard []subscription
}

func NewBus() *Bus {
	return &Bus{byType: make(map[Type][]subscription)}
}

// Subscribe registers h for events of type t and returns an unsubscribe func.
func (b *Bus) Subscribe(t Type, h Handler) func() {
	if b == nil || h == nil {
		return func() {}
	}
	if b.byType == nil {
		b.byType = make(map[Type][]subscription)
	}
	b.nextID++
	id := b.nextID
	b.byType[t] = append(b.byType[t], subscription{id: id, handler: h})
	return func() {
		b.byType[t] = removeSubscription(b.byType[t], id)
	}
}

// SubscribeAll registers h for every event type.
func (b *Bus) SubscribeAll(h Handler) func() {
	if b == nil || h == nil {
		return func() {}
	}
	b.nextID++
	id := b.nextID
	b.wildcard = append(b.wildcard, subscription{id: id, handler: h})
	return func() {
		b.wildcard = removeSubscription(b.wildcard, id)
	}
}

// Publish delivers evt to typed subscribers first, then wildcard ones.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	for _, s := range b.byType[evt.Type] {
		s.handler(evt)
	}
	for _, s := range b.wildcard {
		s.handler(evt)
	}
}

func removeSubscription(subs []subscription, id int) []subscription {
	for i, s := range subs {
		if s.id == id {
			out := make([]subscription, 0, len(subs)-1)
			out = append(out, subs[:i]...)
			return append(out, subs[i+1:]...)
		}
	}
	return subs
}

// Queue is a simple FIFO queue. It satisfies Publisher so it can stand in for
// a Bus where a consumer prefers to drain once per tick.
type Queue struct {
	items []Event
}

// Publish adds an event.
func (q *Queue) Publish(evt Event) {
	q.Push(evt)
}

// Push adds an event.
func (q *Queue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *Queue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len reports the number of queued events.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Count returns how many queued events have type t.
func (q *Queue) Count(t Type) int {
	if q == nil {
		return 0
	}
	n := 0
	for _, e := range q.items {
		if e.Type == t {
			n++
		}
	}
	return n
}
