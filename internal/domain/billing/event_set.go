package billing

// EventSet is an immutable, time-ordered view over the billing events of one
// account, possibly spanning multiple subscriptions.
type EventSet struct {
	events []*Event
}

// NewEventSet sorts the given events into their total order and returns the
// set. The input slice is not retained.
func NewEventSet(events []*Event) *EventSet {
	sorted := make([]*Event, len(events))
	copy(sorted, events)
	SortEvents(sorted)
	return &EventSet{events: sorted}
}

func (s *EventSet) Len() int {
	return len(s.events)
}

func (s *EventSet) Get(i int) *Event {
	return s.events[i]
}

// IsLast reports whether position i holds the final event in the set.
func (s *EventSet) IsLast(i int) bool {
	return i == len(s.events)-1
}

// NextEventForSubscription returns the event immediately following position i
// when it belongs to the same subscription, or nil when the event at i is the
// subscription's last or the following event belongs to another subscription.
// Subscription identity is compared by value.
func (s *EventSet) NextEventForSubscription(i int) *Event {
	if s.IsLast(i) {
		return nil
	}
	next := s.events[i+1]
	if next.SubscriptionID != s.events[i].SubscriptionID {
		return nil
	}
	return next
}

// Events returns the ordered events. Callers must not mutate the result.
func (s *EventSet) Events() []*Event {
	return s.events
}
