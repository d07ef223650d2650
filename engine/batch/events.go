package batch

// Event is a run notification.
type Event struct {
	Type    EventType
	RunID   string
	Phase   Phase
	Payload interface{}
}

type EventType uint16

const (
	// EvtPhaseStarted carries no payload.
	EvtPhaseStarted EventType = iota
	// EvtItemFinished carries an Item.
	EvtItemFinished
	// EvtReclaimed carries a Reclaim.
	EvtReclaimed
	// EvtRunFinished carries the *Summary.
	EvtRunFinished
)

// Reclaim reports one memory reclamation point between chunks.
type Reclaim struct {
	Chunk  int
	Chunks int
	// RSS is the resident set size after reclamation, zero if unavailable.
	RSS uint64
}

// EventBus queues events and hands them to listeners on Dispatch. The runner
// dispatches at item, chunk and phase boundaries, never mid-item.
type EventBus struct {
	listeners map[EventType][]EventHandler
	queue     []Event
}

type EventHandler func(e Event)

func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[EventType][]EventHandler),
	}
}

// On registers a handler for an event type
func (eb *EventBus) On(t EventType, h EventHandler) {
	eb.listeners[t] = append(eb.listeners[t], h)
}

// Emit queues an event for dispatch
func (eb *EventBus) Emit(e Event) {
	eb.queue = append(eb.queue, e)
}

// Dispatch processes all queued events
func (eb *EventBus) Dispatch() {
	for _, e := range eb.queue {
		for _, h := range eb.listeners[e.Type] {
			h(e)
		}
	}
	eb.queue = eb.queue[:0]
}

// Pending is the number of queued events.
func (eb *EventBus) Pending() int { return len(eb.queue) }
