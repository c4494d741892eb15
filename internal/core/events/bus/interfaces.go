package bus

// EventBus is an in-process, synchronous pub/sub bus used by the simulation to
// announce maneuver progress, weapon fire and damage.
//
// Delivery runs in the publisher's goroutine, in subscription order, so a
// single-threaded tick loop observes a deterministic sequence of handler calls.
// Handler errors are joined and returned from Publish. Handlers may publish
// further events; subscribing or cancelling from inside a handler takes effect
// for the next Publish.
type EventBus interface {
	// Publish delivers the event to all active subscribers of event.Type().
	Publish(event Event) error
	// PublishBatch publishes events in order and joins their errors.
	PublishBatch(events ...Event) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Nil is ignored.
	Unsubscribe(Subscription) error

	// AddObserver registers obs once; observers are called in registration order.
	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics is only updated while at least one observer is registered.
	GetMetrics() EventBusMetrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	ID() string
	Type() string
	Source() string
	// SimTime is the simulation clock, in seconds, at which the event was raised.
	SimTime() float64
	Data() any
	Metadata() map[string]any
}

type EventHandler func(event Event) error

type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries and errors.
type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
