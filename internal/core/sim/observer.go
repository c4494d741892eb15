package sim

import (
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events/bus"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/metrics"
)

// eventCounter counts bus traffic per event type.
type eventCounter struct {
	collector metrics.Collector
}

var _ bus.EventBusObserver = (*eventCounter)(nil)

func (c *eventCounter) OnPublish(eventType string, _ bus.Event) {
	c.collector.Counter("events_published", map[string]string{"type": eventType}).Inc()
}

func (c *eventCounter) OnDelivered(eventType string, _ int, err error) {
	if err != nil {
		c.collector.Counter("event_handler_errors", map[string]string{"type": eventType}).Inc()
	}
}
