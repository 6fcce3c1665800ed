package metrics

import (
	"github.com/AlexsanderHamir/gwizpool/manager"

	"github.com/prometheus/client_golang/prometheus"
)

// EventCounter is a manager.EventSink counting events by type and system.
// Events are forwarded to Next when it is set.
type EventCounter struct {
	events *prometheus.CounterVec
	Next   manager.EventSink
}

var _ manager.EventSink = (*EventCounter)(nil)

func NewEventCounter(namespace string) *EventCounter {
	return &EventCounter{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "events_total",
			Help:      "Pooling lifecycle events by type.",
		}, []string{"event", "system"}),
	}
}

func (e *EventCounter) CollectEvent(eventType, systemName string, payload map[string]any) {
	e.events.WithLabelValues(eventType, systemName).Inc()
	if e.Next != nil {
		e.Next.CollectEvent(eventType, systemName, payload)
	}
}

func (e *EventCounter) Describe(ch chan<- *prometheus.Desc) {
	e.events.Describe(ch)
}

func (e *EventCounter) Collect(ch chan<- prometheus.Metric) {
	e.events.Collect(ch)
}

// Count returns the counter for one event type and system.
func (e *EventCounter) Count(eventType, systemName string) prometheus.Counter {
	return e.events.WithLabelValues(eventType, systemName)
}
