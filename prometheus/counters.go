package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsPublished = promauto.NewCounter(prom.CounterOpts{
		Name: "docshelf_events_published_total",
		Help: "The number of events successfully published to the broker",
	})

	EventsConsumed = promauto.NewCounter(prom.CounterOpts{
		Name: "docshelf_events_consumed_total",
		Help: "The number of consumed events successfully handled",
	})

	HandlerFailures = promauto.NewCounter(prom.CounterOpts{
		Name: "docshelf_consumer_handler_failures_total",
		Help: "The number of failed handling attempts for consumed events",
	})

	EventsDeadLettered = promauto.NewCounter(prom.CounterOpts{
		Name: "docshelf_events_dead_lettered_total",
		Help: "The number of consumed events republished to the dead letter topic",
	})
)
