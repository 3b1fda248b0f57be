package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orderflow",
		Name:      "events_published_total",
		Help:      "Events published to the log, by topic and event type.",
	}, []string{"topic", "event_type"})

	EventsConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orderflow",
		Name:      "events_consumed_total",
		Help:      "Events dispatched to a handler, by topic and event type.",
	}, []string{"topic", "event_type"})

	HandlerOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orderflow",
		Name:      "handler_outcomes_total",
		Help:      "Domain handler outcomes, by service and result.",
	}, []string{"service", "result"})

	DecodeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orderflow",
		Name:      "decode_failures_total",
		Help:      "Messages skipped because the payload would not decode.",
	}, []string{"service"})
)

func init() {
	prometheus.MustRegister(EventsPublished, EventsConsumed, HandlerOutcomes, DecodeFailures)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
