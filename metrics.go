package enrich

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// dispatchMetrics are always collected; they are only exported when a
// registerer is supplied through WithMetrics. Dispatchers sharing a
// registerer share its collectors, so the series add up across clients.
type dispatchMetrics struct {
	Queued     prometheus.Gauge
	InFlight   prometheus.Gauge
	Requests   *prometheus.CounterVec
	PermitWait prometheus.Histogram
	Rate       prometheus.Gauge
}

func newDispatchMetrics(reg prometheus.Registerer) (*dispatchMetrics, error) {
	m := &dispatchMetrics{
		Queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "enrich",
			Subsystem: "dispatcher",
			Name:      "queued_requests",
			Help:      "Requests waiting for a free worker",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "enrich",
			Subsystem: "dispatcher",
			Name:      "in_flight_requests",
			Help:      "Requests currently held by a worker",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enrich",
			Subsystem: "dispatcher",
			Name:      "requests_total",
			Help:      "Completed requests by outcome",
		}, []string{"outcome"}),
		PermitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "enrich",
			Subsystem: "dispatcher",
			Name:      "permit_wait_seconds",
			Help:      "Time workers spent waiting for a rate limiter permit",
			Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		Rate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "enrich",
			Subsystem: "ratelimiter",
			Name:      "permits_per_second",
			Help:      "Rate discovered from the API, 0 until known",
		}),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	if m.Queued, err = register(reg, m.Queued); err != nil {
		return nil, err
	}
	if m.InFlight, err = register(reg, m.InFlight); err != nil {
		return nil, err
	}
	if m.Requests, err = register(reg, m.Requests); err != nil {
		return nil, err
	}
	if m.PermitWait, err = register(reg, m.PermitWait); err != nil {
		return nil, err
	}
	if m.Rate, err = register(reg, m.Rate); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, or returns the equivalent collector another
// dispatcher registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("enrich: register metrics: %w", err)
}
