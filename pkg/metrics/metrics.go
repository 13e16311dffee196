// Package metrics exports grid cache and activity counters to Prometheus.
package metrics

import (
	"context"
	"errors"

	grid "github.com/goliatone/go-grid"
	"github.com/goliatone/go-grid/pkg/activity"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "grid"
	cacheSubsystem   = "derived_cache"
)

// Metrics counts derived value cache activity and emitted grid events.
// It satisfies grid.CacheObserver.
type Metrics struct {
	// Lookups counts derived value reads. Labels: key, result (hit, miss).
	Lookups *prometheus.CounterVec
	// Invalidations counts group invalidations, dependents included.
	// Labels: group.
	Invalidations *prometheus.CounterVec
	// Events counts activity events. Labels: verb, object_type.
	Events *prometheus.CounterVec
}

// New builds the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: cacheSubsystem,
				Name:      "lookups_total",
				Help:      "Derived value reads by key and result",
			},
			[]string{"key", "result"},
		),
		Invalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: cacheSubsystem,
				Name:      "invalidations_total",
				Help:      "Derived value group invalidations",
			},
			[]string{"group"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "events_total",
				Help:      "Grid activity events by verb and object type",
			},
			[]string{"verb", "object_type"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, vec := range []**prometheus.CounterVec{&m.Lookups, &m.Invalidations, &m.Events} {
		registered, err := register(reg, *vec)
		if err != nil {
			return nil, err
		}
		*vec = registered
	}
	return m, nil
}

// register adopts the collector already registered under the same name.
func register(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	err := reg.Register(vec)
	if err == nil {
		return vec, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing, nil
		}
	}
	return nil, err
}

func (m *Metrics) CacheHit(key grid.Key) {
	m.Lookups.WithLabelValues(string(key), "hit").Inc()
}

func (m *Metrics) CacheMiss(key grid.Key) {
	m.Lookups.WithLabelValues(string(key), "miss").Inc()
}

func (m *Metrics) CacheInvalidated(group grid.Group) {
	m.Invalidations.WithLabelValues(string(group)).Inc()
}

// Hook returns an activity hook counting every event it sees.
func (m *Metrics) Hook() activity.ActivityHook {
	return activity.HookFunc(func(_ context.Context, event activity.Event) error {
		m.Events.WithLabelValues(event.Verb, event.ObjectType).Inc()
		return nil
	})
}

var _ grid.CacheObserver = (*Metrics)(nil)
