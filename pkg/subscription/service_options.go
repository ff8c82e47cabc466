package subscription

import (
	"fmt"
	"log/slog"
)

// ServiceOption configures optional service behavior.
type ServiceOption func(*service)

// WithCounter registers a usage counter for a resource.
// Panics if a counter is already registered for the resource: duplicate
// registrations are wiring bugs, and surfacing them at startup beats
// silently shadowing a counter in production.
func WithCounter(res Resource, counter ResourceCounterFunc) ServiceOption {
	return func(s *service) {
		if _, exists := s.counters[res]; exists {
			panic(fmt.Sprintf("subscription: counter already registered for resource %q", res))
		}
		s.counters[res] = counter
	}
}

// WithSnapshotCache sets the billing snapshot cache. Defaults to
// NopSnapshotCache (every read hits the store).
func WithSnapshotCache(cache SnapshotCache) ServiceOption {
	return func(s *service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithCalculator overrides the status calculator, typically to pin its
// clock in tests or adjust the ending_soon window per deployment.
func WithCalculator(calc *Calculator) ServiceOption {
	return func(s *service) {
		if calc != nil {
			s.calc = calc
		}
	}
}

// WithEventSink registers a sink for subscription lifecycle events.
// May be used multiple times; sinks are invoked in registration order.
func WithEventSink(sink EventSink) ServiceOption {
	return func(s *service) {
		if sink != nil {
			s.sinks = append(s.sinks, sink)
		}
	}
}

// WithLogger sets the service logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
