package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is a subscription lifecycle event published after billing state
// changes land. Sinks fan these out to tenant webhook endpoints,
// transactional email, and metrics.
type Event struct {
	Name       string         `json:"name"`
	TenantID   uuid.UUID      `json:"tenant_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Event names published by the service.
const (
	EventNameSubscriptionCreated  = "subscription.created"
	EventNameSubscriptionUpdated  = "subscription.updated"
	EventNameSubscriptionCanceled = "subscription.canceled"
	EventNamePlanChanged          = "subscription.plan_changed"
	EventNamePaymentFailed        = "subscription.payment_failed"
	EventNamePaymentSucceeded     = "subscription.payment_succeeded"
	EventNameTrialConverted       = "subscription.trial_converted"
	EventNameTrialEnding          = "subscription.trial_ending"
	EventNameTrialExpired         = "subscription.trial_expired"
)

// EventSink receives published events. Implementations must not block the
// calling request path longer than necessary; slow delivery belongs in the
// sink, behind its own goroutines and retries.
type EventSink interface {
	Publish(ctx context.Context, event Event)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(ctx context.Context, event Event)

// Publish implements EventSink.
func (f EventSinkFunc) Publish(ctx context.Context, event Event) {
	f(ctx, event)
}
