package auth

import (
	"context"
	"time"
)

// ActivityEventType labels auth events emitted to the activity sink.
type ActivityEventType string

const (
	ActivityEventLoginSuccess       ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure       ActivityEventType = "auth.login.failure"
	ActivityEventSocialLogin        ActivityEventType = "auth.social.login"
	ActivityEventPasswordChanged    ActivityEventType = "auth.password.changed"
	ActivityEventEmailVerified      ActivityEventType = "auth.email.verified"
	ActivityEventAccountRegistered  ActivityEventType = "auth.account.registered"
	ActivityEventRoleChanged        ActivityEventType = "auth.role.changed"
	ActivityEventAccountDeleted     ActivityEventType = "auth.account.deleted"
)

// ActorRef identifies who triggered an event.
type ActorRef struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
}

// ActivityEvent describes a single auth event.
type ActivityEvent struct {
	EventType  ActivityEventType `json:"event_type"`
	Actor      ActorRef          `json:"actor"`
	UserID     string            `json:"user_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
}

// ActivitySink receives auth events. Sinks run best effort: a failing sink is
// logged and never aborts the primary operation.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function into an ActivitySink.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record satisfies the ActivitySink interface.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	return nil
}

func normalizeActivitySink(sink ActivitySink) ActivitySink {
	if sink == nil {
		return noopActivitySink{}
	}
	return sink
}
