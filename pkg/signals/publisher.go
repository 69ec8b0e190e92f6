package signals

import "context"

// Publisher delivers portal signals to whoever is listening.
type Publisher interface {
	PublishSessionClosed(ctx context.Context, event *SessionClosedEvent) error
}

// NoopPublisher discards all signals.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// PublishSessionClosed discards the event.
func (p *NoopPublisher) PublishSessionClosed(_ context.Context, _ *SessionClosedEvent) error {
	return nil
}

// CallbackPublisher invokes a callback for each signal. Used in tests to
// capture emitted signals without a bus.
type CallbackPublisher struct {
	fn func(ctx context.Context, event *SessionClosedEvent) error
}

// NewCallbackPublisher creates a publisher that forwards to fn.
func NewCallbackPublisher(fn func(ctx context.Context, event *SessionClosedEvent) error) *CallbackPublisher {
	return &CallbackPublisher{fn: fn}
}

// PublishSessionClosed forwards the event to the callback.
func (p *CallbackPublisher) PublishSessionClosed(ctx context.Context, event *SessionClosedEvent) error {
	return p.fn(ctx, event)
}
