package signals

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/desktop-portal/pkg/commsutil"
)

const commsPublisherLogPrefix = "signals:comms_publisher"

// CommsPublisher publishes portal signals on per-object COMMS subjects.
type CommsPublisher struct {
	nc *comms.Conn
}

// NewCommsPublisher creates a new CommsPublisher.
func NewCommsPublisher(nc *comms.Conn) *CommsPublisher {
	return &CommsPublisher{nc: nc}
}

// PublishSessionClosed publishes the Closed signal on the subject derived
// from the session's object path.
func (p *CommsPublisher) PublishSessionClosed(_ context.Context, event *SessionClosedEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	subject := commsutil.SignalSubject(event.Path)
	if err := p.nc.Publish(subject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, subject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published Closed signal for %s", commsPublisherLogPrefix, event.Path))
	return nil
}
