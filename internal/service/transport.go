package service

import (
	"context"

	"github.com/joblink/chat-backend/internal/domain"
)

// Transport delivers one notification over one channel. Implementations
// are external collaborators: push gateway, SMTP relay, SMS provider.
// Send must respect ctx cancellation; the dispatcher bounds every call
// with a timeout.
type Transport interface {
	Channel() domain.Channel
	Send(ctx context.Context, notification *domain.NotificationLog) error
}

// InAppTransport delivers in-app notifications. The log row itself is
// the in-app inbox entry, so a send has nothing external to do.
type InAppTransport struct{}

// NewInAppTransport creates the in-app channel transport
func NewInAppTransport() *InAppTransport {
	return &InAppTransport{}
}

// Channel implements Transport
func (t *InAppTransport) Channel() domain.Channel { return domain.ChannelInApp }

// Send implements Transport
func (t *InAppTransport) Send(ctx context.Context, _ *domain.NotificationLog) error {
	return ctx.Err()
}
