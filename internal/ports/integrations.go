package ports

import (
	"context"

	"github.com/JxWayne890/dealflow/internal/domain"
)

// PaymentGateway creates hosted checkout sessions.
type PaymentGateway interface {
	// CreateCheckoutSession returns the provider's session. Provider
	// rejections come back as *domain.UpstreamError.
	CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error)
}

// Mailer relays transactional email.
type Mailer interface {
	// Send hands msg to the provider. Provider rejections come back as
	// *domain.UpstreamError.
	Send(ctx context.Context, msg domain.Email) (*domain.EmailReceipt, error)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	// Publish sends an event to the configured destination.
	// Returns domain.ErrUnavailable if the broker is unreachable.
	Publish(ctx context.Context, event Event) error
}

// Event is a publishable domain event.
type Event interface {
	// EventType is used as the routing key.
	EventType() string

	// Payload is serialised as the message body.
	Payload() any
}
