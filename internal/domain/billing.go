package domain

import (
	"net/mail"
	"strings"
	"time"
)

// CheckoutMode mirrors the Stripe checkout modes the app uses.
type CheckoutMode string

const (
	CheckoutModeSubscription CheckoutMode = "subscription"
	CheckoutModePayment      CheckoutMode = "payment"
)

// CheckoutRequest asks the payment provider for a hosted checkout page.
type CheckoutRequest struct {
	PriceID        string
	UserID         string
	Email          string
	SuccessURL     string
	CancelURL      string
	Mode           CheckoutMode
	IdempotencyKey string
}

// Validate checks the fields the provider cannot default.
func (r CheckoutRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.PriceID) == "":
		return NewValidationError("priceId", "is required")
	case strings.TrimSpace(r.UserID) == "":
		return NewValidationError("userId", "is required")
	case r.SuccessURL == "":
		return NewValidationError("successUrl", "is required")
	case r.CancelURL == "":
		return NewValidationError("cancelUrl", "is required")
	case r.Mode != CheckoutModeSubscription && r.Mode != CheckoutModePayment:
		return NewValidationErrorWithValue("mode", "must be subscription or payment", string(r.Mode))
	}

	return nil
}

// CheckoutSession is the provider's answer: where to send the browser.
type CheckoutSession struct {
	ID  string
	URL string
}

// Email is a transactional message relayed through the mail provider.
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
	ReplyTo string

	// IdempotencyKey is forwarded to providers that support it.
	IdempotencyKey string
}

// Validate checks recipients and content.
func (e Email) Validate() error {
	if len(e.To) == 0 {
		return NewValidationError("to", "at least one recipient is required")
	}
	for _, addr := range e.To {
		if _, err := mail.ParseAddress(addr); err != nil {
			return NewValidationErrorWithValue("to", "invalid address", addr)
		}
	}
	if strings.TrimSpace(e.Subject) == "" {
		return NewValidationError("subject", "is required")
	}
	if e.HTML == "" && e.Text == "" {
		return NewValidationError("html", "html or text body is required")
	}

	return nil
}

// EmailReceipt identifies an accepted message.
type EmailReceipt struct {
	ID         string
	Provider   string
	StatusCode int
}

// QuotesDeduplicated is published after a pass removed at least one quote.
type QuotesDeduplicated struct {
	OwnerID    string    `json:"ownerId"`
	Found      int       `json:"duplicatesFound"`
	Deleted    int       `json:"deletedCount"`
	DeletedIDs []string  `json:"deletedIds"`
	FailedIDs  []string  `json:"failedIds,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventType implements ports.Event.
func (QuotesDeduplicated) EventType() string { return "quotes.deduplicated" }

// Payload implements ports.Event.
func (e QuotesDeduplicated) Payload() any { return e }
