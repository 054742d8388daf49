package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/JxWayne890/dealflow/internal/domain"
	"github.com/JxWayne890/dealflow/internal/ports"
)

// CheckoutDefaults fill in what the browser may omit.
type CheckoutDefaults struct {
	SuccessURL string
	CancelURL  string
	Mode       domain.CheckoutMode
}

// BillingService relays checkout requests to the payment provider.
type BillingService struct {
	gateway  ports.PaymentGateway
	defaults CheckoutDefaults
	exec     *Executor
}

// NewBillingService creates the service. Panics if gateway is nil.
func NewBillingService(gateway ports.PaymentGateway, defaults CheckoutDefaults, logger *slog.Logger) *BillingService {
	if gateway == nil {
		panic("BillingService: gateway is required")
	}

	if defaults.Mode == "" {
		defaults.Mode = domain.CheckoutModeSubscription
	}

	return &BillingService{gateway: gateway, defaults: defaults, exec: NewExecutor(logger)}
}

// CreateCheckoutSession validates req, applies defaults, and asks the
// provider for a session. Provider rejections keep their
// *domain.UpstreamError so the HTTP layer can relay them.
func (s *BillingService) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	return Execute(ctx, s.exec, Operation[domain.CheckoutRequest, *domain.CheckoutSession, *domain.CheckoutSession]{
		Name: "create checkout session",
		Validate: func(_ context.Context, in *domain.CheckoutRequest) error {
			in.PriceID = strings.TrimSpace(in.PriceID)
			if in.SuccessURL == "" {
				in.SuccessURL = s.defaults.SuccessURL
			}
			if in.CancelURL == "" {
				in.CancelURL = s.defaults.CancelURL
			}
			if in.Mode == "" {
				in.Mode = s.defaults.Mode
			}

			return in.Validate()
		},
		Perform: func(ctx context.Context, in domain.CheckoutRequest) (*domain.CheckoutSession, error) {
			return s.gateway.CreateCheckoutSession(ctx, in)
		},
		Verify: func(_ context.Context, _ domain.CheckoutRequest, session *domain.CheckoutSession) error {
			if session == nil || session.ID == "" || session.URL == "" {
				return domain.NewUnavailableError("stripe", "checkout session has no redirect url")
			}

			return nil
		},
		Respond: func(_ context.Context, _ domain.CheckoutRequest, session *domain.CheckoutSession) (*domain.CheckoutSession, error) {
			return session, nil
		},
	}, req)
}
