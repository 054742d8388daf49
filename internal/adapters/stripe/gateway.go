// Package stripe creates hosted checkout sessions through the Stripe API.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	stripego "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/JxWayne890/dealflow/internal/domain"
	"github.com/JxWayne890/dealflow/internal/platform/config"
)

const providerName = "stripe"

// ErrNotConfigured is returned when no secret key is set.
var ErrNotConfigured = errors.New("stripe secret key is not configured")

// Gateway implements ports.PaymentGateway.
type Gateway struct {
	api    *client.API
	logger *slog.Logger
}

// New creates a gateway. A nil httpClient uses the Stripe default. An empty
// cfg.SecretKey yields a gateway that fails every call with ErrNotConfigured.
func New(cfg config.StripeConfig, httpClient *http.Client, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "stripe.Gateway"))

	g := &Gateway{logger: logger}
	if cfg.SecretKey == "" {
		return g
	}

	backendCfg := &stripego.BackendConfig{
		HTTPClient:        httpClient,
		LeveledLogger:     leveledLogger{logger},
		MaxNetworkRetries: stripego.Int64(0),
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripego.String(cfg.APIURL)
	}

	g.api = client.New(cfg.SecretKey, &stripego.Backends{
		API:     stripego.GetBackendWithConfig(stripego.APIBackend, backendCfg),
		Connect: stripego.GetBackendWithConfig(stripego.ConnectBackend, backendCfg),
		Uploads: stripego.GetBackendWithConfig(stripego.UploadsBackend, backendCfg),
	})

	return g
}

// CreateCheckoutSession implements ports.PaymentGateway. The broker's user
// ID travels as client_reference_id and metadata so webhooks can find it.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	if g.api == nil {
		return nil, ErrNotConfigured
	}

	params := &stripego.CheckoutSessionParams{
		Mode:              stripego.String(string(req.Mode)),
		SuccessURL:        stripego.String(req.SuccessURL),
		CancelURL:         stripego.String(req.CancelURL),
		ClientReferenceID: stripego.String(req.UserID),
		LineItems: []*stripego.CheckoutSessionLineItemParams{{
			Price:    stripego.String(req.PriceID),
			Quantity: stripego.Int64(1),
		}},
	}
	params.Context = ctx
	params.AddMetadata("user_id", req.UserID)

	if req.Email != "" {
		params.CustomerEmail = stripego.String(req.Email)
	}
	if req.Mode == domain.CheckoutModeSubscription {
		params.SubscriptionData = &stripego.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": req.UserID},
		}
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, translateError(err)
	}

	g.logger.InfoContext(ctx, "checkout session created", slog.String("session_id", session.ID))

	return &domain.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// translateError keeps Stripe's own status and message. Anything that never
// got an answer from Stripe stays a local error.
func translateError(err error) error {
	var serr *stripego.Error
	if errors.As(err, &serr) && serr.HTTPStatusCode > 0 {
		return domain.NewUpstreamError(providerName, serr.HTTPStatusCode, string(serr.Code), serr.Msg)
	}

	return fmt.Errorf("creating checkout session: %w", err)
}

// leveledLogger routes stripe-go's logging into slog. stripe-go logs every
// request at info, which lands at debug here.
type leveledLogger struct {
	logger *slog.Logger
}

func (l leveledLogger) Debugf(format string, v ...any) { l.logger.Debug(fmt.Sprintf(format, v...)) }
func (l leveledLogger) Infof(format string, v ...any)  { l.logger.Debug(fmt.Sprintf(format, v...)) }
func (l leveledLogger) Warnf(format string, v ...any)  { l.logger.Warn(fmt.Sprintf(format, v...)) }
func (l leveledLogger) Errorf(format string, v ...any) { l.logger.Error(fmt.Sprintf(format, v...)) }
