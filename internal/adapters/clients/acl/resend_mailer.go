package acl

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JxWayne890/dealflow/internal/adapters/clients"
	"github.com/JxWayne890/dealflow/internal/domain"
)

const resendServiceName = "resend"

// ResendMailer implements ports.Mailer with the Resend REST API.
type ResendMailer struct {
	BaseAdapter
	logger *slog.Logger
}

// NewResendMailer creates the mailer. The client's BaseURL is the API root
// and its AuthFunc should come from BearerAuth.
func NewResendMailer(client *clients.Client, logger *slog.Logger) *ResendMailer {
	if client == nil {
		panic("ResendMailer: client is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ResendMailer{
		BaseAdapter: NewBaseAdapter(client, resendServiceName),
		logger:      logger.With(slog.String("component", "acl.ResendMailer")),
	}
}

// BearerAuth returns an AuthFunc that sends key as a bearer token.
func BearerAuth(key string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+key)
	}
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type resendReceipt struct {
	ID string `json:"id"`
}

// Send implements ports.Mailer. Resend's rejections are returned as
// *domain.UpstreamError carrying Resend's status and message. idempotencyKey
// is forwarded when set.
func (m *ResendMailer) Send(ctx context.Context, msg domain.Email) (*domain.EmailReceipt, error) {
	var opts []clients.RequestOption
	if msg.IdempotencyKey != "" {
		opts = append(opts, clients.WithHeader("Idempotency-Key", msg.IdempotencyKey))
	}

	resp, err := m.Client().Post(ctx, "/emails", resendEmail{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	}, opts...)
	if err != nil {
		return nil, MapHTTPError(nil, err, m.ServiceName(), "send email", "")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()

		upstream := UpstreamFromResponse(resp, m.ServiceName())
		m.logger.WarnContext(ctx, "email rejected", slog.Int("status", resp.StatusCode), slog.Any("error", upstream))

		return nil, upstream
	}

	receipt, err := DecodeResponseForService[resendReceipt](resp.Body, m.ServiceName())
	if err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "email accepted", slog.String("email_id", receipt.ID), slog.Int("recipients", len(msg.To)))

	return &domain.EmailReceipt{
		ID:         receipt.ID,
		Provider:   m.ServiceName(),
		StatusCode: resp.StatusCode,
	}, nil
}
