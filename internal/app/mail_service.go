package app

import (
	"context"
	"html"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/JxWayne890/dealflow/internal/domain"
	"github.com/JxWayne890/dealflow/internal/ports"
)

// MailServiceConfig configures a MailService.
type MailServiceConfig struct {
	// From is used when a message does not name a sender.
	From string

	// SanitizeHTML strips scripts and unsafe attributes from HTML bodies.
	SanitizeHTML bool

	Logger *slog.Logger
}

// MailService relays transactional email through the configured provider.
type MailService struct {
	mailer  ports.Mailer
	from    string
	body    *bluemonday.Policy
	subject *bluemonday.Policy
	exec    *Executor
}

// NewMailService creates the service. Panics if mailer is nil.
func NewMailService(mailer ports.Mailer, cfg MailServiceConfig) *MailService {
	if mailer == nil {
		panic("MailService: mailer is required")
	}

	s := &MailService{
		mailer:  mailer,
		from:    cfg.From,
		subject: bluemonday.StrictPolicy(),
		exec:    NewExecutor(cfg.Logger),
	}
	if cfg.SanitizeHTML {
		s.body = bluemonday.UGCPolicy()
	}

	return s
}

// Send validates and relays msg.
func (s *MailService) Send(ctx context.Context, msg domain.Email) (*domain.EmailReceipt, error) {
	return Execute(ctx, s.exec, Operation[domain.Email, *domain.EmailReceipt, *domain.EmailReceipt]{
		Name:     "send email",
		Validate: s.prepare,
		Perform:  s.mailer.Send,
		Verify: func(_ context.Context, _ domain.Email, receipt *domain.EmailReceipt) error {
			if receipt == nil || receipt.ID == "" {
				return domain.NewUnavailableError("mail", "provider returned no message id")
			}

			return nil
		},
		Respond: func(_ context.Context, _ domain.Email, receipt *domain.EmailReceipt) (*domain.EmailReceipt, error) {
			return receipt, nil
		},
	}, msg)
}

func (s *MailService) prepare(_ context.Context, msg *domain.Email) error {
	if strings.TrimSpace(msg.From) == "" {
		msg.From = s.from
	}

	// StrictPolicy escapes entities; subjects are plain text.
	msg.Subject = strings.TrimSpace(html.UnescapeString(s.subject.Sanitize(msg.Subject)))
	if s.body != nil && msg.HTML != "" {
		msg.HTML = s.body.Sanitize(msg.HTML)
	}

	if msg.From == "" {
		return domain.NewValidationError("from", "is required")
	}

	return msg.Validate()
}
