// Package smtp relays transactional email over plain SMTP. It is the
// fallback when the Resend API is not configured.
package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/JxWayne890/dealflow/internal/domain"
	"github.com/JxWayne890/dealflow/internal/platform/config"
)

const providerName = "smtp"

// sender is satisfied by *gomail.Dialer.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer implements ports.Mailer.
type Mailer struct {
	sender sender
	domain string
	logger *slog.Logger
}

// New creates a mailer dialing cfg.Host for every message.
func New(cfg config.SMTPConfig, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Mailer{
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		domain: cfg.Host,
		logger: logger.With(slog.String("component", "smtp.Mailer")),
	}
}

// Send implements ports.Mailer. The receipt ID is the generated Message-ID.
func (m *Mailer) Send(ctx context.Context, msg domain.Email) (*domain.EmailReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()

	gm := gomail.NewMessage()
	gm.SetHeader("From", msg.From)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", id, m.domain))
	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}

	switch {
	case msg.Text != "" && msg.HTML != "":
		gm.SetBody("text/plain", msg.Text)
		gm.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		gm.SetBody("text/html", msg.HTML)
	default:
		gm.SetBody("text/plain", msg.Text)
	}

	if err := m.sender.DialAndSend(gm); err != nil {
		return nil, fmt.Errorf("sending email via smtp: %w", err)
	}

	m.logger.InfoContext(ctx, "email sent", slog.String("message_id", id), slog.Int("recipients", len(msg.To)))

	return &domain.EmailReceipt{ID: id, Provider: providerName, StatusCode: http.StatusOK}, nil
}
