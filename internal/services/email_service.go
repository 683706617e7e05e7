package services

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/AnshRaj112/wellnest-backend/internal/config"
	"github.com/AnshRaj112/wellnest-backend/internal/logging"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// NewTransport builds the transport selected by EMAIL_PROVIDER. SMTP without
// credentials falls back to logging so development runs need no mail account.
func NewTransport(cfg config.EmailConfig) Transport {
	switch cfg.Provider {
	case "sendgrid":
		return NewSendGridTransport(cfg.SendGridAPIKey, cfg.SendGridFrom, cfg.FromName)
	case "smtp":
		if cfg.User == "" || cfg.Password == "" {
			logging.Warn().Msg("⚠️  EMAIL_USER / EMAIL_PASS not set, reminder emails will only be logged")
			return LogTransport{}
		}
		return NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.User, cfg.Password, cfg.FromName)
	default:
		return LogTransport{}
	}
}

// SendGridTransport sends through the SendGrid v3 API.
type SendGridTransport struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridTransport(apiKey, fromEmail, fromName string) *SendGridTransport {
	return &SendGridTransport{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (t *SendGridTransport) Name() string { return "sendgrid" }

func (t *SendGridTransport) Deliver(ctx context.Context, msg Message) error {
	from := mail.NewEmail(t.fromName, t.fromEmail)
	to := mail.NewEmail(msg.To, msg.To)
	htmlContent := "<p>" + strings.ReplaceAll(html.EscapeString(msg.Body), "\n", "<br>") + "</p>"

	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, htmlContent)
	response, err := t.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid: failed to send email to %s: %d", msg.To, response.StatusCode)
		// 429 and 5xx are the provider's problem; other 4xx are about this message
		if response.StatusCode != http.StatusTooManyRequests && response.StatusCode < 500 {
			return &PermanentError{Err: err}
		}
		return err
	}
	return nil
}

// LogTransport only logs messages (EMAIL_PROVIDER=log, or SMTP without credentials).
type LogTransport struct{}

func (LogTransport) Name() string { return "log" }

func (LogTransport) Deliver(_ context.Context, msg Message) error {
	logging.Info().Str("to", msg.To).Str("subject", msg.Subject).Str("body", msg.Body).Msg("email (log transport)")
	return nil
}
