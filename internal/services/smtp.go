package services

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"
)

// SMTPTransport sends plain-text mail with STARTTLS and PLAIN auth
// (smtp.gmail.com:587 with an app password by default).
type SMTPTransport struct {
	host     string
	port     int
	user     string
	password string
	fromName string
	timeout  time.Duration
}

func NewSMTPTransport(host string, port int, user, password, fromName string) *SMTPTransport {
	return &SMTPTransport{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		fromName: fromName,
		timeout:  30 * time.Second,
	}
}

func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) Deliver(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(t.host, fmt.Sprint(t.port))

	dialer := &net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: t.host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if t.user != "" && t.password != "" {
		if err := client.Auth(smtp.PlainAuth("", t.user, t.password, t.host)); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(t.user); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return classifySMTPError(fmt.Errorf("failed to set recipient: %w", err))
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := w.Write([]byte(t.buildMessage(msg))); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return classifySMTPError(fmt.Errorf("failed to close message: %w", err))
	}

	// message is accepted once DATA closes
	_ = client.Quit()
	return nil
}

func (t *SMTPTransport) buildMessage(msg Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", t.fromName, t.user)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", encodeHeader(msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.String()
}

// encodeHeader RFC 2047-encodes non-ASCII subjects (the reminder subject carries an emoji).
func encodeHeader(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.QEncoding.Encode("utf-8", s)
		}
	}
	return s
}

// classifySMTPError marks 5xx replies (mailbox unavailable, policy rejection) as permanent.
func classifySMTPError(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code >= 500 && tpErr.Code < 600 {
		return &PermanentError{Err: err}
	}
	return err
}
