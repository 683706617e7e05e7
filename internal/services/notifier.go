package services

import (
	"context"
	"errors"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/logging"
	"github.com/AnshRaj112/wellnest-backend/internal/metrics"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultSendTimeout      = 30 * time.Second
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport delivers a Message (SMTP, SendGrid, log).
type Transport interface {
	Name() string
	Deliver(ctx context.Context, msg Message) error
}

// PermanentError marks a failure tied to the message itself (bad recipient, rejected
// content). It does not count against the transport's circuit breaker.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func isPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// NotificationSender is fire-and-forget: Send never reports failure to the caller,
// so one bad address cannot break a dispatch tick.
type NotificationSender struct {
	transport Transport
	breaker   *gobreaker.CircuitBreaker[struct{}]
	timeout   time.Duration
}

func NewNotificationSender(t Transport) *NotificationSender {
	name := "email-" + t.Name()
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isPermanent(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("email transport circuit breaker state changed")
		},
	}
	return &NotificationSender{
		transport: t,
		breaker:   gobreaker.NewCircuitBreaker[struct{}](settings),
		timeout:   defaultSendTimeout,
	}
}

// Send attempts delivery once and logs the outcome.
func (s *NotificationSender) Send(ctx context.Context, to, subject, body string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.transport.Deliver(ctx, Message{To: to, Subject: subject, Body: body})
	})

	transport := s.transport.Name()
	switch {
	case err == nil:
		metrics.NotificationsSent.WithLabelValues(transport, "sent").Inc()
		logging.Info().Str("to", to).Str("transport", transport).Msg("📧 Email sent")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.NotificationsSent.WithLabelValues(transport, "breaker_open").Inc()
		logging.Warn().Str("to", to).Str("transport", transport).Msg("Email skipped: transport circuit open")
	default:
		metrics.NotificationsSent.WithLabelValues(transport, "failed").Inc()
		logging.Error().Err(err).Str("to", to).Str("transport", transport).
			Bool("permanent", isPermanent(err)).Msg("Email send error")
	}
}
