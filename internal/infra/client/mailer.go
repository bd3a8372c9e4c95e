package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/resilience"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("infra/client")

// MailConfig identifies the sender.
type MailConfig struct {
	APIKey   string
	From     string
	FromName string
	Sandbox  bool
}

// ErrorCounter counts failed calls per external service.
type ErrorCounter interface {
	IncrExternalError(service string)
}

// SendGridMailer sends email through the SendGrid v3 API.
type SendGridMailer struct {
	cfg      MailConfig
	cb       *gobreaker.CircuitBreaker
	retry    resilience.Config
	failures ErrorCounter
	baseURL  string
}

// NewSendGridMailer creates a mailer guarded by cb.
func NewSendGridMailer(cfg MailConfig, cb *gobreaker.CircuitBreaker, retry resilience.Config) *SendGridMailer {
	return &SendGridMailer{
		cfg:   cfg,
		cb:    cb,
		retry: retry,
	}
}

// WithMetrics counts every failed send under the "sendgrid" label.
func (m *SendGridMailer) WithMetrics(c ErrorCounter) *SendGridMailer {
	m.failures = c
	return m
}

// Send implements port.Mailer. 429 and 5xx answers are retried; any other
// 4xx fails at once without tripping the breaker.
func (m *SendGridMailer) Send(ctx context.Context, msg domain.Mail) error {
	ctx, span := tracer.Start(ctx, "SendGridMailer.Send")
	defer span.End()
	span.SetAttributes(attribute.String("mail.subject", msg.Subject))

	from := mail.NewEmail(m.cfg.FromName, m.cfg.From)
	to := mail.NewEmail(msg.ToName, msg.To)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)
	if m.cfg.Sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		email.MailSettings = ms
	}

	_, err := m.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, m.retry, func() error {
			// sendgrid.Client carries the request body, so it is not shared
			// between sends.
			c := sendgrid.NewSendClient(m.cfg.APIKey)
			if m.baseURL != "" {
				c.BaseURL = m.baseURL
			}
			resp, err := c.SendWithContext(ctx, email)
			if err != nil {
				return err
			}
			return statusError(resp.StatusCode)
		})
	})
	if err == nil {
		return nil
	}
	if m.failures != nil {
		m.failures.IncrExternalError("sendgrid")
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: "sendgrid"}
	}
	return &domain.ErrExternalService{Service: "sendgrid", Err: err}
}

// statusError classifies a SendGrid answer.
func statusError(code int) error {
	switch {
	case code < 400:
		return nil
	case code == http.StatusTooManyRequests || code >= 500:
		return fmt.Errorf("sendgrid returned status %d", code)
	default:
		return resilience.Permanent(fmt.Errorf("sendgrid rejected the message with status %d", code))
	}
}

// LogMailer records outbound mail in the log instead of sending it. Used
// when no SendGrid key is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a log-only mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send implements port.Mailer.
func (m *LogMailer) Send(_ context.Context, msg domain.Mail) error {
	m.logger.Info("mail not sent (no provider configured)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
