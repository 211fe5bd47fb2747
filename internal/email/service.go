// Package email delivers operational alerts (failed or panicked background
// jobs) through the Resend API.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/contests/internal/config"
)

// Alert is the content of one operational alert.
type Alert struct {
	Title      string
	Kind       string
	JobID      int64
	Attempt    int
	Error      string
	OccurredAt time.Time
}

var alertTemplate = template.Must(template.New("alert").Parse(`<html><body>
<h2>{{.Title}}</h2>
<table>
<tr><td>Job</td><td>{{.Kind}} #{{.JobID}}</td></tr>
<tr><td>Attempt</td><td>{{.Attempt}}</td></tr>
<tr><td>At</td><td>{{.OccurredAt.Format "2006-01-02T15:04:05Z07:00"}}</td></tr>
</table>
<pre>{{.Error}}</pre>
</body></html>`))

// Notifier sends alerts. A Notifier without an API key logs alerts instead
// of sending them.
type Notifier struct {
	config       config.AlertsConfig
	resendClient *resend.Client
	logger       zerolog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithResendClient replaces the client built from the API key.
func WithResendClient(client *resend.Client) Option {
	return func(n *Notifier) { n.resendClient = client }
}

func NewNotifier(cfg config.AlertsConfig, logger zerolog.Logger, opts ...Option) (*Notifier, error) {
	n := &Notifier{
		config: cfg,
		logger: logger.With().Str("component", "email").Logger(),
	}
	if cfg.ResendAPIKey != "" {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid alert sender: %w", err)
		}
		if err := validateEmailAddress(cfg.To); err != nil {
			return nil, fmt.Errorf("invalid alert recipient: %w", err)
		}
		n.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Enabled reports whether alerts are actually delivered.
func (n *Notifier) Enabled() bool {
	return n != nil && n.resendClient != nil
}

// SendAlert renders alert and delivers it to the configured recipient.
func (n *Notifier) SendAlert(ctx context.Context, alert Alert) error {
	if alert.OccurredAt.IsZero() {
		alert.OccurredAt = time.Now().UTC()
	}
	if !n.Enabled() {
		n.logger.Warn().
			Str("title", alert.Title).
			Str("kind", alert.Kind).
			Str("error", alert.Error).
			Msg("alerting disabled, skipping alert email")
		return nil
	}

	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, alert); err != nil {
		return fmt.Errorf("render alert: %w", err)
	}
	subject := "[contests] " + alert.Title
	return n.sendViaResend(ctx, n.config.To, subject, buf.String())
}

func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}
