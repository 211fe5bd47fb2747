package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// sendViaResend sends one message. Rate limit errors are reported, not retried.
func (n *Notifier) sendViaResend(ctx context.Context, to, subject, htmlBody string) error {
	if n.resendClient == nil {
		return fmt.Errorf("resend client not initialized")
	}

	params := &resend.SendEmailRequest{
		From:    n.config.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := n.resendClient.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			n.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("remaining", rateLimitErr.Remaining).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return fmt.Errorf("email rate limit exceeded (limit: %s, resets in: %s seconds): %w",
				rateLimitErr.Limit, rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	n.logger.Info().
		Str("email_id", sent.Id).
		Str("to", to).
		Msg("alert email sent via Resend")
	return nil
}
