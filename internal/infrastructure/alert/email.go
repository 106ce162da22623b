// Package alert notifies operators by email.
package alert

import (
	"context"
	"crypto/tls"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/gomail.v2"

	"garageflow/internal/domain/billing"
	"garageflow/pkg/logger"
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Config holds SMTP settings.
type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	Recipients []string
}

// EmailAlerter sends numbering alerts to the configured operators and to the
// alert address of the affected garage, if it has one.
type EmailAlerter struct {
	sender     Sender
	from       string
	recipients []string
	settings   billing.SettingsProvider
}

var _ billing.Alerter = (*EmailAlerter)(nil)

// NewDialer builds an SMTP dialer enforcing TLS 1.2.
func NewDialer(cfg Config) *gomail.Dialer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	return d
}

// NewEmailAlerter creates an alerter. settings may be nil.
func NewEmailAlerter(sender Sender, cfg Config, settings billing.SettingsProvider) *EmailAlerter {
	return &EmailAlerter{
		sender:     sender,
		from:       cfg.From,
		recipients: cfg.Recipients,
		settings:   settings,
	}
}

// NumberingCommitFailed implements billing.Alerter.
func (a *EmailAlerter) NumberingCommitFailed(ctx context.Context, f billing.CommitFailure) error {
	to := a.recipientsFor(ctx, f)
	if len(to) == 0 {
		return fmt.Errorf("no alert recipients configured")
	}

	msg := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)
	msg.SetAddressHeader("From", a.from, "GarageFlow")
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", fmt.Sprintf("[GarageFlow] %s counter not advanced after %s", f.Category, f.Number))
	msg.SetBody("text/plain", commitFailureBody(f))

	if err := a.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	logger.Info(ctx, "numbering alert sent", "number", f.Number, "recipients", len(to))
	return nil
}

func (a *EmailAlerter) recipientsFor(ctx context.Context, f billing.CommitFailure) []string {
	to := slices.Clone(a.recipients)
	if a.settings == nil {
		return to
	}
	st, err := a.settings.Get(ctx, f.GarageID)
	if err != nil {
		logger.Warn(ctx, "garage alert address unavailable", "garage_id", f.GarageID, "error", err)
		return to
	}
	if st.AlertEmail != "" && !slices.Contains(to, st.AlertEmail) {
		to = append(to, st.AlertEmail)
	}
	return to
}

func commitFailureBody(f billing.CommitFailure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document %s was saved but the %s counter of garage %s did not move.\n\n", f.Number, f.Category, f.GarageID)
	fmt.Fprintf(&b, "Document ID: %s\n", f.DocumentID)
	fmt.Fprintf(&b, "Time:        %s\n", f.OccurredAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Cause:       %s\n\n", f.Cause)
	b.WriteString("The next document will be offered the same number until the counter is set past it:\n")
	fmt.Fprintf(&b, "  garagectl counter set --garage %s --category %s --next <sequence+1>\n", f.GarageID, f.Category)
	return b.String()
}
