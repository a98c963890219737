// Package alert delivers operator notifications for the retrieval engine,
// primarily circuit-breaker trips on the embedding provider.
package alert

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/soundprediction/citator/pkg/config"
)

// Alerter receives engine notifications such as the embedding circuit
// breaker opening. Implementations must be safe for concurrent use; the
// circuit breaker fires state-change alerts from provider goroutines.
type Alerter interface {
	Alert(subject, message string) error
}

// EmailAlerter delivers notifications over SMTP to the recipients in the
// alert section of the server configuration.
type EmailAlerter struct {
	cfg config.AlertConfig
}

// NewEmailAlerter builds an SMTP alerter from the alert configuration.
func NewEmailAlerter(cfg config.AlertConfig) *EmailAlerter {
	return &EmailAlerter{
		cfg: cfg,
	}
}

// Alert emails the notification to the configured recipients. It returns nil
// without sending while alerting is disabled, so callers can alert
// unconditionally.
func (a *EmailAlerter) Alert(subject, message string) error {
	if !a.cfg.Enabled {
		return nil
	}

	auth := smtp.PlainAuth("", a.cfg.Username, a.cfg.Password, a.cfg.SMTPHost)

	to := a.cfg.To
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: [citator] %s\r\n"+
		"\r\n"+
		"%s\r\n", strings.Join(to, ","), subject, message))

	addr := fmt.Sprintf("%s:%d", a.cfg.SMTPHost, a.cfg.SMTPPort)

	if err := smtp.SendMail(addr, auth, a.cfg.From, to, msg); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	return nil
}

// NoOpAlerter discards notifications. It stands in for EmailAlerter when no
// alert configuration is present.
type NoOpAlerter struct{}

func (n *NoOpAlerter) Alert(subject, message string) error {
	return nil
}
