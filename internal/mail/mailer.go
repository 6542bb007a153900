package mail

import (
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"

	"prato-rinaldo/internal/config"
)

// Mailer sends transactional notifications over SMTP. A nil Mailer (no SMTP
// host configured) silently drops mail so moderation keeps working in dev.
type Mailer struct {
	cfg config.SMTPConfig
}

// New returns a Mailer, or nil when no SMTP host is configured
func New(cfg config.SMTPConfig) *Mailer {
	if cfg.Host == "" {
		return nil
	}
	return &Mailer{cfg: cfg}
}

// Send delivers a single HTML mail
func (m *Mailer) Send(to, subject, htmlBody string) error {
	if m == nil {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: m.cfg.Host}
	return d.DialAndSend(msg)
}

// ApprovalBody renders the content-approved notification
func ApprovalBody(name, itemTitle string) string {
	return fmt.Sprintf(
		`<p>Ciao %s,</p><p>il tuo contenuto <b>%s</b> è stato approvato ed è ora visibile alla community.</p>`,
		name, itemTitle)
}

// RejectionBody renders the content-rejected notification with the reason
func RejectionBody(name, itemTitle, reason string) string {
	return fmt.Sprintf(
		`<p>Ciao %s,</p><p>il tuo contenuto <b>%s</b> non è stato approvato.</p><p>Motivo: %s</p>`,
		name, itemTitle, reason)
}
