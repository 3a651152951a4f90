package infra

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strconv"

	"farmapos/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer delivers closed-report PDFs through the configured SMTP relay.
type Mailer struct {
	relay     string
	host      string
	remitente string
	auth      smtp.Auth
}

func NewMailer(cfg *config.Config) *Mailer {
	m := &Mailer{
		relay:     cfg.SMTPHost + ":" + strconv.Itoa(cfg.SMTPPort),
		host:      cfg.SMTPHost,
		remitente: cfg.SMTPFrom,
	}
	if m.remitente == "" {
		m.remitente = cfg.SMTPUser
	}
	// open relays (local MailHog and the like) take no credentials
	if cfg.SMTPUser != "" {
		m.auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return m
}

// Configurado is false when SMTP_HOST is unset; callers skip sending.
func (m *Mailer) Configurado() bool {
	return m != nil && m.host != ""
}

// SendReporte mails body to a single recipient with pdf attached as filename.
// An empty pdf sends the text alone.
func (m *Mailer) SendReporte(to, subject, body, filename string, pdf []byte) error {
	msg := email.NewEmail()
	msg.From = m.remitente
	msg.To = []string{to}
	msg.Subject = subject
	msg.Text = []byte(body)
	if len(pdf) > 0 {
		if _, err := msg.Attach(bytes.NewReader(pdf), filename, "application/pdf"); err != nil {
			return fmt.Errorf("mailer: adjuntar %s: %w", filename, err)
		}
	}
	if err := msg.Send(m.relay, m.auth); err != nil {
		return fmt.Errorf("mailer: enviar a %s: %w", to, err)
	}
	return nil
}
