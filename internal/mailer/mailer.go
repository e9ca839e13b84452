// Package mailer delivers contact-form messages to the site owner over SMTP.
package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/farman-pharma/apiserver/config"
	"github.com/farman-pharma/apiserver/internal/mq"
	"github.com/farman-pharma/apiserver/internal/services"
	"github.com/farman-pharma/apiserver/types"
)

// Mailer sends contact messages through a configured SMTP relay.
type Mailer struct {
	cfg config.SMTPConfig
	log zerolog.Logger

	// send is swappable in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg config.SMTPConfig, log zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail}
}

// Send relays one contact message.
func (m *Mailer) Send(_ context.Context, msg types.ContactMessage) error {
	if strings.TrimSpace(m.cfg.Host) == "" || strings.TrimSpace(m.cfg.To) == "" {
		return errors.New("smtp relay is not configured")
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{m.cfg.To}, m.render(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// Run consumes queued contact messages until ctx is cancelled. Malformed
// payloads are acked and dropped; relay failures nack for redelivery.
func (m *Mailer) Run(ctx context.Context, broker *mq.MQ) error {
	return broker.Subscribe(ctx, services.ContactChannel, func(ctx context.Context, message mq.Message) error {
		var msg types.ContactMessage
		if err := json.Unmarshal(message.Data, &msg); err != nil {
			m.log.Error().Str("message_id", message.ID).Err(err).Msg("dropping malformed contact message")
			return nil
		}
		if err := m.Send(ctx, msg); err != nil {
			m.log.Error().Str("message_id", message.ID).Err(err).Msg("contact mail delivery failed")
			return err
		}
		m.log.Info().Str("message_id", message.ID).Msg("contact mail delivered")
		return nil
	})
}

func (m *Mailer) render(msg types.ContactMessage) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %q <%s>\r\n", msg.Name, m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.cfg.To)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.Email)
	b.WriteString("Subject: New Contact Form Submission\r\n")
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Name: %s\r\n", msg.Name)
	if msg.Mobile != "" {
		fmt.Fprintf(&b, "Mobile: %s\r\n", msg.Mobile)
	}
	fmt.Fprintf(&b, "Email: %s\r\n", msg.Email)
	fmt.Fprintf(&b, "Message: %s\r\n", msg.Message)
	return []byte(b.String())
}
