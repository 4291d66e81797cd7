package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/infra/config"
)

// EmailSender delivers messages over SMTP.
type EmailSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailSender constructs an SMTP sender from the configured credentials.
func NewEmailSender(cfg config.SMTPSettings) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers the message to the recipient address.
func (s *EmailSender) Send(ctx context.Context, recipient string, msg port.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}
