// Package mail delivers transactional email over SMTP
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/shopit/backend/internal/config"
	"go.uber.org/zap"
	gomail "gopkg.in/mail.v2"
)

// defaultTimeout bounds a single SMTP exchange when the context has no deadline
const defaultTimeout = 10 * time.Second

// Message is a single outgoing email. HTML is optional and sent as an alternative part.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers email messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends email through an SMTP relay
type SMTPSender struct {
	from   string
	dialer *gomail.Dialer
	logger *zap.Logger
	send   func(d *gomail.Dialer, m *gomail.Message) error
	now    func() time.Time
}

// NewSMTPSender creates a sender from SMTP configuration
func NewSMTPSender(cfg config.SMTPConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
		send: func(d *gomail.Dialer, m *gomail.Message) error {
			return d.DialAndSend(m)
		},
		now: time.Now,
	}
}

// Send builds the message and delivers it synchronously
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := s.buildMessage(msg)

	dialer := *s.dialer
	dialer.Timeout = defaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		// gomail treats a zero timeout as none
		remaining := deadline.Sub(s.now())
		if remaining <= 0 {
			return context.DeadlineExceeded
		}
		dialer.Timeout = remaining
	}

	if err := s.send(&dialer, m); err != nil {
		s.logger.Error("failed to send email", zap.Error(err), zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func (s *SMTPSender) buildMessage(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m
}
