package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopit/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gomail "gopkg.in/mail.v2"
)

func newTestSender(send func(d *gomail.Dialer, m *gomail.Message) error) *SMTPSender {
	s := NewSMTPSender(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     "noreply@shopit.com",
	}, zap.NewNop())
	s.send = send
	return s
}

func TestSMTPSender_Send(t *testing.T) {
	var (
		sent   *gomail.Message
		dialer *gomail.Dialer
	)
	s := newTestSender(func(d *gomail.Dialer, m *gomail.Message) error {
		dialer = d
		sent = m
		return nil
	})

	err := s.Send(context.Background(), Message{
		To:      "jane@example.com",
		Subject: "Hello",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	})

	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, []string{"noreply@shopit.com"}, sent.GetHeader("From"))
	assert.Equal(t, []string{"jane@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"Hello"}, sent.GetHeader("Subject"))
	assert.Equal(t, "smtp.example.com", dialer.Host)
	assert.Equal(t, 587, dialer.Port)
	assert.Equal(t, defaultTimeout, dialer.Timeout)

	var raw bytes.Buffer
	_, err = sent.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "plain body")
	assert.Contains(t, raw.String(), "text/html")
}

func TestSMTPSender_Send_ContextDeadline(t *testing.T) {
	var timeout time.Duration
	s := newTestSender(func(d *gomail.Dialer, m *gomail.Message) error {
		timeout = d.Timeout
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, s.Send(ctx, Message{To: "jane@example.com", Subject: "Hi", Text: "x"}))
	assert.Greater(t, timeout, time.Duration(0))
	assert.LessOrEqual(t, timeout, 2*time.Second)
}

func TestSMTPSender_Send_Errors(t *testing.T) {
	t.Run("transport failure", func(t *testing.T) {
		s := newTestSender(func(d *gomail.Dialer, m *gomail.Message) error {
			return errors.New("dial tcp: connection refused")
		})

		err := s.Send(context.Background(), Message{To: "jane@example.com", Subject: "Hi", Text: "x"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("deadline passes before dialing", func(t *testing.T) {
		called := false
		s := newTestSender(func(d *gomail.Dialer, m *gomail.Message) error {
			called = true
			return nil
		})
		deadline := time.Now().Add(time.Minute)
		ctx, cancel := context.WithDeadline(context.Background(), deadline)
		defer cancel()

		for _, now := range []time.Time{deadline, deadline.Add(time.Millisecond)} {
			s.now = func() time.Time { return now }

			err := s.Send(ctx, Message{To: "jane@example.com", Subject: "Hi", Text: "x"})

			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.False(t, called)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		called := false
		s := newTestSender(func(d *gomail.Dialer, m *gomail.Message) error {
			called = true
			return nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.Send(ctx, Message{To: "jane@example.com"})

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}

func TestResetPasswordMessage(t *testing.T) {
	url := "http://localhost:3000/api/v1/password/reset/abc123"

	msg, err := ResetPasswordMessage("jane@example.com", "<Jane>", url)

	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Equal(t, "ShopIT Password Recovery", msg.Subject)
	assert.Contains(t, msg.Text, url)
	assert.Contains(t, msg.HTML, url)
	assert.Contains(t, msg.HTML, "&lt;Jane&gt;")
	assert.NotContains(t, msg.HTML, "<Jane>")
}
