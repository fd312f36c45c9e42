package reminder

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/codebuildervaibhav/studygate/internal/config"
)

// Mailer delivers one reminder email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends plain-text mail through the configured SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer dials nothing up front; the client connects per send.
func NewSMTPMailer(env config.Env) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(env.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(env.SMTPUser),
		mail.WithPassword(env.SMTPPass),
	}
	if env.SMTPSecure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	client, err := mail.NewClient(env.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}
	return &SMTPMailer{client: client, from: env.Sender()}, nil
}

// Send delivers one message. Failures are the caller's to log; reminders
// are fire-and-forget and never retried.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
