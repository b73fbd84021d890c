// Package notify delivers rendered reports by email.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const defaultSendTimeout = 30 * time.Second

// Email is one outbound message: a plain-text body with an HTML alternative.
type Email struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// Options carries the SMTP endpoint and addressing for a mailer.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

// SMTPMailer sends mail over SMTP with STARTTLS. It authenticates only when
// a username is configured, so unauthenticated relays keep working.
type SMTPMailer struct {
	opts   Options
	logger *zap.Logger
}

func NewSMTPMailer(opts Options, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultSendTimeout
	}
	return &SMTPMailer{opts: opts, logger: logger.Named("mailer")}
}

// Configured reports whether enough SMTP settings are present to attempt a
// send. An unconfigured mailer is valid; sends are skipped and logged.
func (m *SMTPMailer) Configured() bool {
	return m.opts.Host != "" && m.opts.From != "" && len(m.opts.To) > 0
}

// Send delivers one email. Exactly one transmission is attempted; there is
// no retry here.
func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	msg, err := m.buildMessage(email)
	if err != nil {
		return err
	}

	clientOpts := []mail.Option{
		mail.WithPort(m.opts.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(m.opts.Timeout),
	}
	if m.opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.opts.Username),
			mail.WithPassword(m.opts.Password),
		)
	}

	client, err := mail.NewClient(m.opts.Host, clientOpts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.logger.Info("email sent",
		zap.String("subject", email.Subject),
		zap.Int("recipients", len(m.opts.To)))
	return nil
}

func (m *SMTPMailer) buildMessage(email Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.opts.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(m.opts.To...); err != nil {
		return nil, fmt.Errorf("to addresses: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	return msg, nil
}
