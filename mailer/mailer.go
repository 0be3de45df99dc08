package mailer

import (
	"context"
	"crypto/tls"

	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/gomail.v2"
)

// Message is a plain text email
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Options struct {
	Server   string
	Port     int
	Username string
	Password string
	UseTLS   bool
	UseSSL   bool
}

// SMTPSender sends mail through an SMTP relay
type SMTPSender struct {
	dialer *gomail.Dialer
}

func NewSMTPSender(opts Options) *SMTPSender {
	d := gomail.NewDialer(opts.Server, opts.Port, opts.Username, opts.Password)
	d.SSL = opts.UseSSL
	if opts.UseTLS || opts.UseSSL {
		d.TLSConfig = &tls.Config{ServerName: opts.Server}
	}
	return &SMTPSender{dialer: d}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled before sending mail")
	default:
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send mail").
			WithMetadata(map[string]any{"to": msg.To, "subject": msg.Subject})
	}
	return nil
}

// Logger is the subset of a logger LogSender writes to
type Logger interface {
	Info(format string, args ...any)
}

// LogSender writes messages to a logger instead of sending them. It is
// used when no SMTP server is configured.
type LogSender struct {
	logger Logger
}

func NewLogSender(logger Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("mail to=%s subject=%q\n%s", msg.To, msg.Subject, msg.Body)
	return nil
}
