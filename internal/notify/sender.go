// Package notify delivers ticket confirmation email.
package notify

import (
	"bytes"
	"context"
	"fmt"

	"dreamstate-ticketing/internal/config"
	"dreamstate-ticketing/internal/logger"

	"github.com/wneessen/go-mail"
)

// Attachment is an inline part referenced from the HTML body as cid:<ContentID>.
type Attachment struct {
	Filename    string
	ContentID   string
	ContentType string
	Data        []byte
}

type Message struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Attachments []Attachment
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	client   *mail.Client
	from     string
	fromName string
}

func NewSMTPSender(cfg config.EmailConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.FromAddress, fromName: cfg.FromName}, nil
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	msg, err := s.build(m)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", m.To, err)
	}
	return nil
}

func (s *SMTPSender) build(m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.AddToFormat(m.ToName, m.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)

	for _, a := range m.Attachments {
		err := msg.EmbedReader(a.Filename, bytes.NewReader(a.Data),
			mail.WithFileContentID("<"+a.ContentID+">"),
			mail.WithFileContentType(mail.ContentType(a.ContentType)),
		)
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", a.Filename, err)
		}
	}
	return msg, nil
}

// LogSender writes messages to the log instead of sending them. Used when EMAIL_ENABLED is off.
type LogSender struct {
	Logger *logger.Logger
}

func (s *LogSender) Send(ctx context.Context, m Message) error {
	s.Logger.Info("EMAIL", fmt.Sprintf("Email delivery disabled; would send %q to %s with %d attachment(s)", m.Subject, m.To, len(m.Attachments)))
	return nil
}
