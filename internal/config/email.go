package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends a single HTML e-mail.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// MailerFor picks the mailer named by email.provider.
func MailerFor(cfg *Config, log *zap.Logger) (Mailer, error) {
	switch cfg.Email.Provider {
	case "resend":
		return NewResendMailer(cfg.Email)
	case "smtp":
		return NewSMTPMailer(cfg.Email), nil
	default:
		return noopMailer{log: log}, nil
	}
}

func NewMailer(lc fx.Lifecycle, cfg *Config, log *zap.Logger) (Mailer, error) {
	m, err := MailerFor(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("email service initialized", zap.String("provider", cfg.Email.Provider))
			return nil
		},
	})
	return m, nil
}

type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(cfg EmailConfig) (*ResendMailer, error) {
	client := resend.NewClient(cfg.Resend.APIKey)
	if cfg.Resend.APIURL != "" {
		u, err := url.Parse(cfg.Resend.APIURL)
		if err != nil {
			return nil, fmt.Errorf("parse resend api url: %w", err)
		}
		client.BaseURL = u
	}
	return &ResendMailer{client: client, from: cfg.From}, nil
}

func (r *ResendMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	})
	if err != nil {
		return fmt.Errorf("send email via resend: %w", err)
	}
	return nil
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg EmailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password),
		from:   cfg.From,
	}
}

// SendEmail dials per message; gomail has no context support so ctx is only
// checked before dialing.
func (s *SMTPMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email via smtp: %w", err)
	}
	return nil
}

type noopMailer struct {
	log *zap.Logger
}

func (n noopMailer) SendEmail(_ context.Context, to, subject, _ string) error {
	n.log.Debug("email disabled, skipping", zap.String("to", to), zap.String("subject", subject))
	return nil
}
