package utils

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"ciment_back_end/internal/config"
)

// Email est un message HTML prêt à l'envoi
type Email struct {
	To             string
	Subject        string
	HTML           string
	AttachmentName string
	Attachment     []byte
}

// Mailer envoie des e-mails
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// SMTPMailer envoie les e-mails via go-mail
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, e Email) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return err
	}
	if err := msg.To(e.To); err != nil {
		return err
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextHTML, e.HTML)

	if len(e.Attachment) > 0 {
		if err := msg.AttachReader(e.AttachmentName, bytes.NewReader(e.Attachment)); err != nil {
			return fmt.Errorf("pièce jointe: %w", err)
		}
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return err
	}

	zap.L().Info("📤 Envoi de l'e-mail", zap.String("to", e.To), zap.String("subject", e.Subject))
	return client.DialAndSendWithContext(ctx, msg)
}

// LogMailer se contente de journaliser les e-mails (SMTP non configuré)
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, e Email) error {
	m.log.Info("📧 E-mail non envoyé (SMTP non configuré)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
	)
	return nil
}
