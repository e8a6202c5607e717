// AngelaMos | 2026
// sender.go

package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/carterperez-dev/templates/asset-manager/internal/config"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
)

type Message struct {
	To      []string
	Subject string
	HTML    string
}

type Sender interface {
	Enabled() bool
	Send(ctx context.Context, msg Message) error
}

type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Enabled() bool {
	return s.cfg.Enabled()
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if !s.Enabled() {
		return fmt.Errorf("smtp: %w", core.ErrNotConfigured)
	}

	m := mail.NewMsg()
	if err := m.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}

// Port 465 speaks implicit TLS; other ports upgrade with STARTTLS, which
// is mandatory when tls is enabled.
func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	}

	switch {
	case s.cfg.TLS && s.cfg.Port == 465:
		opts = append(opts, mail.WithSSL())
	case s.cfg.TLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	return opts
}
