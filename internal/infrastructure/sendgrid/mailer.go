package sendgrid

import (
	"context"
	"errors"
	"fmt"

	"github.com/keepsake-api/internal/config"
	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type client interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer delivers HTML email through the SendGrid v3 API.
type Mailer struct {
	client  client
	from    *mail.Email
	sandbox bool
}

func NewMailer(cfg config.SendGrid, fromName string) (*Mailer, error) {
	if cfg.APIKey == "" || cfg.From == "" {
		return nil, errors.New("sendgrid: api key and sender address are required")
	}
	return &Mailer{
		client:  sg.NewSendClient(cfg.APIKey),
		from:    mail.NewEmail(fromName, cfg.From),
		sandbox: cfg.Sandbox,
	}, nil
}

func (m *Mailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	message := mail.NewV3Mail()
	message.SetFrom(m.from)
	message.Subject = subject
	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", to))
	message.AddPersonalizations(p)
	message.AddContent(mail.NewContent("text/html", htmlBody))
	if m.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		message.MailSettings = ms
	}

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", to, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send to %s: status %d: %s", to, resp.StatusCode, resp.Body)
	}
	return nil
}
