package signup

import (
	"context"
	"fmt"

	"github.com/keepsake-api/internal/domain"
)

const verificationSubject = "Your Verification Code"

const verificationEmailHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Email Verification</h2>
  <p style="color: #666; font-size: 16px;">Your verification code is:</p>
  <div style="background: #f4f4f4; padding: 20px; text-align: center; border-radius: 8px; margin: 20px 0;">
    <h1 style="color: #333; letter-spacing: 8px; margin: 0; font-size: 36px;">%s</h1>
  </div>
  <p style="color: #666; font-size: 14px;">This code will expire in <strong>%d minutes</strong>.</p>
  <p style="color: #999; font-size: 12px; margin-top: 30px;">If you didn't request this code, please ignore this email.</p>
</div>`

// Mailer is the email transport the notifier delivers through.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// Notifier emails verification codes.
type Notifier struct {
	mailer Mailer
}

func NewNotifier(mailer Mailer) *Notifier {
	return &Notifier{mailer: mailer}
}

// Send delivers code to email. Transport failures are returned wrapped in
// domain.ErrNotification; deciding whether they matter is the caller's job.
func (n *Notifier) Send(ctx context.Context, email, code string) error {
	body := fmt.Sprintf(verificationEmailHTML, code, int(CodeTTL.Minutes()))
	if err := n.mailer.SendEmail(ctx, email, verificationSubject, body); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotification, err)
	}
	return nil
}
