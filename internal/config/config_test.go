package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GMAIL_USER", "")
	t.Setenv("MAIL_TRANSPORT", "")
	t.Setenv("PENDING_RETENTION", "")
	t.Setenv("TRUST_PROXY_HEADERS", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, MailTransportSMTP, cfg.MailTransport)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.Equal(t, "587", cfg.SMTP.Port)
	assert.Equal(t, "signup_verifications", cfg.DynamoTables.PendingSignups)
	assert.Equal(t, 24*time.Hour, cfg.PendingRetention)
	assert.Equal(t, 168*time.Hour, cfg.JWTExpiry)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("GMAIL_USER", "sender@gmail.com")
	t.Setenv("GMAIL_APP_PASSWORD", "app-pass")
	t.Setenv("MAIL_TRANSPORT", "SendGrid")
	t.Setenv("PENDING_RETENTION", "90m")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg := Load()

	assert.Equal(t, "sender@gmail.com", cfg.SMTP.User)
	assert.Equal(t, "app-pass", cfg.SMTP.AppPassword)
	assert.Equal(t, MailTransportSendGrid, cfg.MailTransport)
	assert.Equal(t, 90*time.Minute, cfg.PendingRetention)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestValidate_SMTPCredentialsRequired(t *testing.T) {
	cfg := &Config{MailTransport: MailTransportSMTP}

	err := cfg.Validate()

	require.Error(t, err)
	assert.ErrorContains(t, err, "GMAIL_USER")
	assert.ErrorContains(t, err, "GMAIL_APP_PASSWORD")
}

func TestValidate_SendGridKeyRequired(t *testing.T) {
	cfg := &Config{MailTransport: MailTransportSendGrid, SendGrid: SendGrid{From: "noreply@x.com"}}
	assert.ErrorContains(t, cfg.Validate(), "SENDGRID_API_KEY")
}

func TestValidate_UnknownTransport(t *testing.T) {
	cfg := &Config{MailTransport: "pigeon"}
	assert.ErrorContains(t, cfg.Validate(), "unknown MAIL_TRANSPORT")
}

func TestValidate_OK(t *testing.T) {
	cfg := &Config{
		MailTransport: MailTransportSMTP,
		SMTP:          SMTP{User: "u@gmail.com", AppPassword: "p"},
	}
	assert.NoError(t, cfg.Validate())
}
