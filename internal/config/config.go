package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	MailTransportSMTP     = "smtp"
	MailTransportSendGrid = "sendgrid"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	MailTransport string // "smtp" | "sendgrid"
	SMTP          SMTP
	SendGrid      SendGrid

	OperatorTopicARN     string // optional SNS topic receiving undelivered codes
	PendingSweepSchedule string // cron spec; empty disables the sweeper
	PendingRetention     time.Duration

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	PendingSignups string
	Accounts       string
}

// SMTP holds the credentials of the mailbox that sends verification codes.
type SMTP struct {
	Host        string
	Port        string
	User        string
	AppPassword string
	FromName    string
}

type SendGrid struct {
	APIKey  string
	From    string
	Sandbox bool
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			PendingSignups: getEnv("DYNAMO_TABLE_PENDING_SIGNUPS", "signup_verifications"),
			Accounts:       getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
		},
		MailTransport: strings.ToLower(getEnv("MAIL_TRANSPORT", MailTransportSMTP)),
		SMTP: SMTP{
			Host:        getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:        getEnv("SMTP_PORT", "587"),
			User:        getEnv("GMAIL_USER", ""),
			AppPassword: getEnv("GMAIL_APP_PASSWORD", ""),
			FromName:    getEnv("MAIL_FROM_NAME", "Keepsake"),
		},
		SendGrid: SendGrid{
			APIKey:  getEnv("SENDGRID_API_KEY", ""),
			From:    getEnv("SENDGRID_FROM", ""),
			Sandbox: getEnvBool("SENDGRID_SANDBOX", false),
		},
		OperatorTopicARN:     getEnv("OPERATOR_TOPIC_ARN", ""),
		PendingSweepSchedule: getEnv("PENDING_SWEEP_SCHEDULE", ""),
		PendingRetention:     getEnvDuration("PENDING_RETENTION", 24*time.Hour),
		JWTPrivateKeyPath:    getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:     getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:            time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 168)) * time.Hour,
		AllowedOrigins:       strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		RateLimitRPS:         getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:       getEnvInt("RATE_LIMIT_BURST", 10),
		TrustProxyHeaders:    getEnvBool("TRUST_PROXY_HEADERS", false),
	}
}

// Validate reports configuration the service cannot start without.
// Mail credentials are checked here so a missing secret fails at startup
// instead of at the first signup.
func (c *Config) Validate() error {
	var errs []error
	switch c.MailTransport {
	case MailTransportSMTP:
		if c.SMTP.User == "" {
			errs = append(errs, errors.New("GMAIL_USER is not set"))
		}
		if c.SMTP.AppPassword == "" {
			errs = append(errs, errors.New("GMAIL_APP_PASSWORD is not set"))
		}
	case MailTransportSendGrid:
		if c.SendGrid.APIKey == "" {
			errs = append(errs, errors.New("SENDGRID_API_KEY is not set"))
		}
		if c.SendGrid.From == "" {
			errs = append(errs, errors.New("SENDGRID_FROM is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_TRANSPORT %q", c.MailTransport))
	}
	if c.PendingRetention < 0 {
		errs = append(errs, errors.New("PENDING_RETENTION must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
