package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/keepsake-api/internal/application/identity"
	"github.com/keepsake-api/internal/application/signup"
	"github.com/keepsake-api/internal/config"
	"github.com/keepsake-api/internal/infrastructure/awsconf"
	"github.com/keepsake-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/keepsake-api/internal/infrastructure/jwt"
	"github.com/keepsake-api/internal/infrastructure/sendgrid"
	"github.com/keepsake-api/internal/infrastructure/smtp"
	"github.com/keepsake-api/internal/infrastructure/sns"
	"github.com/keepsake-api/internal/observability/metrics"
	transporthttp "github.com/keepsake-api/internal/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconf.Load(ctx, cfg)
	if err != nil {
		log.Fatalf("aws: %v", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
	pendingRepo := dynamo.NewPendingSignupRepo(dynamoClient, cfg.DynamoTables.PendingSignups)
	accountRepo := dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts)

	mailer, err := newMailer(cfg)
	if err != nil {
		log.Fatalf("mailer: %v", err)
	}

	// JWT provider (optional: sign-in is disabled when keys are missing).
	var jwtProvider *jwtinfra.Provider
	var signer interface {
		Sign(accountID, email string) (string, error)
	}
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
		signer = p
	} else {
		slog.Warn("JWT provider not available, sign-in disabled", "err", err)
	}
	identitySvc := identity.NewService(accountRepo, signer)

	deps := signup.ServiceDeps{
		Store:    pendingRepo,
		Identity: identitySvc,
		Notifier: signup.NewNotifier(mailer),
	}
	if cfg.OperatorTopicARN != "" {
		pub, err := sns.NewPublisher(awsCfg, cfg.AWSEndpointURL, cfg.OperatorTopicARN)
		if err != nil {
			log.Fatalf("sns: %v", err)
		}
		deps.Operator = pub
	}
	signupSvc := signup.NewService(deps)

	var scheduler *cron.Cron
	if cfg.PendingSweepSchedule != "" {
		scheduler = cron.New()
		sweeper := signup.NewSweeper(pendingRepo, cfg.PendingRetention)
		if _, err := sweeper.Schedule(scheduler, cfg.PendingSweepSchedule); err != nil {
			log.Fatalf("invalid PENDING_SWEEP_SCHEDULE %q: %v", cfg.PendingSweepSchedule, err)
		}
		scheduler.Start()
		slog.Info("pending signup sweeper scheduled", "schedule", cfg.PendingSweepSchedule, "retention", cfg.PendingRetention)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)

	router := transporthttp.NewRouter(ctx, cfg, &transporthttp.Deps{
		Signup:      signupSvc,
		Identity:    identitySvc,
		JWTProvider: jwtProvider,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "mail_transport", cfg.MailTransport)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	slog.Info("server stopped")
}

func newMailer(cfg *config.Config) (signup.Mailer, error) {
	switch cfg.MailTransport {
	case config.MailTransportSendGrid:
		return sendgrid.NewMailer(cfg.SendGrid, cfg.SMTP.FromName)
	default:
		return smtp.NewMailer(cfg.SMTP)
	}
}

// newLogger emits JSON in production and text elsewhere.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.AppEnv, "production") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
