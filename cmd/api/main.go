package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/njprem/account-core/internal/config"
	"github.com/njprem/account-core/internal/logging"
	"github.com/njprem/account-core/internal/media"
	"github.com/njprem/account-core/internal/metrics"
	"github.com/njprem/account-core/internal/repository/minio"
	"github.com/njprem/account-core/internal/repository/ports"
	"github.com/njprem/account-core/internal/repository/postgres"
	"github.com/njprem/account-core/internal/repository/redis"
	"github.com/njprem/account-core/internal/service"
	"github.com/njprem/account-core/internal/transport/mail"
	httpx "github.com/njprem/account-core/internal/transport/http"
	"github.com/njprem/account-core/internal/util"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	logger, closeLogs, err := logging.New(cfg.LogLevel, cfg.LogstashTCPAddr)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closeLogs()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		closeLogs()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer db.Close()

	users := postgres.NewUserRepo(db)
	otps := postgres.NewVerificationOTPRepo(db)
	sessions := postgres.NewSessionRepo(db)
	roles := postgres.NewRoleRepo(db)

	var limiter ports.AttemptLimiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, attempt limits fail open until it recovers", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		limiter = newLimiter(client, cfg)
	} else {
		logger.Info("REDIS_ADDR not set, attempt limiting disabled")
	}

	var storage ports.ObjectStorage
	if cfg.MinIOEndpoint != "" {
		client, err := minio.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			return fmt.Errorf("minio client: %w", err)
		}
		objects := minio.NewStorage(client, cfg.MinIOEndpoint, cfg.MinIOPublicURL, cfg.MinIOUseSSL)
		if err := objects.EnsureBucket(ctx, cfg.MinIOBucketProfile); err != nil {
			return fmt.Errorf("ensure bucket %s: %w", cfg.MinIOBucketProfile, err)
		}
		storage = objects
	} else {
		logger.Info("MINIO_ENDPOINT not set, profile picture upload disabled")
	}

	var notifier ports.Notifier
	if cfg.SMTPHost != "" {
		notifier = mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		logger.Warn("SMTP_HOST not set, notifications will fail", zap.String("policy", cfg.NotifyFailurePolicy))
	}

	m := metrics.New()
	dispatcher := service.NewDispatcher(notifier, cfg.NotifyFailurePolicy, logger.Named("notify"), m)

	otpSvc := service.NewOTPService(users, otps, dispatcher, limiter, m, logger.Named("otp"), cfg.OTPTTL, cfg.OTPResendPolicy)
	jwtManager := util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)
	authSvc := service.NewAuthService(users, roles, sessions, jwtManager, otpSvc, logger.Named("auth"))
	resetSvc := service.NewPasswordResetService(users, sessions, util.NewResetTokenSigner(cfg.ResetTokenSecret), dispatcher, m, logger.Named("reset"), cfg.ResetTokenTTL, cfg.FrontendBaseURL).
		WithPasswordPolicy(cfg.ResetPasswordPolicy)
	inspector := media.NewInspector(cfg.ProfileImageMaxBytes, cfg.ProfileImageMaxDimension)
	userSvc := service.NewUserService(users, roles, sessions, storage, inspector, cfg.MinIOBucketProfile)
	presenceSvc := service.NewPresenceService(users)

	e := httpx.NewRouter(cfg.AllowOrigins, logger.Named("http"), m.Handler())
	httpx.RegisterAuth(e, authSvc, otpSvc, resetSvc)
	httpx.RegisterUsers(e, authSvc, userSvc, presenceSvc)
	httpx.RegisterSwagger(e, "docs/swagger.yaml")

	errCh := make(chan error, 1)
	go func() {
		logger.Info("account api listening", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newLimiter(client goredis.UniversalClient, cfg config.Config) *redis.AttemptLimiter {
	return redis.NewAttemptLimiter(client, map[string]redis.Rule{
		ports.ScopeOTPIssue: {
			Max:      cfg.OTPMaxAttempts,
			Window:   cfg.OTPAttemptWindow,
			Cooldown: cfg.OTPIssueCooldown,
		},
		ports.ScopeOTPVerify: {
			Max:    cfg.OTPMaxAttempts,
			Window: cfg.OTPAttemptWindow,
		},
	})
}
