package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/njprem/account-core/internal/config"
	"github.com/njprem/account-core/internal/domain"
	"github.com/njprem/account-core/internal/repository/ports"
	"github.com/njprem/account-core/internal/util"
)

const (
	otpMin = 1000
	otpMax = 9999

	DefaultOTPTTL = 5 * time.Minute
)

type OTPIssueResult struct {
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OTPService issues and consumes the email verification passcode. A user
// holds at most one live code; the store enforces it with a unique user_id.
type OTPService struct {
	users        ports.UserRepository
	otps         ports.VerificationOTPRepository
	dispatcher   *Dispatcher
	limiter      ports.AttemptLimiter
	events       EventRecorder
	logger       *zap.Logger
	ttl          time.Duration
	resendPolicy string

	now      func() time.Time
	generate func() (string, error)
}

func NewOTPService(users ports.UserRepository, otps ports.VerificationOTPRepository, dispatcher *Dispatcher, limiter ports.AttemptLimiter, events EventRecorder, logger *zap.Logger, ttl time.Duration, resendPolicy string) *OTPService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	if resendPolicy != config.OTPResendReject {
		resendPolicy = config.OTPResendReplace
	}
	if events == nil {
		events = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OTPService{
		users:        users,
		otps:         otps,
		dispatcher:   dispatcher,
		limiter:      limiter,
		events:       events,
		logger:       logger,
		ttl:          ttl,
		resendPolicy: resendPolicy,
		now:          time.Now,
		generate:     func() (string, error) { return util.GenerateOTPInRange(otpMin, otpMax) },
	}
}

// Issue creates a fresh code for the user behind email and mails it. Under
// the replace policy every issuance revokes the previous code. Under reject,
// a non-resend request fails while a live code exists.
func (s *OTPService) Issue(ctx context.Context, email string, resend bool) (*OTPIssueResult, error) {
	email = normalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, dependencyFailure(err)
	}

	if err := s.allow(ctx, ports.ScopeOTPIssue, user.Email); err != nil {
		s.events.CredentialEvent("otp_issue", "rate_limited")
		return nil, err
	}

	code, err := s.generate()
	if err != nil {
		return nil, internalError(err)
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)

	var otp *domain.VerificationOTP
	if s.resendPolicy == config.OTPResendReject && !resend {
		otp, err = s.insertFresh(ctx, user.ID, code, expiresAt, now)
	} else {
		otp, err = s.otps.Replace(ctx, user.ID, code, expiresAt)
	}
	if err != nil {
		var typed *Error
		if errors.As(err, &typed) {
			s.events.CredentialEvent("otp_issue", string(typed.Kind))
			return nil, err
		}
		return nil, dependencyFailure(err)
	}

	if err := s.dispatcher.Dispatch(ctx, ports.Message{
		FromTag: tagVerification,
		To:      user.Email,
		Subject: "Your verification code",
		Body:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.\n\nIf you did not request this, ignore this email.", code, int(s.ttl.Minutes())),
	}); err != nil {
		s.events.CredentialEvent("otp_issue", "notify_failed")
		return nil, err
	}

	s.events.CredentialEvent("otp_issue", "success")
	return &OTPIssueResult{UserID: user.ID, ExpiresAt: otp.ExpiresAt}, nil
}

// insertFresh relies on the unique user_id constraint: a conflicting live
// record rejects the issuance, an expired one is replaced.
func (s *OTPService) insertFresh(ctx context.Context, userID uuid.UUID, code string, expiresAt, now time.Time) (*domain.VerificationOTP, error) {
	otp, err := s.otps.Save(ctx, userID, code, expiresAt)
	if err == nil {
		return otp, nil
	}
	if !isUniqueViolation(err) {
		return nil, err
	}
	existing, findErr := s.otps.FindByUserID(ctx, userID)
	switch {
	case findErr == nil && !existing.Expired(now):
		return nil, ErrOTPAlreadyIssued
	case findErr != nil && !isNotFound(findErr):
		return nil, findErr
	}
	return s.otps.Replace(ctx, userID, code, expiresAt)
}

// Verify consumes code and marks the user verified. The OTP delete and the
// verified flag are applied in one store transaction, so a code can succeed
// at most once even under concurrent submissions.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return dependencyFailure(err)
	}
	if user.Verified {
		s.events.CredentialEvent("otp_verify", string(KindAlreadyVerified))
		return ErrAlreadyVerified
	}

	if err := s.allow(ctx, ports.ScopeOTPVerify, user.Email); err != nil {
		s.events.CredentialEvent("otp_verify", "rate_limited")
		return err
	}

	otp, err := s.otps.FindByUserIDAndCode(ctx, user.ID, strings.TrimSpace(code))
	if err != nil {
		if isNotFound(err) {
			s.events.CredentialEvent("otp_verify", string(KindInvalidCredential))
			return ErrOTPInvalid
		}
		return dependencyFailure(err)
	}

	// Expired codes stay stored so every later submission reports expiry;
	// the next issuance overwrites them.
	if otp.Expired(s.now()) {
		s.events.CredentialEvent("otp_verify", string(KindExpired))
		return ErrOTPExpired
	}

	if err := s.otps.ConsumeAndVerify(ctx, otp.ID, user.ID); err != nil {
		if isNotFound(err) {
			s.events.CredentialEvent("otp_verify", string(KindInvalidCredential))
			return ErrOTPInvalid
		}
		return dependencyFailure(err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, ports.ScopeOTPVerify, user.Email); err != nil {
			s.logger.Warn("failed to reset verification attempts", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}
	s.events.CredentialEvent("otp_verify", "success")
	return nil
}

// allow consults the attempt limiter. Limiter outages fail open; only an
// explicit limit rejects the request.
func (s *OTPService) allow(ctx context.Context, scope, key string) error {
	if s.limiter == nil {
		return nil
	}
	err := s.limiter.Allow(ctx, scope, key)
	if err == nil {
		return nil
	}
	if errors.Is(err, ports.ErrAttemptsExceeded) {
		return withCause(ErrOTPRateLimited, "", err)
	}
	s.logger.Warn("attempt limiter unavailable", zap.String("scope", scope), zap.Error(err))
	return nil
}
