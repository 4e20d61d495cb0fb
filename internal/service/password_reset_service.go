package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/njprem/account-core/internal/config"
	"github.com/njprem/account-core/internal/domain"
	"github.com/njprem/account-core/internal/repository/ports"
	"github.com/njprem/account-core/internal/util"
)

const DefaultResetTokenTTL = 10 * time.Minute

// TokenSigner signs reset tokens and verifies signature and expiry.
type TokenSigner interface {
	Sign(email string, ttl time.Duration) (string, error)
	Verify(token string) (string, error)
}

// PasswordResetService manages signed reset tokens. A token is valid only
// while it verifies cryptographically and equals the user's stored reset
// pointer; issuing a new token overwrites the pointer and so revokes every
// earlier token.
type PasswordResetService struct {
	users      ports.UserRepository
	sessions   ports.SessionRepository
	signer     TokenSigner
	dispatcher *Dispatcher
	events     EventRecorder
	logger     *zap.Logger
	ttl        time.Duration
	linkBase   string

	// passwordPolicy is config.ResetPasswordAny or config.ResetPasswordStrong.
	passwordPolicy string
}

func NewPasswordResetService(users ports.UserRepository, sessions ports.SessionRepository, signer TokenSigner, dispatcher *Dispatcher, events EventRecorder, logger *zap.Logger, ttl time.Duration, frontendBaseURL string) *PasswordResetService {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	if events == nil {
		events = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordResetService{
		users:      users,
		sessions:   sessions,
		signer:     signer,
		dispatcher: dispatcher,
		events:     events,
		logger:     logger,
		ttl:        ttl,
		linkBase:   strings.TrimRight(frontendBaseURL, "/"),

		passwordPolicy: config.ResetPasswordAny,
	}
}

// WithPasswordPolicy selects how Consume checks the new password. Unknown
// values select the default, which only rejects an empty password.
func (s *PasswordResetService) WithPasswordPolicy(policy string) *PasswordResetService {
	if policy == config.ResetPasswordStrong {
		s.passwordPolicy = config.ResetPasswordStrong
	} else {
		s.passwordPolicy = config.ResetPasswordAny
	}
	return s
}

// RequestReset starts the reset flow for email. Token material is only ever
// delivered through the notification channel.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	return s.IssueToken(ctx, email)
}

func (s *PasswordResetService) IssueToken(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return dependencyFailure(err)
	}

	token, err := s.signer.Sign(user.Email, s.ttl)
	if err != nil {
		return dependencyFailure(err)
	}
	if err := s.users.SetResetToken(ctx, user.ID, token); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return dependencyFailure(err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.linkBase, url.QueryEscape(token))
	if err := s.dispatcher.Dispatch(ctx, ports.Message{
		FromTag: tagPasswordReset,
		To:      user.Email,
		Subject: "Reset your password",
		Body:    fmt.Sprintf("Use the link below to reset your password. It expires in %d minutes.\n\n%s\n\nIf you did not request this, ignore this email.", int(s.ttl.Minutes()), link),
	}); err != nil {
		s.events.CredentialEvent("reset_issue", "notify_failed")
		return err
	}
	s.events.CredentialEvent("reset_issue", "success")
	return nil
}

// VerifyToken reports whether token could currently be consumed.
func (s *PasswordResetService) VerifyToken(ctx context.Context, token string) (bool, error) {
	if _, err := s.validate(ctx, token); err != nil {
		s.events.CredentialEvent("reset_verify", string(KindOf(err)))
		return false, err
	}
	s.events.CredentialEvent("reset_verify", "success")
	return true, nil
}

// Consume sets a new password. It re-runs the full token validation and then
// swaps the credential only while the stored pointer still equals token, so
// a token can be consumed at most once.
func (s *PasswordResetService) Consume(ctx context.Context, token, newPassword string) error {
	user, err := s.validate(ctx, token)
	if err != nil {
		s.events.CredentialEvent("reset_consume", string(KindOf(err)))
		return err
	}
	if err := s.checkPassword(newPassword); err != nil {
		return withCause(ErrPasswordTooWeak, err.Error(), err)
	}
	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return internalError(err)
	}

	if err := s.users.ResetPassword(ctx, user.ID, token, hash, salt); err != nil {
		if isNotFound(err) {
			s.events.CredentialEvent("reset_consume", string(KindInvalidCredential))
			return ErrResetTokenInvalid
		}
		return dependencyFailure(err)
	}

	if s.sessions != nil {
		if err := s.sessions.DeactivateUserSessions(ctx, user.ID); err != nil {
			s.logger.Warn("failed to revoke sessions after password reset", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	if err := s.dispatcher.Dispatch(ctx, ports.Message{
		FromTag: tagSecurity,
		To:      user.Email,
		Subject: "Your password was changed",
		Body:    "Your password has just been reset. If this was not you, contact support immediately.",
	}); err != nil {
		s.events.CredentialEvent("reset_consume", "notify_failed")
		return err
	}
	s.events.CredentialEvent("reset_consume", "success")
	return nil
}

func (s *PasswordResetService) checkPassword(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if s.passwordPolicy == config.ResetPasswordStrong {
		return util.ValidatePassword(password)
	}
	return nil
}

func (s *PasswordResetService) validate(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrResetTokenSignature
	}
	email, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, util.ErrTokenExpired) {
			return nil, ErrResetTokenExpired
		}
		return nil, ErrResetTokenSignature
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, dependencyFailure(err)
	}
	if user.ResetToken == nil || !util.SecureEqual(*user.ResetToken, token) {
		return nil, ErrResetTokenInvalid
	}
	return user, nil
}
