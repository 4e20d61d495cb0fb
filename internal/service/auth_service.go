package service

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/njprem/account-core/internal/domain"
	"github.com/njprem/account-core/internal/repository/ports"
	"github.com/njprem/account-core/internal/util"
)

type AuthResult struct {
	User         *domain.User
	Token        string
	ExpiresAt    time.Time
	Verification *OTPIssueResult
}

type AuthService struct {
	users    ports.UserRepository
	roles    ports.RoleRepository
	sessions ports.SessionRepository
	jwt      *util.JWTManager
	otp      *OTPService
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(users ports.UserRepository, roles ports.RoleRepository, sessions ports.SessionRepository, jwtManager *util.JWTManager, otp *OTPService, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		roles:    roles,
		sessions: sessions,
		jwt:      jwtManager,
		otp:      otp,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterWithEmail creates an unverified account, assigns the default role,
// opens a session and mails the first verification code. A failed code
// delivery does not undo the registration; the client can request a resend.
func (s *AuthService) RegisterWithEmail(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, withCause(ErrPasswordTooWeak, err.Error(), err)
	}

	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, internalError(err)
	}

	created, err := s.users.CreateEmailUser(ctx, email, hash, salt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyUsed
		}
		return nil, dependencyFailure(err)
	}

	role, err := s.roles.GetOrCreateRole(ctx, domain.RoleNameUser, "Default user role")
	if err != nil {
		return nil, dependencyFailure(err)
	}
	if err := s.roles.AssignUserRole(ctx, created.ID, role.ID); err != nil {
		return nil, dependencyFailure(err)
	}

	user, err := s.loadUser(ctx, created.ID)
	if err != nil {
		return nil, err
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	if s.otp != nil {
		verification, err := s.otp.Issue(ctx, user.Email, true)
		if err != nil {
			s.logger.Warn("initial verification code not sent", zap.String("user_id", user.ID.String()), zap.Error(err))
		} else {
			result.Verification = verification
		}
	}
	return result, nil
}

func (s *AuthService) LoginWithEmail(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, dependencyFailure(err)
	}
	if !user.HasPassword() || !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	loaded, err := s.loadUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, loaded)
}

// Authenticate resolves a bearer token to its user. The token must verify
// and still be backed by an active session row.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	session, err := s.sessions.FindActiveSession(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionInvalid
		}
		return nil, dependencyFailure(err)
	}
	if !session.Usable(s.now()) || session.UserID != claims.UserID {
		return nil, ErrSessionInvalid
	}
	user, err := s.loadUser(ctx, claims.UserID)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.DeactivateSession(ctx, token); err != nil && !isNotFound(err) {
		return dependencyFailure(err)
	}
	return nil
}

// ChangePassword replaces the credential of a signed-in user. Any
// outstanding reset token is revoked together with the old password.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return dependencyFailure(err)
	}
	if !user.HasPassword() || !util.VerifyPassword(currentPassword, user.PasswordSalt, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := util.ValidatePassword(newPassword); err != nil {
		return withCause(ErrPasswordTooWeak, err.Error(), err)
	}
	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return internalError(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash, salt); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return dependencyFailure(err)
	}
	return nil
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID, user.Email, user.Verified)
	if err != nil {
		return nil, internalError(err)
	}
	if _, err := s.sessions.CreateSession(ctx, user.ID, token, expiresAt); err != nil {
		return nil, dependencyFailure(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) loadUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return loadUserWithRoles(ctx, s.users, s.roles, id)
}

func loadUserWithRoles(ctx context.Context, users ports.UserRepository, roles ports.RoleRepository, id uuid.UUID) (*domain.User, error) {
	user, err := users.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, dependencyFailure(err)
	}
	if roles != nil {
		assigned, err := roles.ListByUser(ctx, id)
		if err != nil {
			return nil, dependencyFailure(err)
		}
		user.Roles = assigned
	}
	return user, nil
}
