package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/account-core/internal/domain"
	"github.com/njprem/account-core/internal/repository/ports"
)

// OnlinePrecondition is one named eligibility rule for going online. Check
// returns false and a client-facing message when the rule fails. Err, when
// set, is wrapped into the returned error so callers can match it.
type OnlinePrecondition struct {
	Name  string
	Check func(user *domain.User) (bool, string)
	Err   *Error
}

// VerifiedPrecondition requires a verified email address.
func VerifiedPrecondition() OnlinePrecondition {
	return OnlinePrecondition{
		Name: "verified",
		Check: func(user *domain.User) (bool, string) {
			return user.Verified, ErrNotVerified.Message
		},
		Err: ErrNotVerified,
	}
}

// PresenceService drives the offline/online state. Going offline is always
// allowed; going online runs the preconditions in order and aborts on the
// first failure.
type PresenceService struct {
	users         ports.UserRepository
	preconditions []OnlinePrecondition
}

func NewPresenceService(users ports.UserRepository, preconditions ...OnlinePrecondition) *PresenceService {
	if len(preconditions) == 0 {
		preconditions = []OnlinePrecondition{VerifiedPrecondition()}
	}
	return &PresenceService{users: users, preconditions: preconditions}
}

func (s *PresenceService) Status(ctx context.Context, userID uuid.UUID) (domain.UserStatus, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	return normalizedStatus(user.Status), nil
}

func (s *PresenceService) Toggle(ctx context.Context, userID uuid.UUID) (domain.UserStatus, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.transition(ctx, user, normalizedStatus(user.Status).Toggled())
}

// SetStatus moves the user to target. Requesting the current state fails
// with ErrAlreadyInState.
func (s *PresenceService) SetStatus(ctx context.Context, userID uuid.UUID, target domain.UserStatus) (domain.UserStatus, error) {
	if !target.Valid() {
		return "", ErrInvalidStatus
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	if normalizedStatus(user.Status) == target {
		return "", ErrAlreadyInState
	}
	return s.transition(ctx, user, target)
}

func (s *PresenceService) transition(ctx context.Context, user *domain.User, target domain.UserStatus) (domain.UserStatus, error) {
	if target == domain.UserStatusOnline {
		for _, pre := range s.preconditions {
			ok, message := pre.Check(user)
			if ok {
				continue
			}
			sentinel := pre.Err
			if sentinel == nil {
				sentinel = ErrPreconditionFailed
			}
			return "", &Error{Kind: KindPreconditionFailed, Message: message, Err: sentinel}
		}
	}

	updated, err := s.users.UpdateStatus(ctx, user.ID, user.Status, target)
	if err != nil {
		if isNotFound(err) {
			return "", ErrStatusConflict
		}
		return "", dependencyFailure(err)
	}
	return updated.Status, nil
}

func (s *PresenceService) load(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, dependencyFailure(err)
	}
	return user, nil
}

func normalizedStatus(status domain.UserStatus) domain.UserStatus {
	if status == domain.UserStatusOnline {
		return domain.UserStatusOnline
	}
	return domain.UserStatusOffline
}
