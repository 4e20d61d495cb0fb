package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/njprem/account-core/internal/domain"
	"github.com/njprem/account-core/internal/media"
	"github.com/njprem/account-core/internal/repository/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

var ErrNothingToUpdate = &Error{Kind: KindInvalidInput, Message: "no fields to update"}

type UserService struct {
	users     ports.UserRepository
	roles     ports.RoleRepository
	sessions  ports.SessionRepository
	storage   ports.ObjectStorage
	inspector *media.Inspector
	bucket    string
}

func NewUserService(users ports.UserRepository, roles ports.RoleRepository, sessions ports.SessionRepository, storage ports.ObjectStorage, inspector *media.Inspector, bucket string) *UserService {
	if inspector == nil {
		inspector = media.NewInspector(0, 0)
	}
	return &UserService{
		users:     users,
		roles:     roles,
		sessions:  sessions,
		storage:   storage,
		inspector: inspector,
		bucket:    bucket,
	}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return loadUserWithRoles(ctx, s.users, s.roles, id)
}

// List pages through users, optionally filtered by presence.
func (s *UserService) List(ctx context.Context, limit, offset int, statuses []string) ([]domain.User, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	filter := make([]domain.UserStatus, 0, len(statuses))
	for _, raw := range statuses {
		raw = strings.ToLower(strings.TrimSpace(raw))
		if raw == "" {
			continue
		}
		status := domain.UserStatus(raw)
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		filter = append(filter, status)
	}

	users, err := s.users.List(ctx, limit, offset, filter)
	if err != nil {
		return nil, dependencyFailure(err)
	}
	return users, nil
}

// UpdateContact changes name, phone and address. The image URL is only set
// through UpdateProfilePicture.
func (s *UserService) UpdateContact(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.User, error) {
	update.ImageURL = nil
	update.FullName = trimmed(update.FullName)
	update.Phone = trimmed(update.Phone)
	update.Address = trimmed(update.Address)
	if update.FullName == nil && update.Phone == nil && update.Address == nil {
		return nil, ErrNothingToUpdate
	}
	return s.applyUpdate(ctx, id, update)
}

func (s *UserService) UpdateProfilePicture(ctx context.Context, id uuid.UUID, r io.Reader) (*domain.User, error) {
	if s.storage == nil {
		return nil, internalError(errors.New("object storage not configured"))
	}
	img, err := s.inspector.Inspect(r)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrTooLarge):
			return nil, withCause(ErrImageTooLarge, "", err)
		case errors.Is(err, media.ErrEmpty), errors.Is(err, media.ErrUnsupported), errors.Is(err, media.ErrDimensions):
			return nil, withCause(ErrImageInvalid, "", err)
		default:
			return nil, internalError(err)
		}
	}

	if _, err := s.users.FindByID(ctx, id); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, dependencyFailure(err)
	}

	objectName := fmt.Sprintf("profiles/%s/%s%s", id, uuid.NewString(), img.Extension)
	url, err := s.storage.Upload(ctx, s.bucket, objectName, img.ContentType, bytes.NewReader(img.Bytes), int64(len(img.Bytes)))
	if err != nil {
		return nil, dependencyFailure(err)
	}
	return s.applyUpdate(ctx, id, domain.ProfileUpdate{ImageURL: &url})
}

// Delete removes the account after revoking its sessions.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.sessions != nil {
		if err := s.sessions.DeactivateUserSessions(ctx, id); err != nil {
			return dependencyFailure(err)
		}
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return dependencyFailure(err)
	}
	return nil
}

func (s *UserService) applyUpdate(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.User, error) {
	if _, err := s.users.UpdateProfile(ctx, id, update); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, dependencyFailure(err)
	}
	return loadUserWithRoles(ctx, s.users, s.roles, id)
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}
