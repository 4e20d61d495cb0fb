package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/account-core/internal/domain"
)

type UserRepository interface {
	CreateEmailUser(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error
	// SetResetToken overwrites the outstanding reset token pointer. The last
	// write wins and revokes every earlier token.
	SetResetToken(ctx context.Context, id uuid.UUID, token string) error
	// ResetPassword stores the new credential and clears the reset pointer in
	// one statement, only while the pointer still equals expectedToken.
	// It returns sql.ErrNoRows when the pointer no longer matches.
	ResetPassword(ctx context.Context, id uuid.UUID, expectedToken string, passwordHash, passwordSalt []byte) error
	// UpdateStatus moves presence from one state to another. It returns
	// sql.ErrNoRows when the stored status is not from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.UserStatus) (*domain.User, error)
	List(ctx context.Context, limit, offset int, statuses []domain.UserStatus) ([]domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
