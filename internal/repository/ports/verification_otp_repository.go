package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/account-core/internal/domain"
)

type VerificationOTPRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.VerificationOTP, error)
	FindByUserIDAndCode(ctx context.Context, userID uuid.UUID, code string) (*domain.VerificationOTP, error)
	// Save inserts a record. It fails with a unique violation when the user
	// already holds a live code.
	Save(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (*domain.VerificationOTP, error)
	// Replace removes any record of the user and inserts the new one atomically.
	Replace(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (*domain.VerificationOTP, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ConsumeAndVerify deletes the record and marks the owner verified in a
	// single transaction. It returns sql.ErrNoRows when the record is gone.
	ConsumeAndVerify(ctx context.Context, otpID, userID uuid.UUID) error
}
