package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/account-core/internal/domain"
	"github.com/njprem/account-core/internal/repository/ports"
)

type VerificationOTPRepository struct {
	db *sqlx.DB
}

func NewVerificationOTPRepo(db *sqlx.DB) *VerificationOTPRepository {
	return &VerificationOTPRepository{db: db}
}

func (r *VerificationOTPRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.VerificationOTP, error) {
	const query = `
        SELECT id, user_id, code, expires_at, created_at
        FROM verification_otp
        WHERE user_id = $1
    `
	var otp domain.VerificationOTP
	if err := r.db.GetContext(ctx, &otp, query, userID); err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *VerificationOTPRepository) FindByUserIDAndCode(ctx context.Context, userID uuid.UUID, code string) (*domain.VerificationOTP, error) {
	const query = `
        SELECT id, user_id, code, expires_at, created_at
        FROM verification_otp
        WHERE user_id = $1 AND code = $2
    `
	var otp domain.VerificationOTP
	if err := r.db.GetContext(ctx, &otp, query, userID, code); err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *VerificationOTPRepository) Save(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (*domain.VerificationOTP, error) {
	const query = `
        INSERT INTO verification_otp (user_id, code, expires_at)
        VALUES ($1, $2, $3)
        RETURNING id, user_id, code, expires_at, created_at
    `
	row := r.db.QueryRowxContext(ctx, query, userID, code, expiresAt)
	var otp domain.VerificationOTP
	if err := row.StructScan(&otp); err != nil {
		return nil, err
	}
	return &otp, nil
}

// Replace relies on the unique user_id index so that delete-then-insert is a
// single statement; the row receives a fresh id.
func (r *VerificationOTPRepository) Replace(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (*domain.VerificationOTP, error) {
	const query = `
        INSERT INTO verification_otp (user_id, code, expires_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE
        SET id = gen_random_uuid(),
            code = EXCLUDED.code,
            expires_at = EXCLUDED.expires_at,
            created_at = NOW()
        RETURNING id, user_id, code, expires_at, created_at
    `
	row := r.db.QueryRowxContext(ctx, query, userID, code, expiresAt)
	var otp domain.VerificationOTP
	if err := row.StructScan(&otp); err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *VerificationOTPRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM verification_otp WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *VerificationOTPRepository) ConsumeAndVerify(ctx context.Context, otpID, userID uuid.UUID) error {
	const deleteOTP = `
        DELETE FROM verification_otp
        WHERE id = $1 AND user_id = $2
    `
	const markVerified = `
        UPDATE user_account
        SET verified = TRUE,
            updated_at = NOW()
        WHERE id = $1
    `
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, deleteOTP, otpID, userID)
		if err != nil {
			return err
		}
		if err := expectAffected(result); err != nil {
			return err
		}
		result, err = tx.ExecContext(ctx, markVerified, userID)
		if err != nil {
			return err
		}
		return expectAffected(result)
	})
}

var _ ports.VerificationOTPRepository = (*VerificationOTPRepository)(nil)
