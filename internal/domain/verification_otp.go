package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationOTP is the single live email verification code of a user.
type VerificationOTP struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Code      string    `db:"code" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (o *VerificationOTP) Expired(now time.Time) bool {
	return o.ExpiresAt.Before(now)
}
