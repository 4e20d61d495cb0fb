package util

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const resetTokenPurpose = "password_reset"

type ResetClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// ResetTokenSigner signs and verifies password reset tokens. It only enforces
// signature integrity and expiry; whether a token is the current one for its
// user is decided by the stored pointer.
type ResetTokenSigner struct {
	secret []byte
	now    func() time.Time
}

func NewResetTokenSigner(secret string) *ResetTokenSigner {
	return &ResetTokenSigner{secret: []byte(secret), now: time.Now}
}

// Sign embeds email and returns a token valid for ttl. Every call yields a
// distinct token, even within the same second.
func (s *ResetTokenSigner) Sign(email string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", errors.New("reset token: empty email")
	}
	if ttl <= 0 {
		return "", errors.New("reset token: ttl must be positive")
	}
	now := s.now()
	claims := ResetClaims{
		Email:   email,
		Purpose: resetTokenPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the embedded email, ErrTokenExpired or ErrTokenInvalid.
func (s *ResetTokenSigner) Verify(token string) (string, error) {
	claims := &ResetClaims{}
	if err := parseHMAC(token, claims, s.secret, s.now); err != nil {
		return "", err
	}
	if claims.Purpose != resetTokenPurpose || strings.TrimSpace(claims.Email) == "" {
		return "", ErrTokenInvalid
	}
	return claims.Email, nil
}
