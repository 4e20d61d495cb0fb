package ports

import (
	"context"
	"errors"
)

// ErrAttemptsExceeded is returned by AttemptLimiter.Allow when the caller
// must back off.
var ErrAttemptsExceeded = errors.New("attempt limit exceeded")

const (
	ScopeOTPIssue  = "otp_issue"
	ScopeOTPVerify = "otp_verify"
)

// AttemptLimiter throttles credential operations per scope and key.
type AttemptLimiter interface {
	Allow(ctx context.Context, scope, key string) error
	Reset(ctx context.Context, scope, key string) error
}
