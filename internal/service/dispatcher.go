package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/njprem/account-core/internal/config"
	"github.com/njprem/account-core/internal/repository/ports"
)

// EventRecorder receives counters for credential operations. The metrics
// package provides the Prometheus implementation.
type EventRecorder interface {
	NotificationFailed(tag string)
	CredentialEvent(event, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) NotificationFailed(string)      {}
func (nopRecorder) CredentialEvent(string, string) {}

const (
	tagVerification  = "Account Verification"
	tagPasswordReset = "Password Reset"
	tagSecurity      = "Account Security"
)

// Dispatcher sends notifications after a store mutation has already
// succeeded. Under the best_effort policy a delivery failure is logged and
// counted but never changes the caller's result; under strict it surfaces as
// a dependency failure.
type Dispatcher struct {
	notifier ports.Notifier
	policy   string
	logger   *zap.Logger
	events   EventRecorder
}

func NewDispatcher(notifier ports.Notifier, policy string, logger *zap.Logger, events EventRecorder) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = nopRecorder{}
	}
	if policy != config.NotifyStrict {
		policy = config.NotifyBestEffort
	}
	return &Dispatcher{notifier: notifier, policy: policy, logger: logger, events: events}
}

func (d *Dispatcher) Dispatch(ctx context.Context, msg ports.Message) error {
	var err error
	if d.notifier == nil {
		err = errNotifierMissing
	} else {
		err = d.notifier.Send(ctx, msg)
	}
	if err == nil {
		return nil
	}

	d.events.NotificationFailed(msg.FromTag)
	d.logger.Error("notification delivery failed",
		zap.String("tag", msg.FromTag),
		zap.String("subject", msg.Subject),
		zap.String("policy", d.policy),
		zap.Error(err),
	)
	if d.policy == config.NotifyStrict {
		return withCause(ErrNotificationFailed, "", err)
	}
	return nil
}

var errNotifierMissing = &Error{Kind: KindInternal, Message: "notifier not configured"}
