package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/njprem/account-core/internal/repository/ports"
)

const namespace = "attempts"

// Rule limits one scope. Max attempts are allowed per Window, after which the
// key is blocked for another Window. Cooldown is the minimum gap between two
// allowed attempts. Zero values disable the respective check.
type Rule struct {
	Max      int
	Window   time.Duration
	Cooldown time.Duration
}

type AttemptLimiter struct {
	client goredis.UniversalClient
	rules  map[string]Rule
}

func NewClient(addr, password string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: addr, Password: password})
}

func NewAttemptLimiter(client goredis.UniversalClient, rules map[string]Rule) *AttemptLimiter {
	return &AttemptLimiter{client: client, rules: rules}
}

// Allow records an attempt for key in scope. Scopes without a rule are never
// limited.
func (l *AttemptLimiter) Allow(ctx context.Context, scope, key string) error {
	rule, ok := l.rules[scope]
	if !ok {
		return nil
	}

	blockKey := l.key("block", scope, key)
	if ttl, err := l.client.TTL(ctx, blockKey).Result(); err != nil {
		return err
	} else if ttl > 0 {
		return fmt.Errorf("%w: %s blocked for %ds", ports.ErrAttemptsExceeded, scope, int(ttl.Seconds()))
	}

	if rule.Cooldown > 0 {
		set, err := l.client.SetNX(ctx, l.key("last", scope, key), "1", rule.Cooldown).Result()
		if err != nil {
			return err
		}
		if !set {
			return fmt.Errorf("%w: %s cooling down", ports.ErrAttemptsExceeded, scope)
		}
	}

	if rule.Max > 0 && rule.Window > 0 {
		cnt, err := l.incrWithExpire(ctx, l.key("count", scope, key), rule.Window)
		if err != nil {
			return err
		}
		if int(cnt) > rule.Max {
			_ = l.client.Set(ctx, blockKey, "1", rule.Window).Err()
			return fmt.Errorf("%w: %s exceeded %d attempts", ports.ErrAttemptsExceeded, scope, rule.Max)
		}
	}
	return nil
}

// Reset forgets every attempt recorded for key in scope.
func (l *AttemptLimiter) Reset(ctx context.Context, scope, key string) error {
	return l.client.Del(ctx,
		l.key("count", scope, key),
		l.key("block", scope, key),
		l.key("last", scope, key),
	).Err()
}

// incrWithExpire bumps the window counter and makes sure it carries a TTL.
// A counter found without one, including one left behind by a failed
// EXPIRE, gets the window applied again so it can never outlive it.
func (l *AttemptLimiter) incrWithExpire(ctx context.Context, countKey string, window time.Duration) (int64, error) {
	var (
		incr *goredis.IntCmd
		ttl  *goredis.DurationCmd
	)
	if _, err := l.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, countKey)
		ttl = pipe.TTL(ctx, countKey)
		return nil
	}); err != nil {
		return 0, err
	}
	if ttl.Val() < 0 {
		if err := l.client.Expire(ctx, countKey, window).Err(); err != nil {
			return 0, err
		}
	}
	return incr.Val(), nil
}

func (l *AttemptLimiter) key(kind, scope, key string) string {
	return fmt.Sprintf("%s:%s:%s:%s", namespace, kind, scope, key)
}

var _ ports.AttemptLimiter = (*AttemptLimiter)(nil)
