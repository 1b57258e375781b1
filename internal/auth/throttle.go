package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const throttleKeyPrefix = "auth:login_failures:"

// LoginThrottle counts failed login attempts per identifier in redis and
// blocks further attempts once the limit is reached within the window.
// A nil throttle or missing client disables throttling entirely.
type LoginThrottle struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewLoginThrottle instantiates the throttle helper.
func NewLoginThrottle(client *redis.Client, limit int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, limit: limit, window: window}
}

// Blocked reports whether the identifier has exhausted its attempts. Redis
// errors fail open: an unavailable throttle never locks out logins.
func (t *LoginThrottle) Blocked(ctx context.Context, identifier string) bool {
	if t == nil || t.client == nil || t.limit <= 0 {
		return false
	}
	count, err := t.client.Get(ctx, throttleKeyPrefix+identifier).Int()
	if err != nil {
		return false
	}
	return count >= t.limit
}

// RecordFailure increments the failure counter, starting the expiry window
// on the first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, identifier string) {
	if t == nil || t.client == nil {
		return
	}
	key := throttleKeyPrefix + identifier
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return
	}
	if count == 1 {
		_ = t.client.Expire(ctx, key, t.window).Err()
	}
}

// Reset clears the failure counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, identifier string) {
	if t == nil || t.client == nil {
		return
	}
	_ = t.client.Del(ctx, throttleKeyPrefix+identifier).Err()
}
