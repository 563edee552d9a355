package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle counts failed attempts per (realm, login) in Redis with a
// sliding expiry. Redis being down fails open: throttling is a hardening
// layer, not the authentication decision.
type LoginThrottle struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewLoginThrottle constructs a throttle. A nil client disables throttling.
func NewLoginThrottle(client *redis.Client, max int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, max: max, window: window}
}

func throttleKey(realm Realm, login string) string {
	return fmt.Sprintf("login:fail:%s:%s", realm, login)
}

// Blocked reports whether the login has exceeded the failure budget.
func (t *LoginThrottle) Blocked(ctx context.Context, realm Realm, login string) (bool, error) {
	if t == nil || t.client == nil || t.max <= 0 {
		return false, nil
	}
	count, err := t.client.Get(ctx, throttleKey(realm, login)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return count >= t.max, nil
}

// RecordFailure increments the failure counter, starting the window on the
// first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, realm Realm, login string) error {
	if t == nil || t.client == nil {
		return nil
	}
	key := throttleKey(realm, login)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return t.client.Expire(ctx, key, t.window).Err()
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, realm Realm, login string) error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Del(ctx, throttleKey(realm, login)).Err()
}
