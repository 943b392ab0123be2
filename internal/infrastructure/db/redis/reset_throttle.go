package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultResetWindow = 15 * time.Minute

// ResetThrottle collapses repeated password-reset requests for the same
// account within a window.
// Key format: pwreset:<identity_id>
type ResetThrottle struct {
	client redis.Cmdable
	window time.Duration
}

// NewResetThrottle wraps client. A non-positive window uses 15 minutes.
func NewResetThrottle(client redis.Cmdable, window time.Duration) *ResetThrottle {
	if window <= 0 {
		window = defaultResetWindow
	}
	return &ResetThrottle{client: client, window: window}
}

// Track reports true for the first request in the window and false for
// every repeat until the key expires.
func (t *ResetThrottle) Track(ctx context.Context, identityID string) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.key(identityID), time.Now().UTC().Unix(), t.window).Result()
	if err != nil {
		return false, fmt.Errorf("reset throttle: %w", err)
	}
	return ok, nil
}

func (t *ResetThrottle) key(identityID string) string {
	return "pwreset:" + identityID
}
