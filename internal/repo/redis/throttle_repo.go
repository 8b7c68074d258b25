package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const throttlePrefix = "bot_throttle:"

// ThrottleRepo counts participant actions in fixed windows. A counter lives
// under bot_throttle:<action>:<window>:<user id> and expires with its window.
type ThrottleRepo struct {
	client *goredis.Client
}

func NewThrottleRepo(client *goredis.Client) *ThrottleRepo {
	return &ThrottleRepo{client: client}
}

func throttleKey(action, window string, userID int64) string {
	return throttlePrefix + action + ":" + window + ":" + strconv.FormatInt(userID, 10)
}

// Hit counts one action of userID and returns the hits in the current window
// together with the time left until it resets.
func (r *ThrottleRepo) Hit(ctx context.Context, action, window string, userID int64, period time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if action == "" || window == "" || userID <= 0 || period <= 0 {
		return 0, 0, fmt.Errorf("invalid %q throttle window for user %d", action, userID)
	}
	key := throttleKey(action, window, userID)

	var (
		hits *goredis.IntCmd
		left *goredis.DurationCmd
	)
	if _, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		hits = pipe.Incr(ctx, key)
		left = pipe.PTTL(ctx, key)
		return nil
	}); err != nil {
		return 0, 0, fmt.Errorf("count %s action: %w", action, err)
	}

	resetIn := left.Val()
	if resetIn < 0 {
		// The first hit opens the window.
		if err := r.client.PExpire(ctx, key, period).Err(); err != nil {
			return 0, 0, fmt.Errorf("open %s window: %w", action, err)
		}
		resetIn = period
	}
	return hits.Val(), resetIn, nil
}

// Peek reads the window of userID without counting a hit.
func (r *ThrottleRepo) Peek(ctx context.Context, action, window string, userID int64) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	key := throttleKey(action, window, userID)

	var (
		hits *goredis.StringCmd
		left *goredis.DurationCmd
	)
	_, err := r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		hits = pipe.Get(ctx, key)
		left = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return 0, 0, fmt.Errorf("read %s window: %w", action, err)
	}

	count, err := hits.Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("parse %s window: %w", action, err)
	}
	return count, max(left.Val(), 0), nil
}
