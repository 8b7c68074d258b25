package rate

import (
	"context"
	"fmt"
	"time"
)

// CounterStore keeps one counter per action, window and user.
type CounterStore interface {
	Hit(ctx context.Context, action, window string, userID int64, period time.Duration) (int64, time.Duration, error)
	Peek(ctx context.Context, action, window string, userID int64) (int64, time.Duration, error)
}

// Window allows at most Max actions per Period.
type Window struct {
	Name   string
	Period time.Duration
	Max    int
}

type Limiter struct {
	store   CounterStore
	scope   string
	windows []Window
}

func NewLimiter(store CounterStore, scope string, windows ...Window) *Limiter {
	active := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Max <= 0 || w.Period <= 0 || w.Name == "" {
			continue
		}
		active = append(active, w)
	}

	return &Limiter{
		store:   store,
		scope:   scope,
		windows: active,
	}
}

// Allow counts one action for userID in every window and reports how many
// seconds to wait when any window is exceeded.
func (l *Limiter) Allow(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows {
		count, ttl, err := l.store.Hit(ctx, l.scope, w.Name, userID, w.Period)
		if err != nil {
			return 0, false, err
		}
		if count > int64(w.Max) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

func (l *Limiter) RetryAfter(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows {
		count, ttl, err := l.store.Peek(ctx, l.scope, w.Name, userID)
		if err != nil {
			return 0, err
		}
		if count >= int64(w.Max) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	return retryAfterSec, nil
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
