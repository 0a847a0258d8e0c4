package retry

import (
	"context"
	"time"

	"github.com/mapperinfluences/backend/internal/logger"
	"go.uber.org/zap"
)

// fibBackoff generates the cooldown sequence 1, 1, 2, 3, 5, 8, ... seconds,
// capped at the longest cooldown passed to next. The sequence is part of the
// operational signature of the service; keep it intact.
type fibBackoff struct {
	last     uint32
	cooldown uint32
}

func newFibBackoff() fibBackoff {
	return fibBackoff{last: 0, cooldown: 1}
}

// next returns the cooldown for the current failure and advances the sequence.
func (b *fibBackoff) next(longest uint32) uint32 {
	current := b.cooldown
	if current > longest {
		current = longest
	}
	temp := b.cooldown
	b.cooldown += b.last
	if b.cooldown > longest {
		b.cooldown = longest
	}
	b.last = temp
	return current
}

// UntilSuccess drives fn to eventual success, sleeping between attempts with
// Fibonacci backoff capped at longestCooldown seconds. Transient failures are
// logged with the given message prefix and never surfaced. The only way out
// without a value is context cancellation, so background loops can be shut
// down with the process.
func UntilSuccess[T any](ctx context.Context, longestCooldown uint32, message string, fn func() (T, error)) (T, error) {
	backoff := newFibBackoff()
	attempt := 1
	for {
		value, err := fn()
		if err == nil {
			return value, nil
		}

		cooldown := backoff.next(longestCooldown)
		logger.Log.Error(message,
			zap.Int("attempt", attempt),
			zap.Uint32("cooldown_secs", cooldown),
			zap.Error(err),
		)
		attempt++

		timer := time.NewTimer(time.Duration(cooldown) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
