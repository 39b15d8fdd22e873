package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const defaultDraftsPerMinute = 30

// rateLimiter is a token bucket of drafting requests. The buffered channel
// holds the available tokens; a refill goroutine tops it up evenly across
// each minute.
type rateLimiter struct {
	tokens chan struct{}
	stop   chan struct{}
	once   sync.Once
}

func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		perMinute = defaultDraftsPerMinute
	}

	rl := &rateLimiter{
		tokens: make(chan struct{}, perMinute),
		stop:   make(chan struct{}),
	}
	for range perMinute {
		rl.tokens <- struct{}{}
	}

	go rl.refill(time.Minute / time.Duration(perMinute))
	return rl
}

// wait takes a token, blocking until one is available or ctx is done.
func (rl *rateLimiter) wait(ctx context.Context) error {
	select {
	case <-rl.tokens:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
	}
}

func (rl *rateLimiter) tryAcquire() bool {
	select {
	case <-rl.tokens:
		return true
	default:
		return false
	}
}

func (rl *rateLimiter) refill(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			select {
			case rl.tokens <- struct{}{}:
			default: // bucket full
			}
		}
	}
}

// Close stops the refill goroutine. Safe to call more than once.
func (rl *rateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}
