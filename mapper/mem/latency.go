package mem

import (
	"context"
	"time"
)

// handleWithLatency allows introduction of artificial latency while handling
// context cancellation.
func handleWithLatency(latency time.Duration, ctx context.Context, handler func() error) error {
	if latency == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return handler()
	}
	select {
	case <-ctx.Done():
		// Monitor context cancellation. Cancellation may happen if the client
		// closed the connection or if the configured request timeout has been
		// reached.
		return ctx.Err()
	case <-time.After(latency):
		return handler()
	}
}
