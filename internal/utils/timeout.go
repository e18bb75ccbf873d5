package utils

import (
	"context"
	"time"
)

const (
	DBTimeout      = 5 * time.Second
	ReleaseTimeout = 5 * time.Second
)

func WithDBTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DBTimeout)
}

// Detached keeps ctx's values but not its cancellation, bounded by d. Used for
// cleanup that has to finish after the client hung up.
func Detached(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}
