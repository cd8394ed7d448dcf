package vectorstore

import (
	"context"
	"time"

	"docchat/config"
	"docchat/pkg/logger"

	"github.com/sethvargo/go-retry"
)

var (
	dialAttempts uint64 = 10
	dialBase            = 500 * time.Millisecond
	dialCap             = 5 * time.Second
)

// dial retries connect with capped exponential backoff until ctx ends.
func dial(ctx context.Context, backend string, connect func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(dialAttempts, retry.WithCappedDuration(dialCap, retry.NewExponential(dialBase)))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := connect(ctx); err != nil {
			logger.WithFields(map[string]interface{}{
				"module":  config.ModuleVectorStore,
				"backend": backend,
				"attempt": attempt,
				"error":   err,
			}).Warn("vector store not reachable yet")
			return retry.RetryableError(err)
		}
		return nil
	})
}
