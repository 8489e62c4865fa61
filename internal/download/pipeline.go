package download

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/synthlab/launcher/internal/config"
	"github.com/synthlab/launcher/internal/errs"
)

// withRetry runs fn until it succeeds, the retry budget is exhausted, or
// a non-transient error surfaces. Only network failures are considered
// transient; cooldowns grow exponentially between attempts and the
// context is honored while cooling down.
func withRetry(ctx context.Context, settings *config.Settings, log *zap.Logger, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= settings.DownloadMaxRetries; attempt++ {
		if attempt > 0 {
			cooldown := time.Duration(settings.DownloadRetryCooldown *
				math.Pow(settings.DownloadRetryExponent, float64(attempt-1)) *
				float64(time.Second))
			select {
			case <-ctx.Done():
				return errs.Cancelled(op)
			case <-time.After(cooldown):
			}
			log.Debug("retrying download", zap.String("op", op), zap.Int("attempt", attempt))
		}

		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return errs.Cancelled(op)
		}
		if errs.KindOf(err) != errs.KindNetwork {
			return err
		}
	}
	return err
}
