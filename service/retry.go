package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	retryMaxAttempts  = 3
	retryInitialDelay = 2 * time.Second
)

// retryAI 外部 AI 调用统一的指数退避重试（最多 3 次）
func retryAI(ctx context.Context, log *zap.Logger, operation string, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialDelay
	attempt := 0

	notify := func(err error, delay time.Duration) {
		attempt++
		log.Warn("AI 调用失败，准备重试",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}

	return backoff.RetryNotify(fn,
		backoff.WithContext(backoff.WithMaxRetries(bo, retryMaxAttempts-1), ctx),
		notify,
	)
}
