package backoff

import (
	"context"
	"time"
)

// Policy 有界重试策略
type Policy struct {
	// MaxRetries 首次尝试之后的最大重试次数
	MaxRetries int
	// NewBackoff 为每次 Do 调用创建独立的退避计算器；为 nil 时不等待
	NewBackoff func() *Backoff
	// Retryable 判断错误是否值得重试；为 nil 时所有错误都重试
	Retryable func(error) bool
	// OnRetry 每次决定重试前回调（attempt 从 1 开始），用于记录日志
	OnRetry func(attempt int, err error, delay time.Duration)
}

// FixedPolicy 固定间隔的重试策略
func FixedPolicy(maxRetries int, delay time.Duration, retryable func(error) bool) Policy {
	return Policy{
		MaxRetries: maxRetries,
		NewBackoff: func() *Backoff { return NewFixed(delay) },
		Retryable:  retryable,
	}
}

// Do 执行 fn，失败时按策略重试
// 返回最后一次尝试的错误；ctx 取消时立即返回 ctx.Err()
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var b *Backoff
	if p.NewBackoff != nil {
		b = p.NewBackoff()
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries {
			return err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		var delay time.Duration
		if b != nil {
			delay = b.Next()
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err, delay)
		}
		if delay <= 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
