// Package backoff 实现重试等待时间的计算与有界重试。
// 目录批量拉取使用固定间隔（base == max，无抖动）；
// 需要逐步放缓的调用方可以使用指数退避。
package backoff

import (
	"math/rand/v2"
	"time"
)

// Backoff 退避计算器
// 每次调用 Next() 返回下一次重试的等待时间，按指数增长直到达到最大值
type Backoff struct {
	// base 基础等待时间
	base time.Duration
	// max 最大等待时间
	max time.Duration
	// jitter 抖动比例（0-1），例如 0.2 表示 ±20%
	jitter float64
	// attempt 当前重试次数
	attempt int
}

// New 创建新的退避计算器
// 参数 base: 基础等待时间
// 参数 max: 最大等待时间
// 参数 jitter: 抖动比例
func New(base, max time.Duration, jitter float64) *Backoff {
	if max < base {
		max = base
	}
	return &Backoff{
		base:   base,
		max:    max,
		jitter: jitter,
	}
}

// NewFixed 创建固定间隔的退避计算器
// 每次 Next() 都返回 delay
func NewFixed(delay time.Duration) *Backoff {
	return New(delay, delay, 0)
}

// Next 获取下次重试的等待时间
// 计算公式: base * 2^attempt，然后应用抖动；结果不会超过 max（抖动前）
func (b *Backoff) Next() time.Duration {
	delay := b.max
	// attempt 过大时位移会溢出，此时直接取 max
	if b.attempt < 30 {
		if d := b.base * time.Duration(int64(1)<<b.attempt); d < b.max {
			delay = d
		}
	}

	if b.jitter > 0 {
		jitterFactor := 1.0 + (rand.Float64()*2-1)*b.jitter
		delay = time.Duration(float64(delay) * jitterFactor)
	}

	b.attempt++
	return delay
}

// Reset 重置退避计算器
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempt 获取当前重试次数
func (b *Backoff) Attempt() int {
	return b.attempt
}
