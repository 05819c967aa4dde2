// Package backoff 退避与重试测试
package backoff

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestBackoff_ExponentialGrowth 测试退避时间单调增长且不超过上限
func TestBackoff_ExponentialGrowth(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("退避时间单调不减且不超过上限", prop.ForAll(
		func(baseMs int, maxMs int) bool {
			base := time.Duration(baseMs) * time.Millisecond
			max := time.Duration(maxMs) * time.Millisecond
			b := New(base, max, 0)

			prev := time.Duration(0)
			for i := 0; i < 40; i++ {
				delay := b.Next()
				if delay < prev || delay > max {
					return false
				}
				prev = delay
			}
			return true
		},
		gen.IntRange(100, 2000),
		gen.IntRange(5000, 60000),
	))

	properties.TestingRun(t)
}

// TestBackoff_JitterBounds 测试抖动范围
func TestBackoff_JitterBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("抖动在指定范围内", prop.ForAll(
		func(jitterPercent int) bool {
			jitter := float64(jitterPercent) / 100.0
			b := New(time.Second, 30*time.Second, jitter)

			for i := 0; i < 50; i++ {
				b.Reset()
				delay := float64(b.Next())
				if delay < float64(time.Second)*(1-jitter) || delay > float64(time.Second)*(1+jitter) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}

// TestBackoff_Fixed 测试固定间隔
func TestBackoff_Fixed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("固定间隔每次返回相同值", prop.ForAll(
		func(ms int, calls int) bool {
			d := time.Duration(ms) * time.Millisecond
			b := NewFixed(d)
			for i := 0; i < calls; i++ {
				if b.Next() != d {
					return false
				}
			}
			return b.Attempt() == calls
		},
		gen.IntRange(0, 5000),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

// TestBackoff_SpecificValues 测试特定值
func TestBackoff_SpecificValues(t *testing.T) {
	b := New(time.Second, 30*time.Second, 0)

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second}, // 2^5 = 32，限制为 30
		{6, 30 * time.Second},
		{64, 30 * time.Second}, // 位移溢出保护
	}

	for _, tt := range tests {
		b.Reset()
		for i := 0; i < tt.attempt; i++ {
			b.Next()
		}
		if got := b.Next(); got != tt.expected {
			t.Errorf("attempt %d: got %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

// TestBackoff_MaxBelowBase 测试 max 小于 base 时按 base 处理
func TestBackoff_MaxBelowBase(t *testing.T) {
	b := New(2*time.Second, time.Second, 0)
	if got := b.Next(); got != 2*time.Second {
		t.Fatalf("got %v, want 2s", got)
	}
}
