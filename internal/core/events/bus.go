// Package events 提供后台任务与展示层之间的两条单向队列：状态队列与结果队列。
//
// 生产者永不阻塞：队列满时丢弃最旧的一条再写入。
// 消费者每个节拍最多取一条（TryNext*），空队列立即返回。
package events

import (
	"fmt"
	"sync"
	"sync/atomic"

	"gw2-optimal-lister/internal/core/model"
	"gw2-optimal-lister/internal/util/timeutil"
)

// Bus 状态/结果双队列
type Bus struct {
	status  chan model.StatusEvent
	results chan model.ResultEvent

	// statusMu/resultMu 串行化"满则丢最旧"的两步操作
	statusMu sync.Mutex
	resultMu sync.Mutex

	dropped atomic.Int64
}

// New 创建事件总线
// 参数 size: 每条队列的容量
func New(size int) *Bus {
	if size <= 0 {
		size = 1
	}
	return &Bus{
		status:  make(chan model.StatusEvent, size),
		results: make(chan model.ResultEvent, size),
	}
}

// PublishStatus 写入状态事件（非阻塞）
func (b *Bus) PublishStatus(ev model.StatusEvent) {
	if ev.TsUnixMs == 0 {
		ev.TsUnixMs = timeutil.NowMs()
	}
	select {
	case b.status <- ev:
		return
	default:
	}

	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	for {
		select {
		case b.status <- ev:
			return
		default:
		}
		select {
		case <-b.status:
			b.dropped.Add(1)
		default:
		}
	}
}

// PublishResult 写入结果事件（非阻塞）
func (b *Bus) PublishResult(ev model.ResultEvent) {
	if ev.TsUnixMs == 0 {
		ev.TsUnixMs = timeutil.NowMs()
	}
	select {
	case b.results <- ev:
		return
	default:
	}

	b.resultMu.Lock()
	defer b.resultMu.Unlock()
	for {
		select {
		case b.results <- ev:
			return
		default:
		}
		select {
		case <-b.results:
			b.dropped.Add(1)
		default:
		}
	}
}

// Info 写入 info 级状态
func (b *Bus) Info(format string, args ...any) {
	b.PublishStatus(model.StatusEvent{Severity: model.SeverityInfo, Message: fmt.Sprintf(format, args...)})
}

// Success 写入 success 级状态
func (b *Bus) Success(format string, args ...any) {
	b.PublishStatus(model.StatusEvent{Severity: model.SeveritySuccess, Message: fmt.Sprintf(format, args...)})
}

// Error 写入 error 级状态
func (b *Bus) Error(format string, args ...any) {
	b.PublishStatus(model.StatusEvent{Severity: model.SeverityError, Message: fmt.Sprintf(format, args...)})
}

// TryNextStatus 取出一条状态事件，队列为空时立即返回 false
func (b *Bus) TryNextStatus() (model.StatusEvent, bool) {
	select {
	case ev := <-b.status:
		return ev, true
	default:
		return model.StatusEvent{}, false
	}
}

// TryNextResult 取出一条结果事件，队列为空时立即返回 false
func (b *Bus) TryNextResult() (model.ResultEvent, bool) {
	select {
	case ev := <-b.results:
		return ev, true
	default:
		return model.ResultEvent{}, false
	}
}

// StatusC 状态队列（供 select 使用）
func (b *Bus) StatusC() <-chan model.StatusEvent {
	return b.status
}

// ResultC 结果队列（供 select 使用）
func (b *Bus) ResultC() <-chan model.ResultEvent {
	return b.results
}

// Dropped 因队列满被丢弃的事件总数
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
