package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gw2-optimal-lister/internal/core/model"
)

// Sink 事件消费者（日志文件、WebSocket 推送、终端输出等）
// 回调在 Pump 的 goroutine 中串行调用，实现方不应长时间阻塞
type Sink interface {
	OnStatus(ev model.StatusEvent)
	OnResult(ev model.ResultEvent)
}

// Pump 按固定节拍从总线取事件并分发给所有 Sink
// 状态与结果各有独立节拍，每个节拍最多取一条
type Pump struct {
	bus         *Bus
	statusEvery time.Duration
	resultEvery time.Duration
	sinks       []Sink
	logger      *zap.Logger
}

// NewPump 创建事件分发器
// 参数 statusEvery/resultEvery: 两条队列的消费间隔
func NewPump(bus *Bus, statusEvery, resultEvery time.Duration, logger *zap.Logger, sinks ...Sink) *Pump {
	return &Pump{
		bus:         bus,
		statusEvery: statusEvery,
		resultEvery: resultEvery,
		sinks:       sinks,
		logger:      logger.Named("events"),
	}
}

// Run 运行直到 ctx 取消；退出前把队列中剩余事件全部分发
func (p *Pump) Run(ctx context.Context) error {
	statusTicker := time.NewTicker(p.statusEvery)
	defer statusTicker.Stop()
	resultTicker := time.NewTicker(p.resultEvery)
	defer resultTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Flush()
			if n := p.bus.Dropped(); n > 0 {
				p.logger.Warn("事件队列溢出，部分事件被丢弃", zap.Int64("dropped", n))
			}
			return ctx.Err()
		case <-statusTicker.C:
			if ev, ok := p.bus.TryNextStatus(); ok {
				p.dispatchStatus(ev)
			}
		case <-resultTicker.C:
			if ev, ok := p.bus.TryNextResult(); ok {
				p.dispatchResult(ev)
			}
		}
	}
}

// Flush 同步分发队列中所有剩余事件
func (p *Pump) Flush() {
	for {
		ev, ok := p.bus.TryNextStatus()
		if !ok {
			break
		}
		p.dispatchStatus(ev)
	}
	for {
		ev, ok := p.bus.TryNextResult()
		if !ok {
			break
		}
		p.dispatchResult(ev)
	}
}

func (p *Pump) dispatchStatus(ev model.StatusEvent) {
	for _, s := range p.sinks {
		s.OnStatus(ev)
	}
}

func (p *Pump) dispatchResult(ev model.ResultEvent) {
	for _, s := range p.sinks {
		s.OnResult(ev)
	}
}
