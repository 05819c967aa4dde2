// Package lister 组装名称索引、构建器、解析器、报价与建议，对外提供查询服务。
//
// 并发模型：
//   - 一个长驻 worker 负责启动时加载快照（或首次构建）
//   - 每次重建一个 worker，互斥由索引的 Building 状态保证
//   - 每次查询一个 worker，彼此独立，结果按完成顺序写入结果队列
//
// 所有错误都转换为简短的面向用户消息写入事件队列，原始错误只写日志。
package lister

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"gw2-optimal-lister/internal/config"
	"gw2-optimal-lister/internal/core/advisor"
	"gw2-optimal-lister/internal/core/builder"
	"gw2-optimal-lister/internal/core/events"
	"gw2-optimal-lister/internal/core/index"
	"gw2-optimal-lister/internal/core/lookup"
	"gw2-optimal-lister/internal/core/model"
	"gw2-optimal-lister/internal/core/quote"
	"gw2-optimal-lister/internal/core/store"
)

// Catalog 远程目录（构建与报价共用）
type Catalog interface {
	builder.Catalog
	quote.Catalog
}

// SnapshotStore 快照读写
type SnapshotStore interface {
	Load() (map[string]int64, error)
	Save(entries map[string]int64) error
}

// Service 查询服务
type Service struct {
	index    *index.Index
	store    SnapshotStore
	builder  *builder.Builder
	resolver *lookup.Resolver
	quotes   *quote.Fetcher
	bus      *events.Bus
	taxRate  float64
	logger   *zap.Logger

	wg sync.WaitGroup
}

// New 创建查询服务
// 参数 cfg: 应用配置
// 参数 cat: 远程目录客户端
// 参数 st: 快照存储
// 参数 bus: 事件总线
func New(cfg *config.Config, cat Catalog, st SnapshotStore, bus *events.Bus, logger *zap.Logger) *Service {
	idx := index.New()
	resolver := lookup.New(idx, logger)
	return &Service{
		index:    idx,
		store:    st,
		builder:  builder.New(cat, idx, st, bus, &cfg.API, logger),
		resolver: resolver,
		quotes:   quote.New(cat, resolver, logger),
		bus:      bus,
		taxRate:  cfg.Market.TaxRate,
		logger:   logger.Named("lister"),
	}
}

// Ready 名称索引是否可查询（供展示层启用/禁用输入）
func (s *Service) Ready() bool {
	return s.index.State().Queryable()
}

// State 名称索引当前状态
func (s *Service) State() index.State {
	return s.index.State()
}

// Items 名称索引条数
func (s *Service) Items() int {
	return s.index.Len()
}

// Bus 事件总线
func (s *Service) Bus() *events.Bus {
	return s.bus
}

// Wait 等待所有后台 worker 结束
func (s *Service) Wait() {
	s.wg.Wait()
}

// StartInitialLoad 启动加载 worker：读取快照，不存在或损坏时构建
func (s *Service) StartInitialLoad(ctx context.Context) {
	s.goWorker(func() {
		_, _ = s.LoadOrBuild(ctx)
	})
}

// LoadOrBuild 同步加载快照；快照不存在或损坏时执行一次非强制构建
// 返回: 快照加载成功时 Outcome 为 BuildAlreadyLoaded，否则为构建结果
func (s *Service) LoadOrBuild(ctx context.Context) (model.BuildReport, error) {
	n, err := s.LoadSnapshot()
	switch {
	case err == nil:
		return model.BuildReport{Outcome: model.BuildAlreadyLoaded, Items: n}, nil
	case errors.Is(err, errLoadSkipped):
		return model.BuildReport{Outcome: model.BuildInProgress}, nil
	case errors.Is(err, store.ErrSnapshotNotFound):
		s.bus.Info("Cache file not found. Building cache...")
	case errors.Is(err, store.ErrSnapshotCorrupt):
		s.bus.Info("Cache file is corrupt. Rebuilding...")
	default:
		s.bus.Info("Cache load error. Rebuilding...")
	}
	return s.Build(ctx, false)
}

// errLoadSkipped 快照读取期间已有构建开始，交给该构建
var errLoadSkipped = errors.New("构建进行中，跳过快照加载")

// LoadSnapshot 只读取快照填充索引，不触发构建
// 返回: 加载的条数
func (s *Service) LoadSnapshot() (int, error) {
	s.bus.Info("Loading cache...")

	entries, err := s.store.Load()
	if err != nil {
		if errors.Is(err, store.ErrSnapshotNotFound) {
			s.logger.Info("缓存快照不存在")
		} else {
			s.logger.Warn("读取缓存快照失败", zap.Error(err))
		}
		return 0, err
	}
	if !s.index.Load(entries) {
		return 0, errLoadSkipped
	}
	s.logger.Info("已加载缓存快照", zap.Int("items", len(entries)))
	s.bus.Success("Cache loaded (%d items). Ready.", len(entries))
	return len(entries), nil
}

// ReloadSnapshot 快照被外部进程替换后启动一个重新加载 worker
// 构建进行中时跳过，读取失败时保留当前索引
func (s *Service) ReloadSnapshot() {
	if s.index.State() == index.StateBuilding {
		s.logger.Info("构建进行中，忽略外部快照更新")
		return
	}
	s.goWorker(func() {
		if _, err := s.LoadSnapshot(); err != nil {
			s.logger.Warn("重新加载外部快照失败，保留当前索引", zap.Error(err))
		}
	})
}

// Rebuild 启动一个强制（或非强制）重建 worker
// 已有构建进行中时不启动，写入 info 结果并返回 false
func (s *Service) Rebuild(ctx context.Context, force bool) bool {
	if s.index.State() == index.StateBuilding {
		s.bus.PublishResult(model.ResultEvent{
			Outcome: model.OutcomeInfo,
			Kind:    model.ResultBuild,
			Message: msgBuildInProgress,
			Build:   &model.BuildReport{Outcome: model.BuildInProgress},
		})
		return false
	}
	s.goWorker(func() {
		_, _ = s.Build(ctx, force)
	})
	return true
}

// Build 同步执行一次构建，并把结果写入结果队列
func (s *Service) Build(ctx context.Context, force bool) (model.BuildReport, error) {
	report, err := s.builder.Build(ctx, force)
	s.bus.PublishResult(buildResult(report, err))
	return report, err
}

// Search 启动一个查询 worker，结果写入结果队列
func (s *Service) Search(ctx context.Context, raw string) {
	s.goWorker(func() {
		report, err := s.Lookup(ctx, raw)
		if err != nil {
			outcome, msg := SearchMessage(err, raw)
			s.bus.PublishResult(model.ResultEvent{
				Outcome: outcome,
				Kind:    model.ResultSearch,
				Query:   raw,
				Message: msg,
			})
			return
		}
		s.bus.PublishResult(model.ResultEvent{
			Outcome: model.OutcomeSuccess,
			Kind:    model.ResultSearch,
			Query:   raw,
			Report:  &report,
		})
	})
}

// Lookup 同步执行一次查询：解析 -> 报价 -> 建议
// 不做自动重试
func (s *Service) Lookup(ctx context.Context, raw string) (model.Report, error) {
	res, err := s.resolver.ResolveString(raw)
	if err != nil {
		s.logger.Debug("解析物品标识失败", zap.String("query", raw), zap.Error(err))
		return model.Report{}, err
	}

	q, err := s.quotes.Fetch(ctx, res)
	if err != nil {
		s.logger.Warn("获取报价失败",
			zap.String("query", raw),
			zap.Int64("item_id", res.ItemID),
			zap.Error(err))
		return model.Report{}, &FetchError{ItemID: res.ItemID, Err: err}
	}

	return model.Report{
		Quote:      q,
		Suggestion: advisor.ForQuote(&q, s.taxRate),
	}, nil
}

func (s *Service) goWorker(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}
